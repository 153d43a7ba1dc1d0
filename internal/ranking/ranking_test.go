package ranking

import (
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/search"
	"cpuvalue/internal/vendors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func record(name string, hashrate float64, approved ...search.Listing) pipeline.Record {
	return pipeline.Record{
		Candidate: catalog.Candidate{Name: name, Hashrate: hashrate},
		Approved:  approved,
	}
}

func ebay(price int) search.Listing {
	return search.Listing{
		Title:  "listing",
		Price:  price,
		Source: "www.ebay.com",
		Link:   fmt.Sprintf("https://www.ebay.com/itm/%d", price),
	}
}

func TestRankExample(t *testing.T) {
	records := []pipeline.Record{
		record("X", 20000, ebay(200)),
		record("Y", 18000, ebay(150)),
	}

	entries := Rank(records, vendors.DefaultExclusive)

	expected := []Entry{
		{Name: "Y", Score: 120, Link: "https://www.ebay.com/itm/150", Price: 150, Source: "www.ebay.com", Hashrate: 18000},
		{Name: "X", Score: 100, Link: "https://www.ebay.com/itm/200", Price: 200, Source: "www.ebay.com", Hashrate: 20000},
	}
	if diff := cmp.Diff(expected, entries); diff != "" {
		t.Fatal(diff)
	}
}

func TestRankAnchor(t *testing.T) {
	walmart := search.Listing{Title: "w", Price: 50, Source: "www.walmart.com", Link: "w"}
	free := search.Listing{Title: "f", Price: 0, Source: "www.amazon.com", Link: "f"}
	broken := search.Listing{Title: "b", Price: search.PriceUnparsable, Source: "www.newegg.com", Link: "b"}

	records := []pipeline.Record{
		// walmart is approved but not exclusive, the free and unparsable
		// listings cannot anchor a price
		record("A", 10000, walmart, free, ebay(400), broken),
		{
			Candidate: catalog.Candidate{Name: "unknown only", Hashrate: 50000},
			Unknown:   []search.Listing{{Title: "u", Price: 1, Source: "www.randomshop.net"}},
		},
		{
			Candidate:  catalog.Candidate{Name: "unverified only", Hashrate: 50000},
			Unverified: []search.Listing{{Title: "u", Price: 1, Source: "www.itcreations.com"}},
		},
		record("non exclusive", 50000, walmart),
	}

	entries := Rank(records, vendors.DefaultExclusive)
	require.Len(t, entries, 1)
	require.Equal(t, "A", entries[0].Name)
	require.Equal(t, 400, entries[0].Price)
	require.Equal(t, 25.0, entries[0].Score)
}

func TestRankUsesPerUnitHashrate(t *testing.T) {
	refined := record("refined", 40000, ebay(100))
	refined.Candidate = refined.Candidate.WithPerUnitHashrate(20000)

	entries := Rank([]pipeline.Record{refined}, vendors.DefaultExclusive)
	require.Len(t, entries, 1)
	require.Equal(t, 200.0, entries[0].Score)
	require.Equal(t, 20000.0, entries[0].Hashrate)
}

func TestRankOrdering(t *testing.T) {
	var records []pipeline.Record
	for i := 0; i < 40; i++ {
		// several records share a score so ties are exercised
		records = append(records, record(
			fmt.Sprintf("cpu-%02d", 39-i),
			float64(17000+(i%5)*1000),
			ebay(100+(i%3)*50),
		))
	}

	entries := Rank(records, vendors.DefaultExclusive)
	require.Len(t, entries, len(records))
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		require.GreaterOrEqual(t, prev.Score, cur.Score)
		if prev.Score == cur.Score {
			require.Less(t, prev.Name, cur.Name)
		}
	}
}

func TestRankEmpty(t *testing.T) {
	require.Empty(t, Rank(nil, vendors.DefaultExclusive))
	require.Empty(t, Rank([]pipeline.Record{record("X", 1, ebay(1))}, nil))
}
