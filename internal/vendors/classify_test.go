package vendors

import (
	"cpuvalue/internal/search"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func listing(source string, price int) search.Listing {
	return search.Listing{Title: source, Price: price, Source: source}
}

func TestClassify(t *testing.T) {
	classifier := NewClassifier(DefaultApproved, DefaultUnverified)

	input := []search.Listing{
		listing("www.randomshop.net", 250),
		listing("www.itcreations.com", 300),
		listing("www.ebay.com", 489),
		listing("www.newegg.com", 549),
		listing("bleepbox.com", 560),
		listing("www.amazon.com", 1234),
		listing("www.walmart.com", search.PriceUnparsable),
		listing("", search.PriceUnparsable),
	}

	classified := classifier.Classify(input)

	expected := Classification{
		Approved: []search.Listing{
			listing("www.ebay.com", 489),
			listing("www.newegg.com", 549),
			listing("www.amazon.com", 1234),
			listing("www.walmart.com", search.PriceUnparsable),
		},
		Unverified: []search.Listing{
			listing("www.itcreations.com", 300),
			listing("bleepbox.com", 560),
		},
		Unknown: []search.Listing{
			listing("www.randomshop.net", 250),
			listing("", search.PriceUnparsable),
		},
	}
	if diff := cmp.Diff(expected, classified); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, len(input), classified.Len())
}

func TestClassifyPartition(t *testing.T) {
	classifier := NewClassifier([]string{"a.com", "both.com"}, []string{"b.com", "both.com"})
	require.Equal(t, TIER_APPROVED, classifier.Tier("both.com"))
	require.Equal(t, TIER_UNVERIFIED, classifier.Tier("b.com"))
	require.Equal(t, TIER_UNKNOWN, classifier.Tier("c.com"))

	var input []search.Listing
	for i, domain := range []string{"c.com", "a.com", "b.com", "both.com", "a.com", "c.com"} {
		input = append(input, listing(domain, i*10))
	}
	classified := classifier.Classify(input)

	seen := map[int]int{}
	for _, tier := range [][]search.Listing{classified.Approved, classified.Unverified, classified.Unknown} {
		for i, l := range tier {
			seen[l.Price]++
			if i > 0 {
				require.LessOrEqual(t, tier[i-1].Price, l.Price)
			}
		}
	}
	require.Len(t, seen, len(input))
	for _, count := range seen {
		require.Equal(t, 1, count)
	}
}

func TestClassifyEmpty(t *testing.T) {
	classified := NewClassifier(nil, nil).Classify(nil)
	require.Equal(t, 0, classified.Len())
	require.Equal(t, "unknown", TIER_UNKNOWN.String())
}
