package history

import (
	"context"
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/search"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	database, err := Open(":memory:")
	require.NoError(t, err)
	defer database.Close()

	clock := &chrono.FakeImpl{Current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	tel := &telemetry.TestAPI{}

	store := NewStore(database, clock, tel)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Empty(t, runs)

	first, err := store.StartRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID())

	candidate := catalog.Candidate{Name: "AMD Ryzen 9 7950X 16-Core Processor", Hashrate: 21000}
	err = first.Record(ctx, pipeline.Record{
		Candidate: candidate,
		Approved: []search.Listing{
			{Title: "7950X", Price: 489, Source: "www.ebay.com", Link: "https://www.ebay.com/itm/1"},
			{Title: "7950X box", Price: search.PriceUnparsable, Source: "www.walmart.com", Link: "https://www.walmart.com/ip/2"},
		},
		Unknown: []search.Listing{
			{Title: "7950X cheap", Price: 250, Source: "www.randomshop.net", Link: "https://www.randomshop.net/3"},
		},
	})
	require.NoError(t, err)

	// a record without listings stores nothing
	err = first.Record(ctx, pipeline.Record{Candidate: catalog.Candidate{Name: "nothing", Hashrate: 1}})
	require.NoError(t, err)

	clock.Sleep(time.Hour * 24)
	second, err := store.StartRun(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.ID(), second.ID())

	err = second.Record(ctx, pipeline.Record{
		Candidate: candidate,
		Approved: []search.Listing{
			{Title: "7950X", Price: 459, Source: "www.ebay.com", Link: "https://www.ebay.com/itm/4"},
		},
	})
	require.NoError(t, err)

	observations, err := store.ForCPU(ctx, candidate.Name)
	require.NoError(t, err)
	require.Len(t, observations, 4)

	require.Equal(t, first.ID(), observations[0].RunID)
	require.Equal(t, 250, observations[0].Listing.Price)
	require.Equal(t, "unknown", observations[0].Tier)
	require.Equal(t, 489, observations[1].Listing.Price)
	require.Equal(t, "approved", observations[1].Tier)
	require.Equal(t, search.PriceUnparsable, observations[2].Listing.Price)
	require.Equal(t, second.ID(), observations[3].RunID)
	require.Equal(t, 459, observations[3].Listing.Price)
	require.Equal(t, 21000.0, observations[3].Hashrate)

	empty, err := store.ForCPU(ctx, "nothing")
	require.NoError(t, err)
	require.Empty(t, empty)

	runs, err = store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, second.ID(), runs[0].ID)
	require.EqualValues(t, 1, runs[0].Observations)
	require.EqualValues(t, 3, runs[1].Observations)

	require.Empty(t, tel.Reports("broken", report_db_query))
}
