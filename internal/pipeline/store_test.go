package pipeline

import (
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/search"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestStoreCheckpoint(t *testing.T) {
	store := NewStore(t.TempDir(), &telemetry.TestAPI{})

	hasCheckpoint, err := store.HasCheckpoint()
	require.NoError(t, err)
	require.False(t, hasCheckpoint)

	cands := candidates(3)
	state := NewState(cands)
	state.Archive = append(state.Archive, Record{
		Candidate: cands[0],
		Approved: []search.Listing{
			{Title: "x", Price: 489, Source: "www.ebay.com", Link: "https://www.ebay.com/itm/1"},
		},
		Unknown: []search.Listing{
			{Title: "y", Price: search.PriceUnparsable, Source: "", Link: ""},
		},
	})

	err = store.SaveCheckpoint(state)
	require.NoError(t, err)

	loaded, err := store.LoadCheckpoint()
	require.NoError(t, err)
	if diff := cmp.Diff(state, loaded, cmpopts.EquateEmpty()); diff != "" {
		t.Fatal(diff)
	}

	err = store.DeleteCheckpoint()
	require.NoError(t, err)
	hasCheckpoint, err = store.HasCheckpoint()
	require.NoError(t, err)
	require.False(t, hasCheckpoint)

	// deleting twice is fine
	require.NoError(t, store.DeleteCheckpoint())
}

func TestStoreCheckpointMismatch(t *testing.T) {
	store := NewStore(t.TempDir(), &telemetry.TestAPI{})
	cands := candidates(2)

	err := store.SaveCheckpoint(State{
		Candidates: cands[:1],
		Archive:    []Record{{Candidate: cands[0]}, {Candidate: cands[1]}},
	})
	require.NoError(t, err)

	_, err = store.LoadCheckpoint()
	require.ErrorIs(t, err, ErrCheckpointMismatch)
}

func TestStoreCorruptResults(t *testing.T) {
	store := NewStore(t.TempDir(), &telemetry.TestAPI{})
	err := os.WriteFile(store.ResultsPath(), []byte("{not json"), 0666)
	require.NoError(t, err)

	_, err = store.LoadResults()
	require.Error(t, err)
}

func TestResolveMode(t *testing.T) {
	store := NewStore(t.TempDir(), &telemetry.TestAPI{})
	state := NewState(candidates(1))

	mode, err := ResolveMode(MODE_AUTO, store)
	require.NoError(t, err)
	require.Equal(t, MODE_FRESH, mode)

	_, err = ResolveMode(MODE_RESUME, store)
	require.Error(t, err)
	_, err = ResolveMode(MODE_REPORT, store)
	require.Error(t, err)

	require.NoError(t, store.SaveCheckpoint(state))
	mode, err = ResolveMode(MODE_AUTO, store)
	require.NoError(t, err)
	require.Equal(t, MODE_RESUME, mode)

	mode, err = ResolveMode(MODE_FRESH, store)
	require.NoError(t, err)
	require.Equal(t, MODE_FRESH, mode)

	require.NoError(t, store.SaveResults(state))
	mode, err = ResolveMode(MODE_AUTO, store)
	require.NoError(t, err)
	require.Equal(t, MODE_RESUME, mode)

	require.NoError(t, store.DeleteCheckpoint())
	mode, err = ResolveMode(MODE_AUTO, store)
	require.NoError(t, err)
	require.Equal(t, MODE_REPORT, mode)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" Resume ")
	require.NoError(t, err)
	require.Equal(t, MODE_RESUME, mode)

	mode, err = ParseMode("")
	require.NoError(t, err)
	require.Equal(t, MODE_AUTO, mode)

	_, err = ParseMode("sometimes")
	require.Error(t, err)
}
