package catalog

import (
	"context"
	"cpuvalue/internal/components/telemetry"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeSource) Catalog(ctx context.Context) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

const testCatalog = `[
	{"cpu": "AMD EPYC 7702 64-Core Processor", "hashrate": 40000, "count": 300},
	{"cpu": "AMD Ryzen 9 5950X 16-Core Processor", "hashrate": 20000.7, "count": 5000}
]`

func TestLoaderFetchesAndCaches(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "XMRig.json")
	source := &fakeSource{body: []byte(testCatalog)}
	loader := NewLoader(source, cache, &telemetry.TestAPI{})

	rows, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, []Row{
		{CPU: "AMD EPYC 7702 64-Core Processor", Hashrate: 40000, Count: 300},
		{CPU: "AMD Ryzen 9 5950X 16-Core Processor", Hashrate: 20000.7, Count: 5000},
	}, rows)

	cached, err := os.ReadFile(cache)
	require.NoError(t, err)
	require.Equal(t, testCatalog, string(cached))

	// second load is served from the cache
	again, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, rows, again)
	require.Equal(t, 1, source.calls)

	_, err = loader.Load(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestLoaderFetchError(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	tel := &telemetry.TestAPI{}
	loader := NewLoader(source, filepath.Join(t.TempDir(), "XMRig.json"), tel)

	_, err := loader.Load(context.Background(), false)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.ErrorContains(t, err, "connection refused")
	require.Len(t, tel.Reports("broken", report_loader_load), 1)
}

func TestLoaderParseError(t *testing.T) {
	dir := t.TempDir()

	t.Run("malformed cache", func(t *testing.T) {
		cache := filepath.Join(dir, "bad-cache.json")
		require.NoError(t, os.WriteFile(cache, []byte(`{"not": "a list"`), 0600))
		source := &fakeSource{body: []byte(testCatalog)}

		_, err := NewLoader(source, cache, &telemetry.TestAPI{}).Load(context.Background(), false)
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		require.Equal(t, cache, parseErr.Source)
		require.Equal(t, 0, source.calls)
	})

	t.Run("malformed response", func(t *testing.T) {
		cache := filepath.Join(dir, "never-written.json")
		source := &fakeSource{body: []byte(`<html>maintenance</html>`)}

		_, err := NewLoader(source, cache, &telemetry.TestAPI{}).Load(context.Background(), false)
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))

		_, statErr := os.Stat(cache)
		require.True(t, os.IsNotExist(statErr))
	})
}

func TestParseRows(t *testing.T) {
	_, err := ParseRows([]byte(`null`))
	require.Error(t, err)

	_, err = ParseRows([]byte(`[{"hashrate": 1, "count": 1}]`))
	require.Error(t, err)

	rows, err := ParseRows([]byte(`[]`))
	require.NoError(t, err)
	require.Len(t, rows, 0)
}
