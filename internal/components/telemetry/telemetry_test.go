package telemetry

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	tel := &TestAPI{}
	scoped := NewScopedAPI("search", NewScopedAPI("cpuvalue", tel))

	scoped.ReportBroken("engine.search", "boom")
	scoped.ReportCount("engine.listings", 3)

	broken := tel.Reports("broken", "engine.search")
	require.Len(t, broken, 1)
	require.Equal(t, "cpuvalue: search: engine.search", broken[0].ID)
	require.Equal(t, []any{"boom"}, broken[0].Params)

	counts := tel.Reports("count", "engine.listings")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)

	require.Empty(t, tel.Reports("warning", ""))
}

type memoryOutput struct {
	mu    sync.Mutex
	dumps map[string]string
}

func (m *memoryOutput) Write(id, contents string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dumps[id] = contents
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain")
		w.Write([]byte("hello from the server"))
	}))
	defer server.Close()

	tel := &TestAPI{}
	output := &memoryOutput{dumps: map[string]string{}}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, tel, output)

	_, err := client.R().SetQueryParam("q", "5950x").Get("/search")
	require.NoError(t, err)
	_, err = client.R().Get("/second")
	require.NoError(t, err)

	require.Len(t, tel.Reports("debug", report_resty_request), 2)
	require.Len(t, tel.Reports("debug", report_resty_response), 2)
	require.Len(t, output.dumps, 2)
	require.Contains(t, output.dumps["1"], "/search?q=5950x")
	require.Contains(t, output.dumps["1"], "hello from the server")
	require.Contains(t, output.dumps["2"], "/second")
}

func TestInstrumentRestyTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	tel := &TestAPI{}
	client := resty.New().SetBaseURL(url)
	InstrumentResty(client, tel, nil)

	_, err := client.R().Get("/")
	require.Error(t, err)
	require.Len(t, tel.Reports("warning", report_resty_response), 1)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	tel := &TestAPI{}

	output, err := NewFilesystemOutput(dir, tel)
	require.NoError(t, err)
	output.Write("1", "GET / HTTP/1.1")

	contents, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1", string(contents))
	require.Empty(t, tel.Reports("warning", report_resty_dump))
}
