package search

import (
	"context"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t testing.TB, handler http.HandlerFunc) (*Engine, *chrono.FakeImpl, *telemetry.TestAPI) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clock := &chrono.FakeImpl{}
	tel := &telemetry.TestAPI{}
	engine := NewEngine(Options{
		BaseUrl: server.URL,
		Results: 20,
		Delay:   10 * time.Second,
		Extract: DefaultExtractOptions(),
	}, clock, tel)
	return engine, clock, tel
}

func TestEngineSearch(t *testing.T) {
	var requested *http.Request
	engine, clock, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		requested = r
		w.Header().Set("content-type", "text/html")
		w.Write(searchResultsTest)
	})

	listings, err := engine.Search(context.Background(), "AMD Ryzen 9 5950X 16-Core Processor")
	require.NoError(t, err)
	require.Equal(t, "/search", requested.URL.Path)
	require.Equal(t, "AMD Ryzen 9 5950X 16-Core Processor", requested.URL.Query().Get("q"))
	require.Equal(t, "20", requested.URL.Query().Get("num"))
	require.Len(t, listings, 6)
	require.Equal(t, 250, listings[0].Price)
	require.Equal(t, PriceUnparsable, listings[5].Price)
	require.Equal(t, []time.Duration{10 * time.Second}, clock.Slept)
}

func TestEngineRateLimited(t *testing.T) {
	calls := 0
	engine, _, tel := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("retry-after", "3600")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	listings, err := engine.Search(context.Background(), "AMD EPYC 7702")
	require.Nil(t, listings)

	var rateLimited *RateLimitedError
	require.True(t, errors.As(err, &rateLimited))
	require.Equal(t, "AMD EPYC 7702", rateLimited.Candidate)
	require.Equal(t, "3600", rateLimited.RetryAfter)
	require.Equal(t, 1, calls)
	require.Len(t, tel.Reports("warning", report_engine_search), 1)
}

func TestEngineBlockPage(t *testing.T) {
	engine, _, tel := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			http.Redirect(w, r, "/sorry/index?continue=/search", http.StatusFound)
			return
		}
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(`<html><body>unusual traffic from your computer network</body></html>`))
	})

	_, err := engine.Search(context.Background(), "AMD EPYC 7702")
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	require.Empty(t, rateLimited.RetryAfter)
	require.Len(t, tel.Reports("warning", report_engine_search), 1)
}

func TestEngineCaptcha(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(`<html><body><form id="captcha-form" action="index"><div class="g-recaptcha"></div></form></body></html>`))
	})

	_, err := engine.Search(context.Background(), "AMD EPYC 7702")
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	var failed *SearchFailedError
	require.False(t, errors.As(err, &failed))
}

func TestEngineSearchFailed(t *testing.T) {
	engine, _, _ := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := engine.Search(context.Background(), "AMD EPYC 7702")
	var failed *SearchFailedError
	require.True(t, errors.As(err, &failed))
	var rateLimited *RateLimitedError
	require.False(t, errors.As(err, &rateLimited))
	require.ErrorContains(t, err, "503")
}

func TestEngineTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	engine := NewEngine(Options{
		BaseUrl: server.URL,
		Timeout: 20 * time.Millisecond,
	}, &chrono.FakeImpl{}, &telemetry.TestAPI{})

	_, err := engine.Search(context.Background(), "AMD EPYC 7702")
	var failed *SearchFailedError
	require.True(t, errors.As(err, &failed))
}
