package cmd

import (
	"bytes"
	"context"
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/config"
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/search"
	"cpuvalue/internal/xmrig"
	"cpuvalue/pkg/serviceutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderResults(t *testing.T) {
	g := &globals.Value{
		Config: config.Default(),
		Tel:    &telemetry.TestAPI{},
		Clock:  &chrono.FakeImpl{},
	}

	x := catalog.Candidate{Rank: 0, Name: "X", Hashrate: 20000}
	y := catalog.Candidate{Rank: 1, Name: "Y", Hashrate: 18000}
	z := catalog.Candidate{Rank: 2, Name: "Z", Hashrate: 30000}
	state := pipeline.State{
		Candidates: []catalog.Candidate{x, y, z},
		Archive: []pipeline.Record{
			{Candidate: x, Approved: []search.Listing{{Title: "x", Price: 200, Source: "www.ebay.com", Link: "https://www.ebay.com/itm/x"}}},
			{Candidate: y, Approved: []search.Listing{{Title: "y", Price: 150, Source: "www.newegg.com", Link: "https://www.newegg.com/p/y"}}},
			{Candidate: z, Unknown: []search.Listing{{Title: "z", Price: 10, Source: "www.randomshop.net"}}},
		},
	}

	var out bytes.Buffer
	err := renderResults(context.Background(), &out, g, state, 0, false)
	require.NoError(t, err)

	rendered := out.String()
	require.Contains(t, rendered, "120.000")
	require.Contains(t, rendered, "100.000")
	require.Contains(t, rendered, "https://www.newegg.com/p/y")
	require.Contains(t, rendered, "www.randomshop.net")

	err = renderResults(context.Background(), &bytes.Buffer{}, g, state, 0, true)
	require.ErrorContains(t, err, "not configured")
}

func TestLoadCandidatesRefineInterrupted(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "XMRig.json")
	err := os.WriteFile(cache, []byte(`[
		{"cpu": "AMD EPYC 7702 64-Core Processor", "hashrate": 30000, "count": 150},
		{"cpu": "Intel(R) Xeon(R) Gold 6148 CPU @ 2.40GHz", "hashrate": 20000, "count": 120}
	]`), 0666)
	require.NoError(t, err)

	tel := &telemetry.TestAPI{}
	cfg := config.Default()
	cfg.Catalog.CacheFile = cache
	cfg.Refine.Enabled = true
	clock := &chrono.FakeImpl{}
	g := &globals.Value{
		Config: cfg,
		Tel:    tel,
		Clock:  clock,
		Xmrig:  xmrig.NewClient(xmrig.ClientOptions{BaseUrl: "http://127.0.0.1:1"}, tel),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates, err := loadCandidates(ctx, g, false)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, serviceutil.EXIT_STOPPED, serviceutil.ExitCode(err))
	require.Nil(t, candidates)
	require.Empty(t, clock.Slept)
}
