package memsearch

import (
	"context"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/xmrig"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const target = "F4-4000C18D-32GVK"

type fakeSource struct {
	benchmarks []xmrig.Benchmark
	details    map[string]xmrig.BenchmarkDetail
	failing    map[string]bool
	requested  []string
}

func (f *fakeSource) CPUBenchmarks(ctx context.Context, cpu string) ([]xmrig.Benchmark, error) {
	if cpu != "AMD Ryzen 9 5950X 16-Core Processor" {
		return nil, errors.New("unknown cpu")
	}
	return f.benchmarks, nil
}

func (f *fakeSource) Benchmark(ctx context.Context, id string) (xmrig.BenchmarkDetail, error) {
	f.requested = append(f.requested, id)
	if f.failing[id] {
		return xmrig.BenchmarkDetail{}, &xmrig.StatusError{Status: 500}
	}
	return f.details[id], nil
}

func newFakeSource() *fakeSource {
	source := &fakeSource{
		details: map[string]xmrig.BenchmarkDetail{},
		failing: map[string]bool{},
	}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("b%d", i)
		source.benchmarks = append(source.benchmarks, xmrig.Benchmark{ID: id, Hashrate: float64(i)})

		product := "CMK32GX4M2E3200C16"
		if i%2 == 0 {
			product = " f4-4000c18d-32gvk "
		}
		source.details[id] = xmrig.BenchmarkDetail{
			ID:       id,
			Hashrate: float64(18000 + i*100),
			DMI: &xmrig.DMI{Memory: []xmrig.MemoryModule{
				{Product: "unrelated"},
				{Product: product, Manufacturer: "G Skill Intl"},
			}},
		}
	}
	return source
}

func TestFind(t *testing.T) {
	source := newFakeSource()
	source.details["b4"] = xmrig.BenchmarkDetail{ID: "b4", Hashrate: 99999}
	source.failing["b6"] = true

	clock := &chrono.FakeImpl{Current: time.Unix(0, 0)}
	tel := &telemetry.TestAPI{}
	var progress []int
	finder := NewFinder(source, Options{
		Offset: 2,
		Window: 7,
		Limit:  2,
		Delay:  time.Second * 2,
		Progress: func(done, total int) {
			require.Equal(t, 7, total)
			progress = append(progress, done)
		},
	}, clock, tel)

	result, err := finder.Find(context.Background(), "AMD Ryzen 9 5950X 16-Core Processor", target)
	require.NoError(t, err)

	require.Equal(t, []string{"b2", "b3", "b4", "b5", "b6", "b7", "b8"}, source.requested)
	require.Len(t, clock.Slept, 7)
	require.Equal(t, time.Second*2, clock.Slept[0])
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, progress)

	require.Equal(t, 7, result.Inspected)
	require.Equal(t, 1, result.NoInventory)
	require.Len(t, result.Failed, 1)
	require.Len(t, tel.Reports("warning", report_finder_detail), 1)

	// b2 and b8 match, b4 has no inventory and b6 failed
	require.Equal(t, 2, result.Total)
	require.Len(t, result.Matches, 2)
	require.Equal(t, "b8", result.Matches[0].Benchmark.ID)
	require.Equal(t, "b2", result.Matches[1].Benchmark.ID)
	require.Equal(t, "G Skill Intl", result.Matches[0].Module.Manufacturer)
}

func TestFindUnknownCPU(t *testing.T) {
	tel := &telemetry.TestAPI{}
	finder := NewFinder(newFakeSource(), Options{}, &chrono.FakeImpl{}, tel)
	_, err := finder.Find(context.Background(), "unknown", target)
	require.Error(t, err)
	require.Len(t, tel.Reports("broken", report_finder_list), 1)
}

func TestFindCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := newFakeSource()
	finder := NewFinder(source, Options{}, &chrono.FakeImpl{}, &telemetry.TestAPI{})
	result, err := finder.Find(ctx, "AMD Ryzen 9 5950X 16-Core Processor", target)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, source.requested)
	require.Equal(t, 0, result.Inspected)
}

func TestWindow(t *testing.T) {
	benchmarks := make([]xmrig.Benchmark, 5)
	require.Len(t, Window(benchmarks, 0, 100), 5)
	require.Len(t, Window(benchmarks, 3, 100), 2)
	require.Len(t, Window(benchmarks, 1, 2), 2)
	require.Empty(t, Window(benchmarks, 5, 2))
	require.Empty(t, Window(nil, 0, 2))
}

func TestSameProduct(t *testing.T) {
	require.True(t, SameProduct(target, " f4-4000c18d-32gvk"))
	require.False(t, SameProduct(target, "F4-3600C16D-32GVK"))
}
