package memsearch

import (
	"context"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/xmrig"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cpuvalue/internal/memsearch")

const (
	report_finder_list   = "finder.list"
	report_finder_detail = "finder.detail"
)

type Source interface {
	CPUBenchmarks(ctx context.Context, cpu string) ([]xmrig.Benchmark, error)
	Benchmark(ctx context.Context, id string) (xmrig.BenchmarkDetail, error)
}

type Options struct {
	// index of the first benchmark inspected
	Offset int
	// number of benchmarks inspected, defaults to 100
	Window int
	// number of matches returned, defaults to 5
	Limit int
	// wait before every detail lookup
	Delay time.Duration
	// optional, called after every inspected benchmark
	Progress func(done, total int)
}

// Match is a benchmark whose machine had the wanted memory module.
type Match struct {
	Benchmark xmrig.BenchmarkDetail
	Module    xmrig.MemoryModule
}

type Result struct {
	// Matches holds the best matches by hashrate, best first.
	Matches []Match
	// Total is the number of matches before the limit was applied.
	Total     int
	Inspected int
	// NoInventory counts benchmarks submitted without memory inventory.
	NoInventory int
	Failed      []error
}

type Finder struct {
	source Source
	opts   Options
	clock  chrono.API
	tel    telemetry.API
}

func NewFinder(source Source, opts Options, clock chrono.API, tel telemetry.API) Finder {
	assert.NotNil(source)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.NotNegative(opts.Offset)
	if opts.Window <= 0 {
		opts.Window = 100
	}
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	return Finder{
		source: source,
		opts:   opts,
		clock:  clock,
		tel:    telemetry.NewScopedAPI("memsearch", tel),
	}
}

// SameProduct compares memory part numbers ignoring case and padding.
func SameProduct(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Find inspects a window of the benchmarks submitted for `cpu` and keeps
// those run on a machine with the memory part `product`.
//
// A failed detail lookup is skipped. A cancelled context stops the search
// and returns what was found so far along with the context error.
func (f Finder) Find(ctx context.Context, cpu, product string) (Result, error) {
	assert.NotEmptyStr(cpu)
	assert.NotEmptyStr(product)

	ctx, span := tracer.Start(ctx, "Finder.Find")
	defer span.End()
	span.SetAttributes(
		attribute.String("memsearch.cpu", cpu),
		attribute.String("memsearch.product", product),
	)

	benchmarks, err := f.source.CPUBenchmarks(ctx, cpu)
	if err != nil {
		f.tel.ReportBroken(report_finder_list, err, cpu)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("list benchmarks of %q: %w", cpu, err)
	}

	window := Window(benchmarks, f.opts.Offset, f.opts.Window)
	f.tel.ReportDebug("inspecting benchmarks", cpu, len(benchmarks), len(window))

	var result Result
	var matches []Match
	for i, b := range window {
		if ctx.Err() != nil {
			result.Matches, result.Total = top(matches, f.opts.Limit)
			return result, ctx.Err()
		}
		if b.ID == "" {
			continue
		}

		f.clock.Sleep(f.opts.Delay)
		detail, err := f.source.Benchmark(ctx, b.ID)
		result.Inspected++
		if f.opts.Progress != nil {
			f.opts.Progress(i+1, len(window))
		}
		if err != nil {
			f.tel.ReportWarning(report_finder_detail, err, b.ID)
			result.Failed = append(result.Failed, err)
			continue
		}
		if detail.DMI == nil {
			f.tel.ReportDebug("no memory inventory", detail.ID)
			result.NoInventory++
			continue
		}
		for _, module := range detail.DMI.Memory {
			if SameProduct(module.Product, product) {
				matches = append(matches, Match{Benchmark: detail, Module: module})
				break
			}
		}
	}

	result.Matches, result.Total = top(matches, f.opts.Limit)
	span.SetAttributes(attribute.Int("memsearch.matches", result.Total))
	return result, nil
}

// Window returns at most `size` benchmarks starting at `offset`, clamped to
// the bounds of `benchmarks`.
func Window(benchmarks []xmrig.Benchmark, offset, size int) []xmrig.Benchmark {
	if offset >= len(benchmarks) {
		return nil
	}
	end := offset + size
	if end > len(benchmarks) {
		end = len(benchmarks)
	}
	return benchmarks[offset:end]
}

func top(matches []Match, limit int) ([]Match, int) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Benchmark.Hashrate > matches[j].Benchmark.Hashrate
	})
	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total
}
