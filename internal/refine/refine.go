package refine

import (
	"context"
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/xmrig"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cpuvalue/internal/refine")

const report_refiner_refine = "refiner.refine"

// ErrNoSinglePackage means none of the benchmarks of a processor were run
// on a single-socket machine.
var ErrNoSinglePackage = errors.New("no single-package benchmark")

// RefineError is the failure to refine one candidate, it never aborts a batch.
type RefineError struct {
	Candidate string
	Err       error
}

func (e *RefineError) Error() string {
	return fmt.Sprintf("refine %q: %s", e.Candidate, e.Err.Error())
}

func (e *RefineError) Unwrap() error {
	return e.Err
}

// Source lists the individual benchmarks submitted for a processor.
type Source interface {
	CPUBenchmarks(ctx context.Context, cpu string) ([]xmrig.Benchmark, error)
}

type Refiner struct {
	source Source
	delay  time.Duration
	clock  chrono.API
	tel    telemetry.API
}

func NewRefiner(source Source, delay time.Duration, clock chrono.API, tel telemetry.API) Refiner {
	assert.NotNil(source)
	assert.NotNil(clock)
	assert.NotNil(tel)
	return Refiner{
		source: source,
		delay:  delay,
		clock:  clock,
		tel:    telemetry.NewScopedAPI("refine", tel),
	}
}

// PerUnitHashrate picks the best hashrate among single-package benchmarks.
func PerUnitHashrate(benchmarks []xmrig.Benchmark) (float64, error) {
	found := false
	var best float64
	for _, b := range benchmarks {
		if b.CPU.Packages != 1 {
			continue
		}
		if !found || b.Hashrate > best {
			best = b.Hashrate
			found = true
		}
	}
	if !found {
		return 0, ErrNoSinglePackage
	}
	return best, nil
}

// Refine looks up every candidate sequentially, waiting the configured delay
// before each lookup after the first. The returned slice has the same order
// and names as `candidates`; candidates that failed are flagged unrefined
// and their errors returned alongside. Cancelling `ctx` stops the batch and
// returns the context error instead of a partially refined list.
func (r Refiner) Refine(ctx context.Context, candidates []catalog.Candidate) ([]catalog.Candidate, []error, error) {
	ctx, span := tracer.Start(ctx, "Refiner.Refine")
	defer span.End()
	span.SetAttributes(attribute.Int("refine.candidates", len(candidates)))

	out := make([]catalog.Candidate, len(candidates))
	var failures []error

	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return r.interrupted(span, i, err)
		}
		if i > 0 {
			r.clock.Sleep(r.delay)
		}

		refined, err := r.refineOne(ctx, candidate)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.interrupted(span, i, ctxErr)
			}
			r.tel.ReportWarning(report_refiner_refine, err)
			failures = append(failures, err)
			out[i] = candidate.AsUnrefined()
			continue
		}
		out[i] = refined
	}

	r.tel.ReportCount("refiner.failures", int64(len(failures)))
	return out, failures, nil
}

func (r Refiner) interrupted(span trace.Span, done int, err error) ([]catalog.Candidate, []error, error) {
	span.SetStatus(codes.Error, "interrupted")
	r.tel.ReportWarning(report_refiner_refine, "interrupted", done, err)
	return nil, nil, fmt.Errorf("refine interrupted after %d candidates: %w", done, err)
}

func (r Refiner) refineOne(ctx context.Context, candidate catalog.Candidate) (catalog.Candidate, error) {
	benchmarks, err := r.source.CPUBenchmarks(ctx, candidate.Name)
	if err != nil {
		return candidate, &RefineError{Candidate: candidate.Name, Err: err}
	}
	hashrate, err := PerUnitHashrate(benchmarks)
	if err != nil {
		return candidate, &RefineError{Candidate: candidate.Name, Err: err}
	}
	r.tel.ReportDebug("refined hashrate", candidate.Name, candidate.Hashrate, hashrate)
	return candidate.WithPerUnitHashrate(hashrate), nil
}
