package pipeline

import (
	"context"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/search"
	"cpuvalue/internal/vendors"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cpuvalue/internal/pipeline")

const (
	report_orchestrator_search = "orchestrator.search"
	report_orchestrator_record = "orchestrator.record"
)

type Phase int

const (
	PHASE_IDLE Phase = iota
	PHASE_SEARCHING
	PHASE_RATE_LIMITED
	PHASE_INTERRUPTED
	PHASE_DONE
)

func (p Phase) String() string {
	switch p {
	case PHASE_IDLE:
		return "idle"
	case PHASE_SEARCHING:
		return "searching"
	case PHASE_RATE_LIMITED:
		return "rate_limited"
	case PHASE_INTERRUPTED:
		return "interrupted"
	case PHASE_DONE:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Status int

const (
	STATUS_DONE Status = iota
	STATUS_RATE_LIMITED
	STATUS_INTERRUPTED
)

func (s Status) String() string {
	switch s {
	case STATUS_DONE:
		return "done"
	case STATUS_RATE_LIMITED:
		return "rate limited"
	case STATUS_INTERRUPTED:
		return "interrupted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Searcher issues one price search for a processor name.
type Searcher interface {
	Search(ctx context.Context, name string) ([]search.Listing, error)
}

// Recorder observes every record appended to the archive.
type Recorder interface {
	Record(ctx context.Context, record Record) error
}

type Options struct {
	// optional
	Recorder Recorder
	// optional, called after every processed candidate
	Progress func(done, total int)
}

// Outcome is the result of a run that stopped without a fatal error.
type Outcome struct {
	Status Status
	State  State
	// Cause is the rate limit or context error that stopped the run early.
	Cause error
}

type Orchestrator struct {
	searcher   Searcher
	classifier vendors.Classifier
	store      Store
	opts       Options
	tel        telemetry.API
	phase      Phase
}

func NewOrchestrator(
	searcher Searcher,
	classifier vendors.Classifier,
	store Store,
	opts Options,
	tel telemetry.API,
) *Orchestrator {
	assert.NotNil(searcher)
	assert.NotNil(tel)
	return &Orchestrator{
		searcher:   searcher,
		classifier: classifier,
		store:      store,
		opts:       opts,
		tel:        telemetry.NewScopedAPI("pipeline", tel),
		phase:      PHASE_IDLE,
	}
}

func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Run searches every candidate of `state` that has no record yet, in order.
//
// A rate limit or a cancelled context saves the checkpoint and returns an
// Outcome with the matching status. When every candidate is processed the
// results are saved and the checkpoint deleted. Errors are only returned for
// an invalid state or a failure to persist.
func (o *Orchestrator) Run(ctx context.Context, state State) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.Run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("pipeline.candidates", len(state.Candidates)),
		attribute.Int("pipeline.resumed_at", len(state.Archive)),
	)

	err := state.Validate()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}

	o.phase = PHASE_SEARCHING
	if len(state.Archive) > 0 {
		o.tel.ReportDebug("resuming", len(state.Archive), len(state.Candidates))
	}

	for i := len(state.Archive); i < len(state.Candidates); i++ {
		candidate := state.Candidates[i]

		if ctx.Err() != nil {
			return o.interrupt(state, PHASE_INTERRUPTED, STATUS_INTERRUPTED, ctx.Err())
		}

		listings, err := o.searcher.Search(ctx, candidate.Name)

		var rateLimited *search.RateLimitedError
		if errors.As(err, &rateLimited) {
			return o.interrupt(state, PHASE_RATE_LIMITED, STATUS_RATE_LIMITED, err)
		}
		if err != nil && ctx.Err() != nil {
			return o.interrupt(state, PHASE_INTERRUPTED, STATUS_INTERRUPTED, ctx.Err())
		}

		var record Record
		if err != nil {
			o.tel.ReportWarning(report_orchestrator_search, err)
			record = Record{Candidate: candidate}
		} else {
			record = NewRecord(candidate, o.classifier.Classify(listings))
			if !record.Known() {
				o.tel.ReportWarning(
					report_orchestrator_search,
					fmt.Errorf("no known vendors for %q", candidate.Name),
					len(record.Unknown),
				)
				record = Record{Candidate: candidate, Unknown: record.Unknown}
			}
		}

		state.Archive = append(state.Archive, record)

		if o.opts.Recorder != nil {
			err := o.opts.Recorder.Record(ctx, record)
			if err != nil {
				o.tel.ReportWarning(report_orchestrator_record, err, candidate.Name)
			}
		}
		if o.opts.Progress != nil {
			o.opts.Progress(len(state.Archive), len(state.Candidates))
		}
	}

	o.phase = PHASE_DONE
	err = o.store.SaveResults(state)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}
	err = o.store.DeleteCheckpoint()
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Status: STATUS_DONE, State: state}, nil
}

func (o *Orchestrator) interrupt(state State, phase Phase, status Status, cause error) (Outcome, error) {
	o.phase = phase
	o.tel.ReportWarning(
		report_orchestrator_search,
		fmt.Errorf("stopped after %d of %d candidates: %w", len(state.Archive), len(state.Candidates), cause),
	)
	err := o.store.SaveCheckpoint(state)
	if err != nil {
		return Outcome{}, fmt.Errorf("save checkpoint: %w", err)
	}
	return Outcome{Status: status, State: state, Cause: cause}, nil
}
