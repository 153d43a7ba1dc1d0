package history

import (
	"context"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/internal/history/db"
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/search"
	"cpuvalue/internal/vendors"
	"cpuvalue/pkg/migrations"
	"database/sql"
	"fmt"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cpuvalue/internal/history")

const report_db_query = "db.query"

// Observation is a single listing seen for a processor during a run.
type Observation struct {
	RunID    string
	CPU      string
	Hashrate float64
	Tier     string
	Listing  search.Listing
	Observed time.Time
}

type Run struct {
	ID           string
	Started      time.Time
	Observations int64
}

// Open opens (and migrates) the history database at `path`, which is a
// sqlite file or a libsql url.
func Open(path string) (*sql.DB, error) {
	return migrations.OpenAndMigrateDB(db.Schema, path)
}

// Store is a log of every listing observed per run.
type Store struct {
	db    *sql.DB
	qry   *db.Queries
	clock chrono.API
	tel   telemetry.API
}

func NewStore(database *sql.DB, clock chrono.API, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(clock)
	assert.NotNil(tel)
	return Store{
		db:    database,
		qry:   db.New(database),
		clock: clock,
		tel:   telemetry.NewScopedAPI("history", tel),
	}
}

// RunRecorder records the listings of a single run.
type RunRecorder struct {
	store Store
	id    string
}

// StartRun creates a new run with a random id.
func (s Store) StartRun(ctx context.Context) (*RunRecorder, error) {
	id, err := random.String(8)
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	param := db.CreateRunParams{
		ID:        id,
		StartedAt: s.clock.Now().Unix(),
	}
	err = s.qry.CreateRun(ctx, param)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateRun", param)
		return nil, err
	}
	return &RunRecorder{store: s, id: id}, nil
}

func (r *RunRecorder) ID() string {
	return r.id
}

// Record stores every listing of `record` in a single transaction.
func (r *RunRecorder) Record(ctx context.Context, record pipeline.Record) error {
	s := r.store

	ctx, span := tracer.Start(ctx, "RunRecorder.Record")
	defer span.End()
	span.SetAttributes(
		attribute.String("history.run", r.id),
		attribute.String("history.cpu", record.Candidate.Name),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	now := s.clock.Now().Unix()
	tiers := []struct {
		tier     vendors.Tier
		listings []search.Listing
	}{
		{vendors.TIER_APPROVED, record.Approved},
		{vendors.TIER_UNVERIFIED, record.Unverified},
		{vendors.TIER_UNKNOWN, record.Unknown},
	}
	for _, t := range tiers {
		for _, listing := range t.listings {
			price := sql.NullInt64{Int64: int64(listing.Price), Valid: !listing.Unparsable()}
			param := db.CreateObservationParams{
				RunID:      r.id,
				Cpu:        record.Candidate.Name,
				Hashrate:   record.Candidate.EffectiveHashrate(),
				Tier:       t.tier.String(),
				Title:      listing.Title,
				Price:      price,
				Source:     listing.Source,
				Link:       listing.Link,
				ObservedAt: now,
			}
			err := txqry.CreateObservation(ctx, param)
			if err != nil {
				s.tel.ReportBroken(report_db_query, err, "CreateObservation", param.Cpu)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		}
	}

	return tx.Commit()
}

// ForCPU returns every observation for the processor named `cpu`, oldest
// first and cheapest first within a run.
func (s Store) ForCPU(ctx context.Context, cpu string) ([]Observation, error) {
	rows, err := s.qry.GetCpuObservations(ctx, cpu)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetCpuObservations", cpu)
		return nil, err
	}

	out := make([]Observation, len(rows))
	for i, row := range rows {
		price := search.PriceUnparsable
		if row.Price.Valid {
			price = int(row.Price.Int64)
		}
		out[i] = Observation{
			RunID:    row.RunID,
			CPU:      row.Cpu,
			Hashrate: row.Hashrate,
			Tier:     row.Tier,
			Listing: search.Listing{
				Title:  row.Title,
				Price:  price,
				Source: row.Source,
				Link:   row.Link,
			},
			Observed: time.Unix(row.ObservedAt, 0),
		}
	}
	return out, nil
}

// Runs lists every recorded run, most recent first.
func (s Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.qry.GetRuns(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetRuns")
		return nil, err
	}
	out := make([]Run, len(rows))
	for i, row := range rows {
		out[i] = Run{
			ID:           row.ID,
			Started:      time.Unix(row.StartedAt, 0),
			Observations: row.Observations,
		}
	}
	return out, nil
}
