package db

import (
	"context"
	"database/sql"
)

type Run struct {
	ID           string
	StartedAt    int64
	Observations int64
}

type Observation struct {
	RunID      string
	Cpu        string
	Hashrate   float64
	Tier       string
	Title      string
	Price      sql.NullInt64
	Source     string
	Link       string
	ObservedAt int64
}

const createRun = `
INSERT INTO run (id, started_at) VALUES (?, ?)
`

type CreateRunParams struct {
	ID        string
	StartedAt int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.StartedAt)
	return err
}

const createObservation = `
INSERT INTO observation (run_id, cpu, hashrate, tier, title, price, source, link, observed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateObservationParams struct {
	RunID      string
	Cpu        string
	Hashrate   float64
	Tier       string
	Title      string
	Price      sql.NullInt64
	Source     string
	Link       string
	ObservedAt int64
}

func (q *Queries) CreateObservation(ctx context.Context, arg CreateObservationParams) error {
	_, err := q.db.ExecContext(ctx, createObservation,
		arg.RunID,
		arg.Cpu,
		arg.Hashrate,
		arg.Tier,
		arg.Title,
		arg.Price,
		arg.Source,
		arg.Link,
		arg.ObservedAt,
	)
	return err
}

const getCpuObservations = `
SELECT run_id, cpu, hashrate, tier, title, price, source, link, observed_at
FROM observation
WHERE cpu = ?
ORDER BY observed_at ASC, price IS NULL, price ASC
`

func (q *Queries) GetCpuObservations(ctx context.Context, cpu string) ([]Observation, error) {
	rows, err := q.db.QueryContext(ctx, getCpuObservations, cpu)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Observation
	for rows.Next() {
		var i Observation
		if err := rows.Scan(
			&i.RunID,
			&i.Cpu,
			&i.Hashrate,
			&i.Tier,
			&i.Title,
			&i.Price,
			&i.Source,
			&i.Link,
			&i.ObservedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRuns = `
SELECT run.id, run.started_at, count(observation.run_id)
FROM run
LEFT JOIN observation ON observation.run_id = run.id
GROUP BY run.id, run.started_at
ORDER BY run.started_at DESC, run.id ASC
`

func (q *Queries) GetRuns(ctx context.Context) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, getRuns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(&i.ID, &i.StartedAt, &i.Observations); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
