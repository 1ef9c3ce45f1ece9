package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ParadiseToken/solhydra/internal/domain/runs"
)

const schema = `
CREATE TABLE IF NOT EXISTS solhydra_runs (
  id           TEXT        PRIMARY KEY,
  started_at   TIMESTAMPTZ NOT NULL,
  finished_at  TIMESTAMPTZ NULL,
  source       TEXT        NOT NULL,
  tools        TEXT[]      NOT NULL DEFAULT '{}',
  status       TEXT        NOT NULL,
  contracts    INTEGER     NOT NULL DEFAULT 0,
  report_path  TEXT        NOT NULL DEFAULT '',
  report_url   TEXT        NOT NULL DEFAULT '',
  duration_ms  BIGINT      NOT NULL DEFAULT 0,
  error        TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS solhydra_runs_started_at ON solhydra_runs (started_at DESC);`

type RunRepository struct{ db *sql.DB }

func NewRunRepository(db *sql.DB) *RunRepository { return &RunRepository{db: db} }

var _ runs.Repository = (*RunRepository)(nil)

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save insert/update run record
func (r *RunRepository) Save(ctx context.Context, rec *runs.Record) error {
	const q = `
INSERT INTO solhydra_runs
(id, started_at, finished_at, source, tools, status, contracts,
 report_path, report_url, duration_ms, error)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
 finished_at = EXCLUDED.finished_at,
 status = EXCLUDED.status,
 contracts = EXCLUDED.contracts,
 report_path = EXCLUDED.report_path,
 report_url = EXCLUDED.report_url,
 duration_ms = EXCLUDED.duration_ms,
 error = EXCLUDED.error;`

	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, started, nullTime(rec.FinishedAt), sourceOrDash(rec.Source), pq.Array(rec.Tools), string(rec.Status), rec.Contracts,
		rec.ReportPath, rec.ReportURL, rec.DurationMS, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

const selectCols = `id, started_at, finished_at, source, tools, status, contracts,
       report_path, report_url, duration_ms, error`

func (r *RunRepository) Get(ctx context.Context, id runs.ID) (*runs.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM solhydra_runs WHERE id=$1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, runs.ErrNotFound
	}
	return rec, err
}

// Latest returns the newest runs first.
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]*runs.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectCols+` FROM solhydra_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*runs.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(s interface{ Scan(...any) error }) (*runs.Record, error) {
	var (
		rec      runs.Record
		finished sql.NullTime
		tools    pq.StringArray
	)
	if err := s.Scan(
		&rec.ID, &rec.StartedAt, &finished, &rec.Source, &tools, &rec.Status, &rec.Contracts,
		&rec.ReportPath, &rec.ReportURL, &rec.DurationMS, &rec.Error,
	); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		rec.FinishedAt = &t
	}
	if len(tools) > 0 {
		rec.Tools = []string(tools)
	}
	return &rec, nil
}
