package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ParadiseToken/solhydra/internal/domain/runs"
)

const schema = `
CREATE TABLE IF NOT EXISTS solhydra_runs (
  id           VARCHAR(64)  NOT NULL PRIMARY KEY,
  started_at   DATETIME(3)  NOT NULL,
  finished_at  DATETIME(3)  NULL,
  source       VARCHAR(1024) NOT NULL,
  tools        VARCHAR(512) NOT NULL,
  status       VARCHAR(16)  NOT NULL,
  contracts    INT          NOT NULL DEFAULT 0,
  report_path  VARCHAR(1024) NOT NULL DEFAULT '',
  report_url   VARCHAR(1024) NOT NULL DEFAULT '',
  duration_ms  BIGINT       NOT NULL DEFAULT 0,
  error        TEXT         NULL,
  KEY idx_started_at (started_at)
)`

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

var _ runs.Repository = (*RunRepository)(nil)

// EnsureSchema creates the runs table when missing.
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
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 finished_at=VALUES(finished_at), status=VALUES(status), contracts=VALUES(contracts),
 report_path=VALUES(report_path), report_url=VALUES(report_url),
 duration_ms=VALUES(duration_ms), error=VALUES(error);
`
	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, started, nullTime(rec.FinishedAt), stringOrDash(rec.Source), joinTools(rec.Tools),
		stringOrDash(string(rec.Status)), rec.Contracts,
		rec.ReportPath, rec.ReportURL, rec.DurationMS, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

const selectCols = `id, started_at, finished_at, source, tools, status, contracts,
       report_path, report_url, duration_ms, COALESCE(error, '')`

func (r *RunRepository) Get(ctx context.Context, id runs.ID) (*runs.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM solhydra_runs WHERE id=? LIMIT 1`, id)
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
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectCols+` FROM solhydra_runs ORDER BY started_at DESC LIMIT ?`, limit)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*runs.Record, error) {
	var (
		rec      runs.Record
		finished sql.NullTime
		tools    string
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
	rec.Tools = splitTools(tools)
	return &rec, nil
}
