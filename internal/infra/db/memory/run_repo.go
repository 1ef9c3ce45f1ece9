// Package memory keeps run history in process, for service mode without a
// database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ParadiseToken/solhydra/internal/domain/runs"
)

type RunRepository struct {
	mu   sync.RWMutex
	runs map[runs.ID]runs.Record
}

func NewRunRepository() *RunRepository {
	return &RunRepository{runs: make(map[runs.ID]runs.Record)}
}

var _ runs.Repository = (*RunRepository)(nil)

// Save stores a copy of rec.
func (r *RunRepository) Save(_ context.Context, rec *runs.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[rec.ID] = clone(*rec)
	return nil
}

func (r *RunRepository) Get(_ context.Context, id runs.ID) (*runs.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.runs[id]
	if !ok {
		return nil, runs.ErrNotFound
	}
	c := clone(rec)
	return &c, nil
}

// Latest returns the newest runs first; ties break on id.
func (r *RunRepository) Latest(_ context.Context, limit int) ([]*runs.Record, error) {
	r.mu.RLock()
	out := make([]*runs.Record, 0, len(r.runs))
	for _, rec := range r.runs {
		c := clone(rec)
		out = append(out, &c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(rec runs.Record) runs.Record {
	rec.Tools = append([]string(nil), rec.Tools...)
	if rec.FinishedAt != nil {
		t := *rec.FinishedAt
		rec.FinishedAt = &t
	}
	return rec
}
