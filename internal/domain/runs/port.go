package runs

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Repository.Get for an unknown id.
var ErrNotFound = errors.New("run not found")

// Repository port (run history persistence)
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id ID) (*Record, error)
	Latest(ctx context.Context, limit int) ([]*Record, error)
}

// ArtifactStore port (rendered report archive)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
