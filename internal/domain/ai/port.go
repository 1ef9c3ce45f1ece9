// Package ai is the port for the optional triage summary.
package ai

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned when the provider rejects a request for rate
// or billing limits. Callers treat it like any other summary failure.
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// Client produces a short triage summary from a plain-text digest of tool
// findings.
type Client interface {
	Summarize(ctx context.Context, digest string) (string, error)
}
