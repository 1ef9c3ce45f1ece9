package application

import "time"

// Clock lets run timing and workspace tokens be pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
