package runs

import (
	"time"
)

// ID identifies one pipeline invocation.
type ID string

// Status enum
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Record summarizes one invocation for history and the HTTP service.
type Record struct {
	ID         ID         `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Source     string     `json:"source"`
	Tools      []string   `json:"tools"`
	Status     Status     `json:"status"`
	Contracts  int        `json:"contracts"`
	ReportPath string     `json:"report_path,omitempty"`
	ReportURL  string     `json:"report_url,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
}

// Finish stamps the terminal status.
func (r *Record) Finish(at time.Time, err error) {
	r.FinishedAt = &at
	r.DurationMS = at.Sub(r.StartedAt).Milliseconds()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusSuccess
}
