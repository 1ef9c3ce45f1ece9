package runs

import (
	"errors"
	"testing"
	"time"
)

func TestFinish(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Record{ID: "x", StartedAt: start, Status: StatusRunning}
	r.Finish(start.Add(1500*time.Millisecond), nil)
	if r.Status != StatusSuccess || r.DurationMS != 1500 || r.FinishedAt == nil {
		t.Errorf("unexpected record: %+v", r)
	}

	r = &Record{ID: "y", StartedAt: start, Status: StatusRunning}
	r.Finish(start.Add(time.Second), errors.New("boom"))
	if r.Status != StatusFailed || r.Error != "boom" {
		t.Errorf("unexpected record: %+v", r)
	}
}
