package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"time"
)

type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker pings the run-history database.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// BinaryHealthChecker verifies an external program the pipeline shells out
// to is on PATH.
type BinaryHealthChecker struct {
	Name string
}

func (b BinaryHealthChecker) Check(context.Context) error {
	_, err := exec.LookPath(b.Name)
	return err
}

// DirHealthChecker verifies a directory exists and accepts new files.
type DirHealthChecker struct {
	Dir string
}

func (d DirHealthChecker) Check(context.Context) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(d.Dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

type checkResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthReport struct {
	Status  string        `json:"status"`
	Checked time.Time     `json:"checked_at"`
	Checks  []checkResult `json:"checks"`
}

func runChecks(ctx context.Context, checkers map[string]HealthChecker) healthReport {
	names := make([]string, 0, len(checkers))
	for n := range checkers {
		names = append(names, n)
	}
	sort.Strings(names)

	rep := healthReport{Status: "healthy", Checked: time.Now().UTC(), Checks: make([]checkResult, 0, len(names))}
	for _, n := range names {
		res := checkResult{Name: n, OK: true}
		if err := checkers[n].Check(ctx); err != nil {
			res.OK, res.Error = false, err.Error()
			rep.Status = "unhealthy"
		}
		rep.Checks = append(rep.Checks, res)
	}
	return rep
}

// HealthHandler runs every checker in name order and answers 503 if any fails.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rep := runChecks(ctx, checkers)
		code := http.StatusOK
		if rep.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(rep)
	}
}

// ReadinessHandler answers once the router is serving.
func ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ready"}` + "\n"))
}

func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}
