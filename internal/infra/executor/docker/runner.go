// Package docker runs a tool job as a docker compose project, one service per
// tool.
package docker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

type Runner struct {
	// Binary is the docker CLI, "docker" unless overridden.
	Binary string
	Logger *log.Logger
}

func NewRunner(binary string, logger *log.Logger) *Runner {
	if binary == "" {
		binary = "docker"
	}
	return &Runner{Binary: binary, Logger: logger}
}

var _ tools.Orchestrator = (*Runner)(nil)

// Run writes the compose file and brings the project up in the foreground.
// The returned status is the compose command's own exit code.
func (r *Runner) Run(ctx context.Context, job tools.Job) (int, error) {
	if len(job.Tools) == 0 {
		return 0, errors.New("job has no tools")
	}
	if err := writeCompose(job); err != nil {
		return -1, err
	}

	args := append(r.base(job), "up", "--no-color")
	args = append(args, job.ToolNames()...)
	start := time.Now()
	code, out, err := r.exec(ctx, args)
	r.logf("compose up project=%s exit=%d duration=%dms", job.Project, code, time.Since(start).Milliseconds())
	if err != nil {
		return code, fmt.Errorf("compose up: %w, output=%s", err, tail(out))
	}
	if code != 0 {
		return code, nil
	}
	// up exits 0 even when a service failed; the per-service codes decide.
	return r.serviceStatus(ctx, job)
}

// serviceStatus returns the first non-zero exit code among the job's
// finished services, or 0.
func (r *Runner) serviceStatus(ctx context.Context, job tools.Job) (int, error) {
	args := append(r.base(job), "ps", "--all", "--format", "{{.Service}} {{.ExitCode}}")
	out, err := exec.CommandContext(ctx, r.Binary, args...).Output()
	if err != nil {
		return -1, fmt.Errorf("compose ps: %w", err)
	}
	codes, err := parseExitCodes(out)
	if err != nil {
		return -1, err
	}
	for _, name := range job.ToolNames() {
		if c := codes[name]; c != 0 {
			r.logf("compose project=%s service=%s exit=%d", job.Project, name, c)
			return c, nil
		}
	}
	return 0, nil
}

func parseExitCodes(out []byte) (map[string]int, error) {
	codes := make(map[string]int)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		c, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("compose ps: bad exit code in %q", line)
		}
		codes[fields[0]] = c
	}
	return codes, nil
}

// Stop removes the project's containers. Calling it for a project that never
// started is harmless.
func (r *Runner) Stop(ctx context.Context, job tools.Job) error {
	args := append(r.base(job), "down", "--remove-orphans")
	code, out, err := r.exec(ctx, args)
	if err != nil {
		return fmt.Errorf("compose down: %w, output=%s", err, tail(out))
	}
	if code != 0 {
		return fmt.Errorf("compose down exited with status %d: %s", code, tail(out))
	}
	return nil
}

func (r *Runner) base(job tools.Job) []string {
	return []string{"compose", "-p", job.Project, "-f", job.ComposeFile}
}

// exec returns the process exit code. err is only set when the process could
// not run to completion.
func (r *Runner) exec(ctx context.Context, args []string) (int, []byte, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && ctx.Err() == nil {
			return ee.ExitCode(), out, nil
		}
		return -1, out, err
	}
	return 0, out, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// tail keeps error messages readable when compose is chatty.
func tail(out []byte) string {
	const limit = 2048
	if len(out) > limit {
		return "..." + string(out[len(out)-limit:])
	}
	return string(out)
}
