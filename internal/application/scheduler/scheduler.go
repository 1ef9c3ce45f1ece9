// Package scheduler validates a tool selection and runs it through the
// orchestration layer as one blocking unit.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

// Layout is the subset of workspace paths the scheduler binds into tools.
type Layout interface {
	Token() string
	InputDir() string
	OutputDir() string
	ToolOutputDir(tool string) string
	ComposeFile() string
}

type Scheduler struct {
	Registry      tools.Registry
	Orchestrator  tools.Orchestrator
	ProjectPrefix string
	Logger        *log.Logger
}

// Plan resolves requested names against the enabled set. It starts nothing
// and is meant to run before a workspace exists.
func (s *Scheduler) Plan(requested []string) ([]tools.Spec, error) {
	return s.Registry.Resolve(requested)
}

// Job describes the orchestration request for ws.
func (s *Scheduler) Job(ws Layout, specs []tools.Spec) tools.Job {
	prefix := s.ProjectPrefix
	if prefix == "" {
		prefix = "solhydra"
	}
	return tools.Job{
		Project:     prefix + "-" + ws.Token(),
		ComposeFile: ws.ComposeFile(),
		InputDir:    ws.InputDir(),
		OutputDir:   ws.OutputDir(),
		Tools:       specs,
	}
}

// Run creates one output directory per tool and blocks until the
// orchestrator reports. Any non-zero aggregate status is a JobExecutionError.
func (s *Scheduler) Run(ctx context.Context, ws Layout, specs []tools.Spec) error {
	job := s.Job(ws, specs)
	for _, spec := range specs {
		// Tool containers run as arbitrary users; the umask must not apply.
		dir := ws.ToolOutputDir(spec.Name)
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return fmt.Errorf("create output dir for %s: %w", spec.Name, err)
		}
		if err := os.Chmod(dir, 0o777); err != nil {
			return fmt.Errorf("open output dir for %s: %w", spec.Name, err)
		}
	}

	start := time.Now()
	s.logf("stage=schedule project=%s tools=%v", job.Project, job.ToolNames())
	code, err := s.Orchestrator.Run(ctx, job)
	s.logf("stage=schedule project=%s exit=%d duration=%s", job.Project, code, time.Since(start).Round(time.Millisecond))
	if err != nil {
		return &tools.JobExecutionError{Tools: job.ToolNames(), ExitCode: code, Err: err}
	}
	if code != 0 {
		return &tools.JobExecutionError{Tools: job.ToolNames(), ExitCode: code}
	}
	return nil
}

// Stop asks the orchestrator to tear down whatever the job left running.
func (s *Scheduler) Stop(ctx context.Context, ws Layout, specs []tools.Spec) error {
	return s.Orchestrator.Stop(ctx, s.Job(ws, specs))
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
