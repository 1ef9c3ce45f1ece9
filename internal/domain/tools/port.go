package tools

import "context"

// Job is one orchestration request: every listed tool runs against the same
// read-only input tree and writes into OutputDir/<tool>.
type Job struct {
	// Project isolates concurrent runs from each other.
	Project     string
	ComposeFile string
	InputDir    string
	OutputDir   string
	Tools       []Spec
}

// ToolNames lists the job's tools in order.
func (j Job) ToolNames() []string {
	out := make([]string, len(j.Tools))
	for i, s := range j.Tools {
		out[i] = s.Name
	}
	return out
}

// Orchestrator runs a job's tools as isolated units and blocks until all of
// them have terminated, returning one aggregate exit status.
type Orchestrator interface {
	Run(ctx context.Context, job Job) (int, error)
	// Stop asks any still-running tool of the job to terminate. It must be
	// safe to call when nothing is running.
	Stop(ctx context.Context, job Job) error
}
