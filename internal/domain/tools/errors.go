package tools

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTool  = errors.New("unknown tool")
	ErrJobExecution = errors.New("job execution failed")
)

// UnknownToolError rejects requested names outside the enabled set. It is
// raised before any process starts.
type UnknownToolError struct {
	Names []string
	Known []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("%s: %s (allowed: %s)", ErrUnknownTool, strings.Join(e.Names, ", "), strings.Join(e.Known, ", "))
}

func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// JobExecutionError is a non-zero aggregate status from the orchestration
// layer, or a failure to launch it at all.
type JobExecutionError struct {
	Tools    []string
	ExitCode int
	Err      error
}

func (e *JobExecutionError) Error() string {
	msg := fmt.Sprintf("%s: tools [%s]", ErrJobExecution, strings.Join(e.Tools, ", "))
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s exited with status %d", msg, e.ExitCode)
}

func (e *JobExecutionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrJobExecution, e.Err}
	}
	return []error{ErrJobExecution}
}
