// Package transform shells out to the flatten and combine tooling.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
)

// Placeholders recognised in command arguments.
const (
	PlaceholderSrc  = "{src}"
	PlaceholderDest = "{dest}"
	PlaceholderDeps = "{deps}"
)

// Command is an external program invoked with expanded arguments.
type Command struct {
	Name string
	Args []string
}

// Expand substitutes placeholders. An argument that is exactly {deps}
// becomes one argument per dependency directory and disappears when there
// are none.
func (c Command) Expand(src, dest string, deps []string) []string {
	out := make([]string, 0, len(c.Args)+len(deps))
	for _, a := range c.Args {
		if a == PlaceholderDeps {
			out = append(out, deps...)
			continue
		}
		a = strings.ReplaceAll(a, PlaceholderSrc, src)
		a = strings.ReplaceAll(a, PlaceholderDest, dest)
		a = strings.ReplaceAll(a, PlaceholderDeps, strings.Join(deps, ","))
		out = append(out, a)
	}
	return out
}

// CommandTransformer runs one configured command per transform.
type CommandTransformer struct {
	FlattenCmd Command
	CombineCmd Command
	Logger     *log.Logger
}

func (t *CommandTransformer) Flatten(ctx context.Context, src, dest string, deps []string) error {
	return t.run(ctx, "flatten", t.FlattenCmd, src, dest, deps)
}

func (t *CommandTransformer) Combine(ctx context.Context, src, dest string, deps []string) error {
	return t.run(ctx, "combine", t.CombineCmd, src, dest, deps)
}

func (t *CommandTransformer) run(ctx context.Context, step string, c Command, src, dest string, deps []string) error {
	if c.Name == "" {
		return fmt.Errorf("%s: no command configured", step)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	args := c.Expand(src, dest, deps)
	if t.Logger != nil {
		t.Logger.Printf("transform step=%s cmd=%s args=%q", step, c.Name, args)
	}
	out, err := exec.CommandContext(ctx, c.Name, args...).CombinedOutput()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return fmt.Errorf("%s exited with status %d: %s", step, ee.ExitCode(), strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}
