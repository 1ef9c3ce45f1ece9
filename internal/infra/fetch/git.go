// Package fetch pulls a remote project into a workspace and installs its
// node dependencies.
package fetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Fetcher shells out to git and npm.
type Fetcher struct {
	Git    string
	NPM    string
	Logger *log.Logger
}

func New(git, npm string, logger *log.Logger) *Fetcher {
	if git == "" {
		git = "git"
	}
	if npm == "" {
		npm = "npm"
	}
	return &Fetcher{Git: git, NPM: npm, Logger: logger}
}

// Fetch shallow-clones url into dest. When the checkout has a package.json
// its dependencies are installed in place so node_modules can serve as a
// dependency root.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := f.run(ctx, "", f.Git, "clone", "--depth", "1", "--", url, dest); err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "package.json")); err == nil {
		if err := f.run(ctx, dest, f.NPM, "install", "--ignore-scripts", "--no-audit", "--no-fund"); err != nil {
			return fmt.Errorf("npm install: %w", err)
		}
	}
	return nil
}

func (f *Fetcher) run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if f.Logger != nil {
		f.Logger.Printf("fetch cmd=%s %s dir=%s", name, args[0], dir)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
