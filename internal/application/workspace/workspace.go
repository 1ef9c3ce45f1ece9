// Package workspace owns the isolated directory tree of a single run.
//
// Layout:
//
//	<root>/<token>/
//	    input/
//	        contracts/          verbatim copy of the source tree
//	        flatten/            flatten transform output (canonical names)
//	        combine/            combine transform output (canonical names)
//	        specs/ migrations/  optional project files
//	        package.json package-lock.json
//	    output/<tool>/          one directory per scheduled tool
//	    repo/                   remote checkout, when fetching
//	    compose.yaml            orchestration file
//
// Nothing outside this package builds these paths by hand.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ParadiseToken/solhydra/internal/application"
)

// Manager hands out run workspaces below Root.
type Manager struct {
	Root  string
	Clock application.Clock
	// NewID generates the random half of a token. Defaults to uuid.NewString.
	NewID func() string
}

// NewManager returns a Manager backed by the system clock.
func NewManager(root string) *Manager {
	return &Manager{Root: root, Clock: application.SystemClock{}}
}

// Acquire creates a workspace under a fresh run-unique token derived from
// the clock and a uuid.
func (m *Manager) Acquire() (*Workspace, error) {
	return m.AcquireWithToken(m.token())
}

// AcquireWithToken creates a workspace for a caller-supplied run id. The
// root is created if needed; an existing workspace with the same token is an
// error, never reused.
func (m *Manager) AcquireWithToken(token string) (*Workspace, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	dir := filepath.Join(m.Root, token)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", token, err)
	}
	ws := &Workspace{token: token, dir: dir}
	for _, sub := range []string{ws.InputDir(), ws.OutputDir()} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			_ = os.RemoveAll(dir)
			return nil, fmt.Errorf("create workspace %s: %w", token, err)
		}
	}
	return ws, nil
}

func (m *Manager) token() string {
	clock := m.Clock
	if clock == nil {
		clock = application.SystemClock{}
	}
	newID := m.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return clock.Now().UTC().Format("20060102-150405") + "-" + newID()
}

func validateToken(token string) error {
	switch {
	case token == "", token == ".", token == "..":
		return fmt.Errorf("invalid workspace token %q", token)
	case strings.ContainsAny(token, `/\`):
		return fmt.Errorf("workspace token %q must not contain path separators", token)
	}
	return nil
}

// Workspace is one run's directory tree. Release is safe to call more than
// once and from a signal path.
type Workspace struct {
	token string
	dir   string

	mu       sync.Mutex
	released bool
}

func (w *Workspace) Token() string { return w.token }
func (w *Workspace) Dir() string   { return w.dir }

func (w *Workspace) InputDir() string      { return filepath.Join(w.dir, "input") }
func (w *Workspace) ContractsDir() string  { return filepath.Join(w.InputDir(), "contracts") }
func (w *Workspace) FlattenDir() string    { return filepath.Join(w.InputDir(), "flatten") }
func (w *Workspace) CombineDir() string    { return filepath.Join(w.InputDir(), "combine") }
func (w *Workspace) SpecsDir() string      { return filepath.Join(w.InputDir(), "specs") }
func (w *Workspace) MigrationsDir() string { return filepath.Join(w.InputDir(), "migrations") }
func (w *Workspace) ManifestPath() string  { return filepath.Join(w.InputDir(), "package.json") }
func (w *Workspace) LockfilePath() string  { return filepath.Join(w.InputDir(), "package-lock.json") }

func (w *Workspace) OutputDir() string { return filepath.Join(w.dir, "output") }

// ToolOutputDir is the write target bound into the named tool.
func (w *Workspace) ToolOutputDir(tool string) string { return filepath.Join(w.OutputDir(), tool) }

func (w *Workspace) RepoDir() string     { return filepath.Join(w.dir, "repo") }
func (w *Workspace) ComposeFile() string { return filepath.Join(w.dir, "compose.yaml") }

// Release removes the whole tree. A tree that is already gone is not an error.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove workspace %s: %w", w.token, err)
	}
	w.released = true
	return nil
}
