package prepare

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ParadiseToken/solhydra/internal/domain/optional"
)

type layout struct{ dir string }

func (l layout) ContractsDir() string  { return filepath.Join(l.dir, "contracts") }
func (l layout) FlattenDir() string    { return filepath.Join(l.dir, "flatten") }
func (l layout) CombineDir() string    { return filepath.Join(l.dir, "combine") }
func (l layout) SpecsDir() string      { return filepath.Join(l.dir, "specs") }
func (l layout) MigrationsDir() string { return filepath.Join(l.dir, "migrations") }
func (l layout) ManifestPath() string  { return filepath.Join(l.dir, "package.json") }
func (l layout) LockfilePath() string  { return filepath.Join(l.dir, "package-lock.json") }

// dotTransform writes every .sol file under src into dest using the dotted
// naming convention, prefixed with "flat:" or "comb:".
type dotTransform struct {
	calls    []string
	deps     [][]string
	failWith error
}

func (d *dotTransform) write(tag, src, dest string) error {
	if d.failWith != nil {
		return d.failWith
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return filepath.WalkDir(src, func(p string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(src, p)
		name := strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dest, name), append([]byte(tag), b...), 0o644)
	})
}

func (d *dotTransform) Flatten(_ context.Context, src, dest string, deps []string) error {
	d.calls = append(d.calls, "flatten")
	d.deps = append(d.deps, deps)
	return d.write("flat:", src, dest)
}

func (d *dotTransform) Combine(_ context.Context, src, dest string, deps []string) error {
	d.calls = append(d.calls, "combine")
	d.deps = append(d.deps, deps)
	return d.write("comb:", src, dest)
}

func mkfile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPrepareBuildsThreeTrees(t *testing.T) {
	src := t.TempDir()
	mkfile(t, filepath.Join(src, "Token.sol"), "token")
	mkfile(t, filepath.Join(src, "Governance", "Leader", "LeaderGov.sol"), "gov")
	deps := t.TempDir()

	ws := layout{dir: t.TempDir()}
	tr := &dotTransform{}
	p := &Preparer{Transform: tr}
	if err := p.Prepare(context.Background(), ws, Sources{Contracts: src, Dependencies: []string{deps}}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	checks := map[string]string{
		filepath.Join(ws.ContractsDir(), "Governance", "Leader", "LeaderGov.sol"): "gov",
		filepath.Join(ws.FlattenDir(), "Governance.Leader.LeaderGov.sol"):         "flat:gov",
		filepath.Join(ws.CombineDir(), "Token.sol"):                               "comb:token",
	}
	for p, want := range checks {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if string(b) != want {
			t.Errorf("%s: got %q want %q", p, b, want)
		}
	}
	if strings.Join(tr.calls, ",") != "flatten,combine" {
		t.Errorf("calls: %v", tr.calls)
	}
	if len(tr.deps[0]) != 1 || tr.deps[0][0] != deps {
		t.Errorf("deps not forwarded: %v", tr.deps)
	}

	// The source tree is untouched.
	entries, _ := os.ReadDir(src)
	if len(entries) != 2 {
		t.Errorf("source tree mutated: %d entries", len(entries))
	}
}

func TestPrepareMissingContractsIsFatal(t *testing.T) {
	ws := layout{dir: t.TempDir()}
	tr := &dotTransform{}
	p := &Preparer{Transform: tr}
	err := p.Prepare(context.Background(), ws, Sources{Contracts: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, ErrPreparation) {
		t.Fatalf("expected ErrPreparation, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Error("transform must not run when contracts are missing")
	}
}

func TestPrepareMissingDependencyIsFatal(t *testing.T) {
	src := t.TempDir()
	mkfile(t, filepath.Join(src, "A.sol"), "a")
	p := &Preparer{Transform: &dotTransform{}}
	err := p.Prepare(context.Background(), layout{dir: t.TempDir()}, Sources{
		Contracts:    src,
		Dependencies: []string{filepath.Join(src, "nope")},
	})
	if !errors.Is(err, ErrPreparation) {
		t.Fatalf("expected ErrPreparation, got %v", err)
	}
}

func TestPrepareTransformFailure(t *testing.T) {
	src := t.TempDir()
	mkfile(t, filepath.Join(src, "A.sol"), "a")
	boom := errors.New("boom")
	p := &Preparer{Transform: &dotTransform{failWith: boom}}
	err := p.Prepare(context.Background(), layout{dir: t.TempDir()}, Sources{Contracts: src})
	var pErr *PreparationError
	if !errors.As(err, &pErr) || pErr.Step != "flatten" || !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPrepareProjectFiles(t *testing.T) {
	proj := t.TempDir()
	mkfile(t, filepath.Join(proj, "contracts", "A.sol"), "a")
	mkfile(t, filepath.Join(proj, "package.json"), `{"name":"x"}`)
	mkfile(t, filepath.Join(proj, "package-lock.json"), `{"lockfileVersion":2}`)
	mkfile(t, filepath.Join(proj, "specs", "a.spec"), "spec")
	mkfile(t, filepath.Join(proj, "migrations", "1_initial.js"), "mig")

	ws := layout{dir: t.TempDir()}
	p := &Preparer{Transform: &dotTransform{}}
	err := p.Prepare(context.Background(), ws, Sources{
		Contracts:  filepath.Join(proj, "contracts"),
		Manifest:   optional.Some(filepath.Join(proj, "package.json")),
		Specs:      optional.Some(filepath.Join(proj, "specs")),
		Migrations: optional.Some(filepath.Join(proj, "migrations")),
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	for _, p := range []string{
		ws.ManifestPath(),
		ws.LockfilePath(),
		filepath.Join(ws.SpecsDir(), "a.spec"),
		filepath.Join(ws.MigrationsDir(), "1_initial.js"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
}

func TestPrepareMissingLockfileIsSkipped(t *testing.T) {
	proj := t.TempDir()
	mkfile(t, filepath.Join(proj, "contracts", "A.sol"), "a")
	mkfile(t, filepath.Join(proj, "package.json"), `{}`)

	ws := layout{dir: t.TempDir()}
	p := &Preparer{Transform: &dotTransform{}}
	err := p.Prepare(context.Background(), ws, Sources{
		Contracts: filepath.Join(proj, "contracts"),
		Manifest:  optional.Some(filepath.Join(proj, "package.json")),
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := os.Stat(ws.LockfilePath()); !os.IsNotExist(err) {
		t.Errorf("lockfile should not exist: %v", err)
	}
}

func TestPrepareSuppliedManifestMissingIsFatal(t *testing.T) {
	src := t.TempDir()
	mkfile(t, filepath.Join(src, "A.sol"), "a")
	p := &Preparer{Transform: &dotTransform{}}
	err := p.Prepare(context.Background(), layout{dir: t.TempDir()}, Sources{
		Contracts: src,
		Manifest:  optional.Some(filepath.Join(src, "package.json")),
	})
	var pErr *PreparationError
	if !errors.As(err, &pErr) || pErr.Step != "manifest" {
		t.Fatalf("expected manifest PreparationError, got %v", err)
	}
}
