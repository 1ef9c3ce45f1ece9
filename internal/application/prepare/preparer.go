// Package prepare materializes a run's inputs: the verbatim source tree, its
// flattened and combined forms, and optional project files.
package prepare

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/ParadiseToken/solhydra/internal/domain/optional"
)

// LockfileName is the manifest's companion, looked up next to it.
const LockfileName = "package-lock.json"

// Transformer is the external flatten/combine collaborator. Both calls must
// be idempotent and write files under canonical dotted names.
type Transformer interface {
	Flatten(ctx context.Context, src, dest string, deps []string) error
	Combine(ctx context.Context, src, dest string, deps []string) error
}

// Layout is the subset of workspace paths the preparer writes to.
type Layout interface {
	ContractsDir() string
	FlattenDir() string
	CombineDir() string
	SpecsDir() string
	MigrationsDir() string
	ManifestPath() string
	LockfilePath() string
}

// Sources are the caller's inputs. Only Contracts is required.
type Sources struct {
	Contracts    string
	Dependencies []string
	Manifest     optional.Value[string]
	Specs        optional.Value[string]
	Migrations   optional.Value[string]
}

type Preparer struct {
	Transform Transformer
	Logger    *log.Logger
}

// Prepare populates the workspace input area. The source tree is only read.
func (p *Preparer) Prepare(ctx context.Context, ws Layout, src Sources) error {
	if err := requireDir(src.Contracts); err != nil {
		return failed("contracts", err)
	}
	for _, dep := range src.Dependencies {
		if err := requireDir(dep); err != nil {
			return failed("dependencies", err)
		}
	}
	if err := copyDir(src.Contracts, ws.ContractsDir()); err != nil {
		return failed("copy contracts", err)
	}
	p.logf("stage=prepare step=copy src=%s", src.Contracts)

	if err := p.Transform.Flatten(ctx, src.Contracts, ws.FlattenDir(), src.Dependencies); err != nil {
		return failed("flatten", err)
	}
	p.logf("stage=prepare step=flatten dest=%s", ws.FlattenDir())

	if err := p.Transform.Combine(ctx, src.Contracts, ws.CombineDir(), src.Dependencies); err != nil {
		return failed("combine", err)
	}
	p.logf("stage=prepare step=combine dest=%s", ws.CombineDir())

	return p.copyProjectFiles(ws, src)
}

func (p *Preparer) copyProjectFiles(ws Layout, src Sources) error {
	if manifest, ok := src.Manifest.Get(); ok {
		if err := copyFile(manifest, ws.ManifestPath()); err != nil {
			return failed("manifest", err)
		}
		lock := filepath.Join(filepath.Dir(manifest), LockfileName)
		switch err := copyFile(lock, ws.LockfilePath()); {
		case errors.Is(err, fs.ErrNotExist):
			p.logf("stage=prepare step=lockfile skipped=%s", lock)
		case err != nil:
			return failed("lockfile", err)
		}
	}
	if specs, ok := src.Specs.Get(); ok {
		if err := copyDir(specs, ws.SpecsDir()); err != nil {
			return failed("specs", err)
		}
	}
	if migrations, ok := src.Migrations.Get(); ok {
		if err := copyDir(migrations, ws.MigrationsDir()); err != nil {
			return failed("migrations", err)
		}
	}
	return nil
}

func (p *Preparer) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}
