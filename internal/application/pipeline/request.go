package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ParadiseToken/solhydra/internal/application/prepare"
	"github.com/ParadiseToken/solhydra/internal/domain/optional"
)

// Project convention names, relative to a project root.
const (
	ProjectContracts  = "contracts"
	ProjectNPMDeps    = "node_modules"
	ProjectEthPMDeps  = "installed_contracts"
	ProjectManifest   = "package.json"
	ProjectSpecs      = "specs"
	ProjectMigrations = "migrations"
)

// Mode is the kind of input a request names.
type Mode string

const (
	ModeContracts Mode = "contracts"
	ModeProject   Mode = "project"
	ModeRepo      Mode = "repo"
)

// Request is one report generation. Exactly one of ContractsDir, ProjectDir
// and RepoURL must be set.
type Request struct {
	ContractsDir optional.Value[string] `json:"contracts_dir"`
	ProjectDir   optional.Value[string] `json:"project_dir"`
	RepoURL      optional.Value[string] `json:"repo_url"`

	// NPMDir and EthPMDir are dependency roots handed to the transforms.
	// In project mode they override the conventional locations.
	NPMDir   optional.Value[string] `json:"npm_dir"`
	EthPMDir optional.Value[string] `json:"ethpm_dir"`

	// Tools selects a subset of the enabled tools; empty means all.
	Tools []string `json:"tools"`

	// Destination is the report file. ".html" is appended when it has no
	// extension.
	Destination string `json:"destination"`

	// RunID pins the workspace token. Empty means generate one.
	RunID string `json:"run_id,omitempty"`
}

// Mode validates the input selection.
func (r Request) Mode() (Mode, error) {
	var modes []Mode
	if r.ContractsDir.Present() {
		modes = append(modes, ModeContracts)
	}
	if r.ProjectDir.Present() {
		modes = append(modes, ModeProject)
	}
	if r.RepoURL.Present() {
		modes = append(modes, ModeRepo)
	}
	switch len(modes) {
	case 1:
		return modes[0], nil
	case 0:
		return "", invalid("input", "one of contracts dir, project dir or repo url is required", nil)
	default:
		return "", invalid("input", "contracts dir, project dir and repo url are mutually exclusive", nil)
	}
}

// Source describes the input for logs and run records.
func (r Request) Source() string {
	for _, v := range []optional.Value[string]{r.RepoURL, r.ProjectDir, r.ContractsDir} {
		if s, ok := v.Get(); ok {
			return s
		}
	}
	return ""
}

// NormalizeDestination appends ".html" when path has no extension.
func NormalizeDestination(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".html"
	}
	return path
}

// contractsSources resolves a plain contracts directory.
func contractsSources(r Request) (prepare.Sources, error) {
	dir := r.ContractsDir.Value()
	if err := isDir(dir); err != nil {
		return prepare.Sources{}, invalid("contracts", dir, err)
	}
	deps, err := explicitDeps(r)
	if err != nil {
		return prepare.Sources{}, err
	}
	return prepare.Sources{Contracts: dir, Dependencies: deps}, nil
}

// projectSources resolves the conventional project layout below root.
// Optional parts are included only when present on disk.
func projectSources(root string, r Request) (prepare.Sources, error) {
	src := prepare.Sources{Contracts: filepath.Join(root, ProjectContracts)}
	if err := isDir(src.Contracts); err != nil {
		return prepare.Sources{}, invalid("project", "no contracts directory", err)
	}
	for _, dep := range []struct {
		override optional.Value[string]
		name     string
		field    string
	}{
		{r.NPMDir, ProjectNPMDeps, "npm"},
		{r.EthPMDir, ProjectEthPMDeps, "ethpm"},
	} {
		if dir, ok := dep.override.Get(); ok {
			if err := isDir(dir); err != nil {
				return prepare.Sources{}, invalid(dep.field, dir, err)
			}
			src.Dependencies = append(src.Dependencies, dir)
			continue
		}
		if p := filepath.Join(root, dep.name); isDir(p) == nil {
			src.Dependencies = append(src.Dependencies, p)
		}
	}
	src.Manifest = existing(filepath.Join(root, ProjectManifest), false)
	src.Specs = existing(filepath.Join(root, ProjectSpecs), true)
	src.Migrations = existing(filepath.Join(root, ProjectMigrations), true)
	return src, nil
}

func explicitDeps(r Request) ([]string, error) {
	var deps []string
	for _, dep := range []struct {
		v     optional.Value[string]
		field string
	}{{r.NPMDir, "npm"}, {r.EthPMDir, "ethpm"}} {
		if dir, ok := dep.v.Get(); ok {
			if err := isDir(dir); err != nil {
				return nil, invalid(dep.field, dir, err)
			}
			deps = append(deps, dir)
		}
	}
	return deps, nil
}

func existing(path string, wantDir bool) optional.Value[string] {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() != wantDir {
		return optional.None[string]()
	}
	return optional.Some(path)
}

var errNotDir = errors.New("not a directory")

func isDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return fs.ErrInvalid
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errNotDir
	}
	return nil
}
