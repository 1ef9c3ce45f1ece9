// Package pipeline runs one report generation end to end:
// prepare, schedule, correlate, assemble, render. Stages never overlap, and
// every failure path tears the workspace down before returning.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"time"

	"github.com/ParadiseToken/solhydra/internal/application"
	"github.com/ParadiseToken/solhydra/internal/application/assemble"
	"github.com/ParadiseToken/solhydra/internal/application/correlate"
	"github.com/ParadiseToken/solhydra/internal/application/prepare"
	"github.com/ParadiseToken/solhydra/internal/application/scheduler"
	"github.com/ParadiseToken/solhydra/internal/application/workspace"
	"github.com/ParadiseToken/solhydra/internal/domain/contracts"
	"github.com/ParadiseToken/solhydra/internal/domain/optional"
	"github.com/ParadiseToken/solhydra/internal/domain/report"
	"github.com/ParadiseToken/solhydra/internal/domain/runs"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

type Preparer interface {
	Prepare(ctx context.Context, ws prepare.Layout, src prepare.Sources) error
}

type Scheduler interface {
	Plan(requested []string) ([]tools.Spec, error)
	Run(ctx context.Context, ws scheduler.Layout, specs []tools.Spec) error
	Stop(ctx context.Context, ws scheduler.Layout, specs []tools.Spec) error
}

type Correlator interface {
	Correlate(outputRoot string, ids []contracts.Identity) (correlate.Result, error)
}

type Renderer interface {
	WriteFile(dest string, doc report.Document) error
}

// Fetcher clones a remote project into dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Summarizer produces a markdown triage of a finished model.
type Summarizer interface {
	Summarize(ctx context.Context, m *report.Model) (string, error)
}

// Service wires the stages. Fetcher, Summarizer, Runs and Archive are
// optional.
type Service struct {
	Workspaces *workspace.Manager
	Preparer   Preparer
	Scheduler  Scheduler
	Correlator Correlator
	Renderer   Renderer
	Markdown   correlate.Converter

	Fetcher    Fetcher
	Summarizer Summarizer
	Runs       runs.Repository
	Archive    runs.ArtifactStore

	Clock       application.Clock
	Logger      *log.Logger
	StopTimeout time.Duration
}

// Plan validates req without touching the filesystem beyond stat calls. It
// is what Generate runs first, and what the HTTP service runs before
// queueing.
func (s *Service) Plan(req Request) ([]tools.Spec, error) {
	mode, err := req.Mode()
	if err != nil {
		return nil, err
	}
	if req.Destination == "" {
		return nil, invalid("destination", "output path is required", nil)
	}
	switch mode {
	case ModeContracts:
		if _, err := contractsSources(req); err != nil {
			return nil, err
		}
	case ModeProject:
		if _, err := projectSources(req.ProjectDir.Value(), req); err != nil {
			return nil, err
		}
	case ModeRepo:
		if s.Fetcher == nil {
			return nil, invalid("repo", "remote fetching is not configured", nil)
		}
		if _, err := explicitDeps(req); err != nil {
			return nil, err
		}
	}
	specs, err := s.Scheduler.Plan(req.Tools)
	if err != nil {
		return nil, invalid("tools", "invalid selection", err)
	}
	return specs, nil
}

// Generate runs the whole pipeline and returns the finished run record. On
// failure the record carries the error and no report is written.
func (s *Service) Generate(ctx context.Context, req Request) (*runs.Record, error) {
	specs, err := s.Plan(req)
	if err != nil {
		return nil, err
	}

	var ws *workspace.Workspace
	if req.RunID != "" {
		ws, err = s.Workspaces.AcquireWithToken(req.RunID)
	} else {
		ws, err = s.Workspaces.Acquire()
	}
	if err != nil {
		return nil, &prepare.PreparationError{Step: "workspace", Err: err}
	}

	rec := &runs.Record{
		ID:        runs.ID(ws.Token()),
		StartedAt: s.now(),
		Source:    req.Source(),
		Tools:     names(specs),
		Status:    runs.StatusRunning,
	}
	s.save(rec)
	s.logf("run=%s stage=start source=%s tools=%v", rec.ID, rec.Source, rec.Tools)

	runErr := s.generate(ctx, ws, req, specs, rec)
	s.cleanup(ws, specs)

	rec.Finish(s.now(), runErr)
	s.save(rec)
	if runErr != nil {
		s.logf("run=%s stage=done status=%s error=%q", rec.ID, rec.Status, runErr.Error())
		return rec, runErr
	}
	s.logf("run=%s stage=done status=%s contracts=%d report=%s duration_ms=%d", rec.ID, rec.Status, rec.Contracts, rec.ReportPath, rec.DurationMS)
	return rec, nil
}

func (s *Service) generate(ctx context.Context, ws *workspace.Workspace, req Request, specs []tools.Spec, rec *runs.Record) error {
	src, err := s.sources(ctx, ws, req)
	if err != nil {
		return err
	}

	if err := s.stage(ctx, rec, "prepare", func() error { return s.Preparer.Prepare(ctx, ws, src) }); err != nil {
		return err
	}
	if err := s.stage(ctx, rec, "schedule", func() error { return s.Scheduler.Run(ctx, ws, specs) }); err != nil {
		return err
	}

	var model *report.Model
	err = s.stage(ctx, rec, "correlate", func() error {
		ids, err := correlate.Listing(ws.FlattenDir())
		if err != nil {
			return err
		}
		variants, err := correlate.Variants(ids, ws.ContractsDir(), ws.FlattenDir(), ws.CombineDir())
		if err != nil {
			return err
		}
		res, err := s.Correlator.Correlate(ws.OutputDir(), ids)
		if err != nil {
			return err
		}
		model, err = assemble.Assemble(ids, variants, res.Visible(), res.Outputs)
		return err
	})
	if err != nil {
		return err
	}
	rec.Contracts = model.Len()

	doc := report.Document{
		RunID:       string(rec.ID),
		GeneratedAt: s.now(),
		Model:       model,
		Summary:     s.summary(ctx, rec, model),
	}
	dest := NormalizeDestination(req.Destination)
	if err := s.stage(ctx, rec, "render", func() error { return s.Renderer.WriteFile(dest, doc) }); err != nil {
		return err
	}
	rec.ReportPath = dest
	s.archive(ctx, rec)
	return nil
}

// sources resolves the preparer's inputs. Remote repositories are fetched
// into the workspace first and then read as a project.
func (s *Service) sources(ctx context.Context, ws *workspace.Workspace, req Request) (prepare.Sources, error) {
	mode, _ := req.Mode()
	switch mode {
	case ModeContracts:
		return contractsSources(req)
	case ModeProject:
		return projectSources(req.ProjectDir.Value(), req)
	}
	url := req.RepoURL.Value()
	s.logf("run=%s stage=fetch url=%s", ws.Token(), url)
	if err := s.Fetcher.Fetch(ctx, url, ws.RepoDir()); err != nil {
		return prepare.Sources{}, &prepare.PreparationError{Step: "fetch", Err: err}
	}
	src, err := projectSources(ws.RepoDir(), req)
	if err != nil {
		return prepare.Sources{}, &prepare.PreparationError{Step: "fetch", Err: err}
	}
	return src, nil
}

// stage runs fn unless the run was already cancelled, logging its timing.
func (s *Service) stage(ctx context.Context, rec *runs.Record, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted before %s: %w", name, err)
	}
	start := time.Now()
	s.logf("run=%s stage=%s", rec.ID, name)
	if err := fn(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return fmt.Errorf("%s interrupted: %w", name, errors.Join(ctxErr, err))
		}
		return err
	}
	s.logf("run=%s stage=%s ok duration_ms=%d", rec.ID, name, time.Since(start).Milliseconds())
	return nil
}

// cleanup stops leftover tool containers and removes the workspace. It runs
// on every path, including interrupts, so it uses its own context.
func (s *Service) cleanup(ws *workspace.Workspace, specs []tools.Spec) {
	timeout := s.StopTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Scheduler.Stop(ctx, ws, specs); err != nil {
		s.logf("run=%s stage=cleanup stop_error=%q", ws.Token(), err.Error())
	}
	if err := ws.Release(); err != nil {
		s.logf("run=%s stage=cleanup release_error=%q", ws.Token(), err.Error())
	}
}

func (s *Service) summary(ctx context.Context, rec *runs.Record, m *report.Model) optional.Value[string] {
	if s.Summarizer == nil {
		return optional.None[string]()
	}
	md, err := s.Summarizer.Summarize(ctx, m)
	if err != nil {
		s.logf("run=%s stage=summary error=%q", rec.ID, err.Error())
		return optional.None[string]()
	}
	if s.Markdown != nil {
		return optional.Some(s.Markdown.ToHTML(md))
	}
	return optional.Some(md)
}

func (s *Service) archive(ctx context.Context, rec *runs.Record) {
	if s.Archive == nil {
		return
	}
	url, err := s.Archive.Upload(ctx, rec.ReportPath, ArchiveKey(rec.ID, rec.ReportPath))
	if err != nil {
		s.logf("run=%s stage=archive error=%q", rec.ID, err.Error())
		return
	}
	rec.ReportURL = url
}

func (s *Service) save(rec *runs.Record) {
	if s.Runs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Runs.Save(ctx, rec); err != nil {
		s.logf("run=%s save_error=%q", rec.ID, err.Error())
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// ArchiveKey is the object key a run's document is archived under.
func ArchiveKey(id runs.ID, reportPath string) string {
	return path.Join("reports", string(id), filepath.Base(reportPath))
}

func names(specs []tools.Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
