package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/ParadiseToken/solhydra/internal/application"
	appai "github.com/ParadiseToken/solhydra/internal/application/ai"
	"github.com/ParadiseToken/solhydra/internal/application/correlate"
	"github.com/ParadiseToken/solhydra/internal/application/pipeline"
	"github.com/ParadiseToken/solhydra/internal/application/prepare"
	"github.com/ParadiseToken/solhydra/internal/application/scheduler"
	"github.com/ParadiseToken/solhydra/internal/application/workspace"
	"github.com/ParadiseToken/solhydra/internal/config"
	"github.com/ParadiseToken/solhydra/internal/domain/runs"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
	aiopenai "github.com/ParadiseToken/solhydra/internal/infra/ai/openai"
	"github.com/ParadiseToken/solhydra/internal/infra/db/memory"
	mysqlp "github.com/ParadiseToken/solhydra/internal/infra/db/mysql"
	"github.com/ParadiseToken/solhydra/internal/infra/db/postgres"
	"github.com/ParadiseToken/solhydra/internal/infra/executor/docker"
	"github.com/ParadiseToken/solhydra/internal/infra/fetch"
	"github.com/ParadiseToken/solhydra/internal/infra/markdown"
	"github.com/ParadiseToken/solhydra/internal/infra/render"
	"github.com/ParadiseToken/solhydra/internal/infra/storage"
	"github.com/ParadiseToken/solhydra/internal/infra/transform"
	"github.com/ParadiseToken/solhydra/internal/middleware"
)

type app struct {
	svc      *pipeline.Service
	registry tools.Registry
	checkers map[string]middleware.HealthChecker
	db       *sql.DB
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// build wires the pipeline from cfg without touching the network. Optional
// backends are added by attach.
func build(cfg *config.Config, logger *log.Logger) (*app, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	renderer, err := render.New(cfg.Render.Template)
	if err != nil {
		return nil, err
	}
	md := markdown.New()

	svc := &pipeline.Service{
		Workspaces: workspace.NewManager(cfg.Workspace.Root),
		Preparer: &prepare.Preparer{
			Transform: &transform.CommandTransformer{
				FlattenCmd: transform.Command{Name: cfg.Transform.Flatten.Name, Args: cfg.Transform.Flatten.Args},
				CombineCmd: transform.Command{Name: cfg.Transform.Combine.Name, Args: cfg.Transform.Combine.Args},
				Logger:     logger,
			},
			Logger: logger,
		},
		Scheduler: &scheduler.Scheduler{
			Registry:      reg,
			Orchestrator:  docker.NewRunner(cfg.Orchestrator.Binary, logger),
			ProjectPrefix: cfg.Orchestrator.ProjectPrefix,
			Logger:        logger,
		},
		Correlator:  &correlate.Correlator{Registry: reg, Markdown: md},
		Renderer:    renderer,
		Markdown:    md,
		Fetcher:     fetch.New(cfg.Fetch.Git, cfg.Fetch.NPM, logger),
		Clock:       application.SystemClock{},
		Logger:      logger,
		StopTimeout: time.Duration(cfg.Orchestrator.StopTimeoutSeconds) * time.Second,
	}
	return &app{svc: svc, registry: reg, checkers: map[string]middleware.HealthChecker{}}, nil
}

// attach connects run history, the archive and the summarizer. History falls
// back to memory only when inMemoryRuns is set; a CLI run without a database
// keeps no history.
func (a *app) attach(ctx context.Context, cfg *config.Config, inMemoryRuns bool) error {
	svc := a.svc
	repo, err := a.openRuns(ctx, cfg)
	if err != nil {
		return err
	}
	switch {
	case repo != nil:
		svc.Runs = repo
	case inMemoryRuns:
		svc.Runs = memory.NewRunRepository()
	}

	if cfg.MinioEnabled() {
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			a.close()
			return fmt.Errorf("minio init: %w", err)
		}
		store.Presign = time.Duration(cfg.Minio.PresignMinutes) * time.Minute
		svc.Archive = store
	}

	if cfg.AI.APIKey != "" {
		svc.Summarizer = appai.NewService(aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model), cfg.AI.MaxChars)
	}
	return nil
}

type schemaRepository interface {
	runs.Repository
	EnsureSchema(ctx context.Context) error
}

func (a *app) openRuns(ctx context.Context, cfg *config.Config) (runs.Repository, error) {
	var (
		repo schemaRepository
		err  error
	)
	switch cfg.Database.Driver {
	case "":
		return nil, nil
	case "mysql":
		a.db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err == nil {
			repo = mysqlp.NewRunRepository(a.db)
		}
	case "postgres":
		a.db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		if err == nil {
			repo = postgres.NewRunRepository(a.db)
		}
	default:
		return nil, fmt.Errorf("config: unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("%s schema: %w", cfg.Database.Driver, err)
	}
	a.checkers["database"] = &middleware.DatabaseHealthChecker{DB: a.db}
	return repo, nil
}
