// Package httpserver exposes report generation and run history over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/ParadiseToken/solhydra/internal/application/pipeline"
	"github.com/ParadiseToken/solhydra/internal/domain/optional"
	"github.com/ParadiseToken/solhydra/internal/domain/runs"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
	"github.com/ParadiseToken/solhydra/internal/middleware"
)

// Generator is the pipeline as seen by the HTTP layer.
type Generator interface {
	Plan(req pipeline.Request) ([]tools.Spec, error)
	Generate(ctx context.Context, req pipeline.Request) (*runs.Record, error)
}

type Options struct {
	Generator      Generator
	Runs           runs.Repository
	Registry       tools.Registry
	ReportsDir     string
	APIKeys        []string
	AllowedOrigins []string
	RateCapacity   int
	RateRefill     int
	Checkers       map[string]middleware.HealthChecker
	Logger         *log.Logger
}

type Server struct {
	opts    Options
	metrics *middleware.Metrics
	limiter *middleware.RateLimiter
	newID   func() string
	now     func() time.Time

	// ctx bounds background runs; cancelling it interrupts them.
	ctx context.Context
	wg  sync.WaitGroup
}

// New builds the server. Background runs started by POST /v1/reports stop
// when ctx is cancelled; Wait blocks until they have cleaned up.
func New(ctx context.Context, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.RateCapacity <= 0 {
		opts.RateCapacity = 10
	}
	if opts.RateRefill <= 0 {
		opts.RateRefill = 1
	}
	s := &Server{
		opts:    opts,
		metrics: middleware.NewMetrics(),
		limiter: middleware.NewRateLimiter(opts.RateCapacity, opts.RateRefill),
		newID:   func() string { return time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString() },
		now:     time.Now,
		ctx:     ctx,
	}
	go s.limiter.Run(ctx)
	return s
}

// Wait blocks until every background run has returned.
func (s *Server) Wait() { s.wg.Wait() }

func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(s.opts.Logger))
	mux.Use(s.metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(s.opts.APIKeys))
	mux.Use(s.limiter.Middleware)

	mux.Get("/health", middleware.HealthHandler(s.opts.Checkers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", s.metrics.Handler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/tools", s.wrap(s.handleTools))
		rt.Post("/reports", s.wrap(s.handleCreate))
		rt.Get("/reports/latest", s.wrap(s.handleLatest))
		rt.Get("/reports/{id}", s.wrap(s.handleGet))
		rt.Get("/reports/{id}/document", s.wrap(s.handleDocument))
	})
	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest is a client error that is not a pipeline configuration error.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.Is(err, runs.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.As(err, &br), errors.Is(err, pipeline.ErrConfiguration):
			writeError(w, http.StatusBadRequest, err)
		default:
			s.opts.Logger.Printf("req=%s error=%q", chimw.GetReqID(req.Context()), err.Error())
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	_ = writeJSON(w, code, map[string]string{"error": err.Error()})
}

// GET /v1/tools
func (s *Server) handleTools(w http.ResponseWriter, req *http.Request) error {
	type tool struct {
		Name        string            `json:"name"`
		ContentType tools.ContentType `json:"content_type"`
		Image       string            `json:"image"`
	}
	specs := s.opts.Registry.Specs()
	out := make([]tool, len(specs))
	for i, sp := range specs {
		out[i] = tool{Name: sp.Name, ContentType: sp.ContentType, Image: sp.Image}
	}
	return writeJSON(w, http.StatusOK, out)
}

type createRequest struct {
	ContractsDir string   `json:"contracts_dir"`
	ProjectDir   string   `json:"project_dir"`
	RepoURL      string   `json:"repo_url"`
	NPMDir       string   `json:"npm_dir"`
	EthPMDir     string   `json:"ethpm_dir"`
	Tools        []string `json:"tools"`
}

func (c createRequest) validate() error {
	for _, p := range []string{c.ContractsDir, c.ProjectDir, c.NPMDir, c.EthPMDir} {
		if err := middleware.ValidateLocalPath(p); err != nil {
			return badRequest{err.Error()}
		}
	}
	if c.RepoURL != "" {
		if err := middleware.ValidateRepoURL(c.RepoURL); err != nil {
			return badRequest{err.Error()}
		}
	}
	if err := middleware.ValidateToolNames(c.Tools); err != nil {
		return badRequest{err.Error()}
	}
	return nil
}

// POST /v1/reports
// Body: {"repo_url": "...", "tools": ["solhint"]}
// The run is validated, then executed in the background.
func (s *Server) handleCreate(w http.ResponseWriter, req *http.Request) error {
	var body createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return badRequest{fmt.Sprintf("invalid body: %v", err)}
	}
	if err := body.validate(); err != nil {
		return err
	}

	id := s.newID()
	preq := pipeline.Request{
		ContractsDir: optional.FromString(body.ContractsDir),
		ProjectDir:   optional.FromString(body.ProjectDir),
		RepoURL:      optional.FromString(body.RepoURL),
		NPMDir:       optional.FromString(body.NPMDir),
		EthPMDir:     optional.FromString(body.EthPMDir),
		Tools:        body.Tools,
		Destination:  filepath.Join(s.opts.ReportsDir, id+".html"),
		RunID:        id,
	}
	specs, err := s.opts.Generator.Plan(preq)
	if err != nil {
		return err
	}

	rec := &runs.Record{
		ID:        runs.ID(id),
		StartedAt: s.now(),
		Source:    middleware.SanitizeString(preq.Source()),
		Tools:     specNames(specs),
		Status:    runs.StatusRunning,
	}
	if err := s.opts.Runs.Save(req.Context(), rec); err != nil {
		return err
	}

	resp := map[string]any{
		"id":       id,
		"status":   "queued",
		"tools":    rec.Tools,
		"queuedAt": rec.StartedAt,
	}

	s.metrics.RunStarted()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		got, err := s.opts.Generator.Generate(s.ctx, preq)
		s.metrics.RunFinished(err)
		if got == nil && err != nil {
			// rejected before a workspace existed; nothing else recorded it
			rec.Finish(s.now(), err)
			_ = s.opts.Runs.Save(context.Background(), rec)
		}
	}()

	return writeJSON(w, http.StatusAccepted, resp)
}

// GET /v1/reports/latest?limit=20
func (s *Server) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := s.opts.Runs.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*runs.Record{}
	}
	return writeJSON(w, http.StatusOK, list)
}

func (s *Server) record(req *http.Request) (*runs.Record, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRunID(id); err != nil {
		return nil, badRequest{err.Error()}
	}
	return s.opts.Runs.Get(req.Context(), runs.ID(id))
}

// GET /v1/reports/{id}
func (s *Server) handleGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := s.record(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// GET /v1/reports/{id}/document
func (s *Server) handleDocument(w http.ResponseWriter, req *http.Request) error {
	rec, err := s.record(req)
	if err != nil {
		return err
	}
	if rec.Status != runs.StatusSuccess || rec.ReportPath == "" {
		return writeJSON(w, http.StatusConflict, map[string]string{
			"error":  "report not available",
			"status": string(rec.Status),
		})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, req, rec.ReportPath)
	return nil
}

func specNames(specs []tools.Spec) []string {
	out := make([]string, len(specs))
	for i, sp := range specs {
		out[i] = sp.Name
	}
	return out
}
