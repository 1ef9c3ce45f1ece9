package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ParadiseToken/solhydra/internal/infra/httpserver"
	"github.com/ParadiseToken/solhydra/internal/middleware"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept report requests over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			ctx := cmd.Context()
			a, err := build(cfg, opts.logger)
			if err != nil {
				return err
			}
			if err := a.attach(ctx, cfg, true); err != nil {
				return err
			}
			defer a.close()

			checkers := a.checkers
			checkers["orchestrator"] = middleware.BinaryHealthChecker{Name: cfg.Orchestrator.Binary}
			checkers["workspace"] = middleware.DirHealthChecker{Dir: cfg.Workspace.Root}
			checkers["reports"] = middleware.DirHealthChecker{Dir: cfg.Server.ReportsDir}

			// runs outlive requests but not the process
			runCtx, cancelRuns := context.WithCancel(context.Background())
			defer cancelRuns()
			s := httpserver.New(runCtx, httpserver.Options{
				Generator:      a.svc,
				Runs:           a.svc.Runs,
				Registry:       a.registry,
				ReportsDir:     cfg.Server.ReportsDir,
				APIKeys:        cfg.Server.APIKeys,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				RateCapacity:   cfg.Server.RateLimit.Capacity,
				RateRefill:     cfg.Server.RateLimit.RefillPerSecond,
				Checkers:       checkers,
				Logger:         opts.logger,
			})

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      s.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				opts.logger.Printf("server listening on %s", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			opts.logger.Println("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				opts.logger.Printf("shutdown error: %v", err)
			}
			// in-flight runs stop their containers and remove their workspaces
			cancelRuns()
			s.Wait()
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}
