package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/config"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/health"
	middleware "github.com/mohammed-shakir/h3-cellset-analytics/internal/core/middleware"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/router"
)

// Deps are the pieces the HTTP surface is assembled from. Metrics may be nil.
type Deps struct {
	Handlers *router.Handlers
	Cache    health.CacheReporter
	Metrics  http.Handler
}

// NewRouter wires middlewares, health checks, metrics and the /v1 analytics routes.
func NewRouter(cfg config.Config, logger *slog.Logger, d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.Cache))
	if d.Metrics != nil {
		r.Method(http.MethodGet, cfg.MetricsPath, d.Metrics)
	}
	d.Handlers.Mount(r)
	return r
}

// Run serves h on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
