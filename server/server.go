// Package server exposes the report run over HTTP for the progress view.
//
// Information Hiding:
// - Route table and echo setup
// - Domain error to HTTP status mapping
// - The context background runs outlive their request on

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richinex/omnireport/export"
	"github.com/richinex/omnireport/internal/logger"
	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/model"
	"github.com/richinex/omnireport/storage"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Runner is the part of the orchestrator the server drives.
type Runner interface {
	Start(ctx context.Context, subject string, creds model.Credentials) (model.RunState, error)
	Snapshot() model.RunState
	Reset() error
}

// Options configures a Server.
type Options struct {
	// Models is the catalog served by GET /api/models.
	Models []llm.ModelInfo
	// DefaultModel is used when no model is stored. Empty means the first
	// catalog entry.
	DefaultModel string
	// Export carries the report language and Chrome binary for downloads.
	Export export.Options
	Logger *slog.Logger
	// Gatherer backs GET /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

// Server serves the report API.
type Server struct {
	echo   *echo.Echo
	runner Runner
	store  storage.CredentialStore
	opts   Options
	logger *slog.Logger

	// runCtx outlives requests; background runs are started on it.
	runCtx context.Context
}

// New creates a Server with every route registered.
func New(runner Runner, store storage.CredentialStore, opts Options) *Server {
	if len(opts.Models) == 0 {
		opts.Models = llm.DefaultModels
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = opts.Models[0].ID
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		echo:   echo.New(),
		runner: runner,
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		runCtx: context.Background(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.HTTPErrorHandler = s.handleError
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api")
	api.POST("/reports", s.startReport)
	api.GET("/reports/current", s.currentReport)
	api.POST("/reports/reset", s.resetReport)
	api.GET("/reports/current/export/:format", s.exportReport)
	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.putSettings)
	api.GET("/models", s.listModels)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Runs started through the API use ctx and stop with it.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.runCtx = ctx

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// handleError renders every error as {"error": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	level := slog.LevelWarn
	if code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(req.Context(), level, "http request failed",
		"status", code, "method", req.Method, "path", req.URL.Path, "error", err)

	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrEmptySubject):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.Is(err, model.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, export.ErrNothingToExport):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func httpError(err error) error {
	return echo.NewHTTPError(statusFor(err), err.Error()).SetInternal(err)
}
