// Package server exposes the layout pipeline over HTTP. Layout and
// evaluation requests run through the shared pipeline runner; finished
// layouts and evaluation runs persist in the store.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/layout"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/store"
)

// Config holds server listen settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the standard listen settings.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// Server is the HTTP API over the pipeline and the store.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	config Config
	http   *http.Server

	// placer overrides the pipeline's placement primitive; tests use the
	// dependency-free layered placer here.
	placer layout.Placer
}

// Option configures a Server.
type Option func(*Server)

// WithPlacer overrides the placement primitive used for API requests.
func WithPlacer(p layout.Placer) Option {
	return func(s *Server) { s.placer = p }
}

// New creates a server. The store may be nil, which disables the
// persistence endpoints.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger, cfg Config, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		logger: logger,
		config: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/layouts", s.handleListLayouts)
		r.Get("/layouts/{id}", s.handleGetLayout)
		r.Get("/layouts/{id}/reports", s.handleListReports)
		r.Delete("/layouts/{id}", s.handleDeleteLayout)
	})
	return r
}

// Start listens until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.config.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", s.config.Addr)
		}
		return nil
	}
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "shutdown")
	}
	s.logger.Info("server stopped")
	return nil
}
