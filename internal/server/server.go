// Package server exposes the peviz pipeline over HTTP.
//
// Routes:
//
//	POST /api/v1/visualize   render a sentence (body: pipeline.Options JSON)
//	GET  /api/v1/encode      raw encoding matrix (?sentence=...&d_model=...)
//	GET  /healthz            font readiness and build info
//	GET  /metrics            Prometheus metrics
//
// Every request builds its own scene, so concurrent clients never share a
// visualization. Until the font loads, visualize requests answer 503.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/peviz/pkg/layout"
	"github.com/matzehuels/peviz/pkg/pipeline"
)

const (
	// DefaultRequestTimeout bounds a single request, including rendering.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultMaxBodyBytes caps visualize request bodies.
	DefaultMaxBodyBytes = 64 << 10

	shutdownTimeout = 10 * time.Second
)

// Server serves the pipeline over HTTP.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	router   chi.Router

	timeout   time.Duration
	maxBody   int64
	constants layout.Constants
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithMaxBodyBytes sets the visualize body limit.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// WithConstants sets the scene dimensions used for every visualize request.
// Zero fields keep their defaults.
func WithConstants(c layout.Constants) Option {
	return func(s *Server) { s.constants = c }
}

// New creates a server around runner. Metrics are collected in a private
// registry; call [Server.Metrics] and [Metrics.Install] to receive pipeline
// and cache events.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	reg := prometheus.NewRegistry()
	s := &Server{
		runner:   runner,
		logger:   logger,
		registry: reg,
		metrics:  NewMetrics(reg),
		timeout:  DefaultRequestTimeout,
		maxBody:  DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Metrics returns the server's Prometheus hooks.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/visualize", s.handleVisualize)
		r.Get("/encode", s.handleEncode)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{Code: "NOT_FOUND", Message: "no such route"}})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.runner.Close()
}
