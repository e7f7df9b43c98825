// Package httpserver wires the autopipe HTTP API onto a chi router and manages its listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/autopipe/internal/config"
	derrors "git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/server/handlers"
	smw "git.home.luguber.info/inful/autopipe/internal/server/middleware"
)

// Route paths.
const (
	PathBuilds  = "/api/v1/builds"
	PathJobs    = "/api/v1/jobs"
	PathHealthz = "/healthz"
	PathReadyz  = "/readyz"
)

// Server manages the API listener.
type Server struct {
	cfg         config.ServerConfig
	metricsPath string
	opts        Options
	logger      *slog.Logger
	router      *chi.Mux

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New constructs the router. Metrics are mounted only when metrics are enabled and
// opts.MetricsHandler is set.
func New(cfg *config.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg.Server,
		opts:   opts,
		logger: logger,
	}
	if cfg.Metrics.Enabled && opts.MetricsHandler != nil {
		s.metricsPath = cfg.Metrics.Path
		if s.metricsPath == "" {
			s.metricsPath = config.DefaultMetricsPath
		}
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	adapter := derrors.NewHTTPErrorAdapter(s.logger)
	builds := handlers.NewBuildHandlers(s.opts.Submitter, s.cfg.MaxBodyBytes, s.logger)
	jobs := handlers.NewJobHandlers(s.opts.Lister, s.logger)
	monitoring := handlers.NewMonitoringHandlers(s.opts.Readiness, s.logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(smw.Chain(s.logger, adapter))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		adapter.WriteErrorResponse(w, req, derrors.NotFoundError("no such route").
			WithContext("path", req.URL.Path).
			Build())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		adapter.WriteErrorResponse(w, req, derrors.ValidationError("invalid HTTP method").
			WithContext("method", req.Method).
			WithContext("path", req.URL.Path).
			Build())
	})

	r.Get(PathHealthz, monitoring.HandleHealthCheck)
	r.Get(PathReadyz, monitoring.HandleReadiness)
	if s.metricsPath != "" {
		r.Method(http.MethodGet, s.metricsPath, s.opts.MetricsHandler)
	}

	r.Post(PathBuilds, builds.HandleSubmit)
	r.Get(PathJobs, jobs.HandleListJobs)
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound listener address once Start has succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listen address and serves in the background. Bind failures are returned
// synchronously so the caller can fail fast.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("http server already started")
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("http startup failed: listen %s: %w", s.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.server = srv
	s.listener = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", logfields.Error(err))
		}
	}()
	s.logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight submits until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
