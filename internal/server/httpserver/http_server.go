// Package httpserver wires the Code Lens HTTP API onto a net/http server.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/INF-UCT/code-lens/internal/config"
	derrors "github.com/INF-UCT/code-lens/internal/foundation/errors"
	handlers "github.com/INF-UCT/code-lens/internal/server/handlers"
	smw "github.com/INF-UCT/code-lens/internal/server/middleware"
	"github.com/INF-UCT/code-lens/internal/store"
)

// Options carries the collaborators the handlers need.
type Options struct {
	Pipeline handlers.Pipeline
	Owners   handlers.OwnerResolver
	Store    store.Store
	// Repositories overrides Store.Repositories(), e.g. with a cached store.
	Repositories store.RepositoryStore
	Queue        handlers.QueueLength
	// Metrics is mounted at cfg.Metrics.Path when non-nil and metrics are enabled.
	Metrics http.Handler
}

// Server manages the API endpoint.
type Server struct {
	cfg          *config.Config
	httpServer   *http.Server
	errorAdapter *derrors.HTTPErrorAdapter

	repositoryHandlers *handlers.RepositoryHandlers
	monitoringHandlers *handlers.MonitoringHandlers
	metrics            http.Handler

	mchain func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	repos := opts.Repositories
	if repos == nil && opts.Store != nil {
		repos = opts.Store.Repositories()
	}
	var pinger handlers.Pinger
	if opts.Store != nil {
		pinger = opts.Store
	}

	s := &Server{
		cfg:          cfg,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		metrics:      opts.Metrics,
	}
	s.repositoryHandlers = handlers.NewRepositoryHandlers(opts.Pipeline, opts.Owners, repos)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(pinger, opts.Queue)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	return s
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repositories", s.repositoryHandlers.HandleAnalyze)
	mux.HandleFunc("GET /repositories", s.repositoryHandlers.HandleList)
	mux.HandleFunc("GET /repositories/{id}", s.repositoryHandlers.HandleGet)
	mux.HandleFunc("GET /healthz", s.monitoringHandlers.HandleHealthCheck)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		mux.Handle("GET "+s.cfg.Metrics.Path, s.metrics)
	}
	return s.mchain(mux)
}

// Start binds the configured address and serves in the background. Binding
// errors are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Server.Addr()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "http startup failed").
			WithContext("addr", addr).
			Build()
	}
	return s.StartWithListener(ln)
}

// StartWithListener serves on a pre-bound listener.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server error", "error", err)
		}
	}()
	slog.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "api server shutdown").Build()
	}
	slog.Info("HTTP server stopped")
	return nil
}
