// Package server implements the dayplan HTTP server: routing, session
// authentication and request logging around the handlers in server/api.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/GoCodeAlone/dayplan/assistant"
	"github.com/GoCodeAlone/dayplan/auth"
	"github.com/GoCodeAlone/dayplan/comms"
	"github.com/GoCodeAlone/dayplan/config"
	"github.com/GoCodeAlone/dayplan/planner"
	"github.com/GoCodeAlone/dayplan/server/api"
)

// Deps are the services the server exposes.
type Deps struct {
	Planner   *planner.Service
	Auth      *auth.Service
	Assistant *assistant.Orchestrator
	Bus       comms.Bus
}

// Server is the dayplan HTTP server.
type Server struct {
	cfg     config.ServerConfig
	deps    Deps
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  *slog.Logger

	routesOnce sync.Once
	handler    http.Handler
	startTime  time.Time
}

// New creates a new Server with the given config and logger.
func New(cfg config.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		deps:      deps,
		mux:       http.NewServeMux(),
		logger:    logger,
		startTime: time.Now(),
	}
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	s.routesOnce.Do(s.registerRoutes)
	return s.handler
}

// Start begins listening and blocks until the server stops.
func (s *Server) Start() error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	timeout := s.cfg.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeout,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	h := &api.Handlers{
		Planner:        s.deps.Planner,
		Auth:           s.deps.Auth,
		Assistant:      s.deps.Assistant,
		Bus:            s.deps.Bus,
		Logger:         s.logger,
		StartedAt:      s.startTime,
		RequestTimeout: s.cfg.RequestTimeout,
	}

	// Public routes (no auth required)
	h.RegisterPublic(s.mux)

	// Protected API, wrapped in the session middleware. More specific
	// public patterns above win over this prefix.
	apiMux := http.NewServeMux()
	h.RegisterRoutes(apiMux)
	s.mux.Handle("/api/", s.authMiddleware(apiMux))

	s.handler = s.logRequests(s.mux)
}
