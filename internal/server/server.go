// Package server implements the recommendation HTTP API server.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/propsignal/incentive-recommender/internal/catalog"
	"github.com/propsignal/incentive-recommender/internal/serving"
	"github.com/propsignal/incentive-recommender/internal/telemetry"
)

// Server is the recommendation HTTP API server. All handlers only read the
// artifact store, so requests may run fully in parallel.
type Server struct {
	store   *serving.Store
	catalog catalog.Source
	metrics *telemetry.Metrics
	logger  *slog.Logger
	router  chi.Router
	addr    string
	srv     *http.Server
}

// New creates a new HTTP server. catalogSrc may be nil, in which case
// landscape statistics are expected in the payload. metrics may be nil.
func New(addr string, store *serving.Store, catalogSrc catalog.Source, metrics *telemetry.Metrics, maxBodyBytes int64) *Server {
	s := &Server{
		store:   store,
		catalog: catalogSrc,
		metrics: metrics,
		logger:  slog.Default(),
		addr:    addr,
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	if maxBodyBytes > 0 {
		r.Use(MaxBodyMiddleware(maxBodyBytes))
	}

	s.router = r
	s.registerRoutes(r)
	return s
}

// SetLogger overrides the default logger.
func (s *Server) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins serving HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("recommendation server listening", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
