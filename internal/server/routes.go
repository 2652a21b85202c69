package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/propsignal/incentive-recommender/internal/server/handlers"
)

func (s *Server) registerRoutes(r chi.Router) {
	h := handlers.New(s.store, s.catalog, s.metrics)

	r.Get("/health", h.Health)
	r.Post("/recommend", h.Recommend)
}
