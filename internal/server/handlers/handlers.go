// Package handlers implements HTTP request handlers for the recommendation API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/propsignal/incentive-recommender/internal/catalog"
	"github.com/propsignal/incentive-recommender/internal/serving"
	"github.com/propsignal/incentive-recommender/internal/telemetry"
)

// Handlers contains all HTTP handler dependencies.
type Handlers struct {
	store   *serving.Store
	catalog catalog.Source
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New creates a new Handlers instance. catalogSrc and metrics may be nil.
func New(store *serving.Store, catalogSrc catalog.Source, metrics *telemetry.Metrics) *Handlers {
	return &Handlers{
		store:   store,
		catalog: catalogSrc,
		metrics: metrics,
		logger:  slog.Default(),
	}
}

// SetLogger overrides the default logger.
func (h *Handlers) SetLogger(l *slog.Logger) {
	if l != nil {
		h.logger = l
	}
}

// writeError logs the internal error and returns a sanitized JSON error to
// the client. Serving errors never crash the process or touch the loaded
// artifact.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err, "status", status)
	}
	if h.metrics != nil {
		h.metrics.Errors.Add(r.Context(), 1)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
