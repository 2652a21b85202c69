package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/propsignal/incentive-recommender/internal/features"
	"github.com/propsignal/incentive-recommender/internal/serving"
	"github.com/propsignal/incentive-recommender/pkg/types"
)

// Recommend handles POST /recommend: reconstruct the full feature row from
// the partial payload and return the recommended incentive program with the
// class-probability distribution when available.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	if h.metrics != nil {
		h.metrics.Requests.Add(r.Context(), 1)
	}

	bundle, err := h.store.Get()
	if err != nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "model not loaded", err)
		return
	}

	var req types.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Features) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "features is required", nil)
		return
	}

	var landscape *features.LandscapeStats
	if h.catalog != nil {
		stats, err := h.catalog.Landscape(r.Context())
		if err != nil {
			h.writeError(w, r, http.StatusBadGateway, "landscape catalog unavailable", err)
			return
		}
		landscape = &stats
	}

	resp, err := serving.Predict(bundle, req.Features, landscape)
	if err != nil {
		var missing *types.MissingFeatureError
		if errors.As(err, &missing) {
			h.writeError(w, r, http.StatusBadRequest, missing.Error(), err)
			return
		}
		h.writeError(w, r, http.StatusBadRequest, "could not reconstruct features", err)
		return
	}

	if h.metrics != nil {
		h.metrics.Predictions.Add(r.Context(), 1)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}
