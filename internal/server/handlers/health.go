package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/propsignal/incentive-recommender/pkg/types"
)

// Health returns service-up status and whether the trained artifact is
// loaded. The service does not report healthy until the artifact is ready.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{Status: "ok", ModelLoaded: h.store.Loaded()}
	if !resp.ModelLoaded {
		resp.Status = "degraded"
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
}
