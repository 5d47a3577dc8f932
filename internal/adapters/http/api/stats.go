// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// HandleStats handles GET /stats requests. One reference timestamp
// covers the counters and the aggregate so all windows are evaluated
// against the same cutoff while this handler runs.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	referenceTS := h.deps.Now()
	writeJSON(w, http.StatusOK, h.deps.Stats(r.Context(), referenceTS))
}
