// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/medrift/medrift/internal/domain/model"
)

// UsersHandler handles per-user window queries.
type UsersHandler struct {
	deps Dependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps Dependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

type userMedianResponse struct {
	UserID string  `json:"user_id"`
	Median float64 `json:"median"`
}

type userWindowResponse struct {
	UserID string              `json:"user_id"`
	Window []model.ScoredPoint `json:"window"`
}

// HandleUser dispatches GET /users/{user_id}/median and
// GET /users/{user_id}/window requests.
func (h *UsersHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	userID, action, ok := strings.Cut(rest, "/")
	if !ok || userID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	referenceTS := h.deps.Now()

	switch action {
	case "median":
		median, found := h.deps.UserMedian(r.Context(), userID, referenceTS)
		if !found {
			// An unknown or fully-evicted user is no_data, not a fault.
			writeError(w, http.StatusNotFound, "no_data", ErrNoData)
			return
		}
		writeJSON(w, http.StatusOK, userMedianResponse{UserID: userID, Median: median})
	case "window":
		window := h.deps.UserWindow(r.Context(), userID, referenceTS)
		if window == nil {
			window = []model.ScoredPoint{}
		}
		writeJSON(w, http.StatusOK, userWindowResponse{UserID: userID, Window: window})
	default:
		http.NotFound(w, r)
	}
}
