// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/medrift/medrift/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Admit offers a batch for async scoring. Partial acceptance is
	// possible; the error reports capacity rejections.
	Admit(ctx context.Context, events []model.Event) (int, error)

	// Read operations evaluate windows against a reference timestamp.
	UserWindow(ctx context.Context, userID string, referenceTS int64) []model.ScoredPoint
	UserMedian(ctx context.Context, userID string, referenceTS int64) (float64, bool)
	Stats(ctx context.Context, referenceTS int64) model.Stats

	// Now supplies the reference timestamp for read requests.
	Now() int64
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	ingestHandler *IngestHandler
	usersHandler  *UsersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		ingestHandler: NewIngestHandler(deps),
		usersHandler:  NewUsersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/ingest", MetricsMiddleware(s.ingestHandler.HandleIngest, "ingest"))
	mux.HandleFunc("/users/", MetricsMiddleware(s.usersHandler.HandleUser, "users"))
}

// eventRequest mirrors the JSON schema for POST /ingest events.
type eventRequest struct {
	UserID    string    `json:"user_id"`
	Timestamp int64     `json:"timestamp"`
	Features  []float64 `json:"features"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return errors.New("missing user_id")
	case e.Timestamp <= 0:
		return errors.New("timestamp must be a positive unix time")
	case len(e.Features) == 0:
		return errors.New("missing features")
	}
	for _, f := range e.Features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New("features must be finite numbers")
		}
	}
	return nil
}

type ingestRequest struct {
	Events []eventRequest `json:"events"`
}

type ingestResponse struct {
	Status    string `json:"status"`
	Accepted  int    `json:"accepted"`
	BatchSize int    `json:"batch_size"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
