// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medrift/medrift/internal/adapters/mq/queue"
	"github.com/medrift/medrift/internal/domain/model"
)

// IngestHandler handles batch event submission.
type IngestHandler struct {
	deps Dependencies
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(deps Dependencies) *IngestHandler {
	return &IngestHandler{deps: deps}
}

// HandleIngest handles POST /ingest requests. Events are admitted one by
// one; the first capacity rejection aborts the batch and the response
// still reports how many events made it in.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	events := make([]model.Event, len(req.Events))
	for i, e := range req.Events {
		if err := e.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		events[i] = model.Event{UserID: e.UserID, Timestamp: e.Timestamp, Features: e.Features}
	}

	accepted, err := h.deps.Admit(r.Context(), events)
	if err != nil {
		if errors.Is(err, queue.ErrCapacityExceeded) {
			// Retryable: the caller should back off and resubmit the
			// unaccepted remainder.
			writeJSON(w, http.StatusTooManyRequests, ingestResponse{
				Status:    "capacity_exceeded",
				Accepted:  accepted,
				BatchSize: len(events),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{
		Status:    "ok",
		Accepted:  accepted,
		BatchSize: len(events),
	})
}
