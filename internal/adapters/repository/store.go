// Package repository defines the windowed score store interface and errors.
package repository

import (
	"context"

	"github.com/medrift/medrift/internal/domain/model"
)

// Counters groups the monotonic pipeline counters owned by the store.
// LastIngestTime is a wall-clock unix value, not monotonic.
type Counters struct {
	IngestRequestsTotal  int64
	EventsReceivedTotal  int64
	LastIngestTime       int64
	InferenceCallsTotal  int64
	QueueRejectionsTotal int64
}

// Snapshot is a point-in-time serialization of the full store state.
// Field names match the on-disk state file layout.
type Snapshot struct {
	WindowSeconds        int64                          `json:"window_seconds"`
	UserWindows          map[string][]model.ScoredPoint `json:"user_windows"`
	IngestRequestsTotal  int64                          `json:"ingest_requests_total"`
	EventsReceivedTotal  int64                          `json:"events_received_total"`
	LastIngestTime       int64                          `json:"last_ingest_time"`
	InferenceCallsTotal  int64                          `json:"inference_calls_total"`
	QueueRejectionsTotal int64                          `json:"queue_rejections_total"`
}

// Store provides access to per-user sliding windows and pipeline counters.
// All operations share one consistency boundary: no reader observes a
// half-applied insert or trim, and SnapshotAll is atomic with respect to
// concurrent writers.
type Store interface {
	// Insert places a scored point into the user's window at the position
	// preserving timestamp order. Equal timestamps keep arrival order.
	Insert(ctx context.Context, userID string, timestamp int64, score float64)

	// Trim removes every leading entry older than cutoff and returns a copy
	// of the surviving window. Trim doubles as the per-user read path.
	Trim(ctx context.Context, userID string, cutoff int64) []model.ScoredPoint

	// SnapshotAll returns an independent copy of every non-empty window.
	SnapshotAll(ctx context.Context) map[string][]model.ScoredPoint

	// RecordIngest counts one ingest request carrying batchSize accepted
	// events and stamps the last ingest time.
	RecordIngest(ctx context.Context, batchSize int)

	// AddQueueRejections adds n to the rejection counter.
	AddQueueRejections(ctx context.Context, n int64)

	// IncInferenceCalls counts one scorer invocation.
	IncInferenceCalls(ctx context.Context)

	// Counters returns a consistent copy of all counters.
	Counters(ctx context.Context) Counters

	// WindowSeconds returns the configured window span.
	WindowSeconds() int64

	// Export returns a consistent full-state snapshot for persistence.
	Export(ctx context.Context) Snapshot

	// Restore replaces the store state from a loaded snapshot.
	Restore(ctx context.Context, snap Snapshot)
}
