package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/medrift/medrift/internal/domain/model"
	"github.com/medrift/medrift/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultWindowSeconds = 300
)

// MemStore is the in-memory Store implementation.
//
// One mutex covers windows and counters. Critical sections are pure
// slice and map operations; scoring and disk I/O never run under it,
// so contention stays short and predictable.
type MemStore struct {
	mu sync.Mutex

	windows       map[string][]model.ScoredPoint
	windowSeconds int64
	totalPoints   int

	counters Counters

	now func() int64 // injectable for deterministic tests
}

// NewMemStore creates an empty store with configuration options.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		windows:       make(map[string][]model.ScoredPoint),
		windowSeconds: defaultWindowSeconds,
		now:           func() int64 { return time.Now().Unix() },
	}

	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateStoreUsers(0)
	metrics.UpdateStorePoints(0)

	return s
}

// Insert places (timestamp, score) into the user's window, keeping the
// window non-decreasing by timestamp. New points land after existing
// points with the same timestamp, so arrival order breaks ties.
func (s *MemStore) Insert(ctx context.Context, userID string, timestamp int64, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.windows[userID]
	idx := sort.Search(len(w), func(i int) bool { return w[i].Timestamp > timestamp })

	w = append(w, model.ScoredPoint{})
	copy(w[idx+1:], w[idx:])
	w[idx] = model.ScoredPoint{Timestamp: timestamp, Score: score}
	s.windows[userID] = w

	s.totalPoints++
	s.publishGauges()
}

// Trim drops every leading point with Timestamp < cutoff and returns a
// copy of what survives. A window that trims to empty is removed from
// the map; querying an unknown user returns nil, not an error.
func (s *MemStore) Trim(ctx context.Context, userID string, cutoff int64) []model.ScoredPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[userID]
	if !ok {
		return nil
	}

	idx := sort.Search(len(w), func(i int) bool { return w[i].Timestamp >= cutoff })
	if idx > 0 {
		s.totalPoints -= idx
		if idx == len(w) {
			delete(s.windows, userID)
			s.publishGauges()
			return nil
		}
		// Reallocate so the evicted prefix does not pin the backing array.
		w = append(make([]model.ScoredPoint, 0, len(w)-idx), w[idx:]...)
		s.windows[userID] = w
		s.publishGauges()
	}

	return copyPoints(w)
}

// SnapshotAll returns an independent copy of every non-empty window,
// taken atomically with respect to concurrent inserts and trims.
func (s *MemStore) SnapshotAll(ctx context.Context) map[string][]model.ScoredPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(map[string][]model.ScoredPoint, len(s.windows))
	for userID, w := range s.windows {
		if len(w) == 0 {
			continue
		}
		snap[userID] = copyPoints(w)
	}
	return snap
}

// RecordIngest counts one ingest request carrying batchSize accepted events.
func (s *MemStore) RecordIngest(ctx context.Context, batchSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.IngestRequestsTotal++
	s.counters.EventsReceivedTotal += int64(batchSize)
	s.counters.LastIngestTime = s.now()
}

// AddQueueRejections adds n to the rejection counter.
func (s *MemStore) AddQueueRejections(ctx context.Context, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.QueueRejectionsTotal += n
}

// IncInferenceCalls counts one scorer invocation.
func (s *MemStore) IncInferenceCalls(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.InferenceCallsTotal++
}

// Counters returns a consistent copy of all counters.
func (s *MemStore) Counters(ctx context.Context) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters
}

// WindowSeconds returns the configured window span.
func (s *MemStore) WindowSeconds() int64 {
	return s.windowSeconds
}

// Export returns a deep copy of the full store state for persistence.
func (s *MemStore) Export(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	windows := make(map[string][]model.ScoredPoint, len(s.windows))
	for userID, w := range s.windows {
		windows[userID] = copyPoints(w)
	}

	return Snapshot{
		WindowSeconds:        s.windowSeconds,
		UserWindows:          windows,
		IngestRequestsTotal:  s.counters.IngestRequestsTotal,
		EventsReceivedTotal:  s.counters.EventsReceivedTotal,
		LastIngestTime:       s.counters.LastIngestTime,
		InferenceCallsTotal:  s.counters.InferenceCallsTotal,
		QueueRejectionsTotal: s.counters.QueueRejectionsTotal,
	}
}

// Restore replaces the store state from a loaded snapshot.
func (s *MemStore) Restore(ctx context.Context, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.WindowSeconds > 0 {
		s.windowSeconds = snap.WindowSeconds
	}

	s.windows = make(map[string][]model.ScoredPoint, len(snap.UserWindows))
	s.totalPoints = 0
	for userID, w := range snap.UserWindows {
		if len(w) == 0 {
			continue
		}
		s.windows[userID] = copyPoints(w)
		s.totalPoints += len(w)
	}

	s.counters = Counters{
		IngestRequestsTotal:  snap.IngestRequestsTotal,
		EventsReceivedTotal:  snap.EventsReceivedTotal,
		LastIngestTime:       snap.LastIngestTime,
		InferenceCallsTotal:  snap.InferenceCallsTotal,
		QueueRejectionsTotal: snap.QueueRejectionsTotal,
	}

	s.publishGauges()
}

// publishGauges mirrors store occupancy to Prometheus. Caller holds s.mu.
func (s *MemStore) publishGauges() {
	metrics.UpdateStoreUsers(len(s.windows))
	metrics.UpdateStorePoints(s.totalPoints)
}

func copyPoints(w []model.ScoredPoint) []model.ScoredPoint {
	if len(w) == 0 {
		return nil
	}
	out := make([]model.ScoredPoint, len(w))
	copy(out, w)
	return out
}
