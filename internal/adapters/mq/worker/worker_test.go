package worker

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/medrift/medrift/internal/domain/model"
	"github.com/medrift/medrift/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// chanQueue adapts a plain channel to the Queue interface.
type chanQueue struct {
	ch chan Event
}

func (q *chanQueue) Dequeue(ctx context.Context) <-chan Event { return q.ch }

// funcScorer scores with the provided function.
type funcScorer struct {
	fn func(features []float64) (float64, error)
}

func (s *funcScorer) Score(ctx context.Context, features []float64) (float64, error) {
	return s.fn(features)
}

// recordingStore captures store mutations for assertions.
type recordingStore struct {
	mu             sync.Mutex
	inserts        []model.ScoredPoint
	insertUsers    []string
	trimCutoffs    []int64
	inferenceCalls int
	windowSeconds  int64
}

func (s *recordingStore) Insert(ctx context.Context, userID string, timestamp int64, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertUsers = append(s.insertUsers, userID)
	s.inserts = append(s.inserts, model.ScoredPoint{Timestamp: timestamp, Score: score})
}

func (s *recordingStore) Trim(ctx context.Context, userID string, cutoff int64) []model.ScoredPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trimCutoffs = append(s.trimCutoffs, cutoff)
	return nil
}

func (s *recordingStore) IncInferenceCalls(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inferenceCalls++
}

func (s *recordingStore) WindowSeconds() int64 { return s.windowSeconds }

func (s *recordingStore) snapshot() recordingStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recordingStore{
		inserts:        append([]model.ScoredPoint(nil), s.inserts...),
		insertUsers:    append([]string(nil), s.insertUsers...),
		trimCutoffs:    append([]int64(nil), s.trimCutoffs...),
		inferenceCalls: s.inferenceCalls,
		windowSeconds:  s.windowSeconds,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWorker_ProcessesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &chanQueue{ch: make(chan Event, 8)}
	store := &recordingStore{windowSeconds: 150}
	scorer := &funcScorer{fn: func(features []float64) (float64, error) {
		return features[0] * 2, nil
	}}

	pool := NewPool(2, q, scorer, store)
	pool.Start(ctx)
	defer pool.Stop()

	q.ch <- Event{UserID: "u1", Timestamp: 350, Features: []float64{1.5}}

	waitFor(t, func() bool { return len(store.snapshot().inserts) == 1 })

	got := store.snapshot()
	if got.inserts[0].Score != 3.0 || got.inserts[0].Timestamp != 350 {
		t.Errorf("unexpected insert: %+v", got.inserts[0])
	}
	if got.insertUsers[0] != "u1" {
		t.Errorf("expected insert for u1, got %s", got.insertUsers[0])
	}
	if got.inferenceCalls != 1 {
		t.Errorf("expected 1 inference call, got %d", got.inferenceCalls)
	}
	// Trim cutoff anchors to the event's own timestamp.
	if got.trimCutoffs[0] != 350-150 {
		t.Errorf("expected trim cutoff 200, got %d", got.trimCutoffs[0])
	}
}

func TestWorker_ScoringFailureIsolated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &chanQueue{ch: make(chan Event, 8)}
	store := &recordingStore{windowSeconds: 150}
	scorer := &funcScorer{fn: func(features []float64) (float64, error) {
		if features[0] < 0 {
			return 0, errors.New("model exploded")
		}
		return features[0], nil
	}}

	pool := NewPool(1, q, scorer, store)
	pool.Start(ctx)
	defer pool.Stop()

	// A bad event followed by a good one: the bad one is dropped, the
	// worker survives and processes the good one.
	q.ch <- Event{UserID: "bad", Timestamp: 100, Features: []float64{-1}}
	q.ch <- Event{UserID: "good", Timestamp: 200, Features: []float64{5}}

	waitFor(t, func() bool { return len(store.snapshot().inserts) == 1 })

	got := store.snapshot()
	if got.insertUsers[0] != "good" {
		t.Errorf("expected only the good event stored, got %v", got.insertUsers)
	}
	// The failed call never counts as an inference.
	if got.inferenceCalls != 1 {
		t.Errorf("expected 1 inference call, got %d", got.inferenceCalls)
	}
}

func TestWorker_NonFiniteScoreDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &chanQueue{ch: make(chan Event, 8)}
	store := &recordingStore{windowSeconds: 150}
	scorer := &funcScorer{fn: func(features []float64) (float64, error) {
		return math.NaN(), nil
	}}

	pool := NewPool(1, q, scorer, store)
	pool.Start(ctx)
	defer pool.Stop()

	q.ch <- Event{UserID: "u1", Timestamp: 100, Features: []float64{1}}

	// Give the worker time to (wrongly) insert.
	time.Sleep(50 * time.Millisecond)
	if got := store.snapshot(); len(got.inserts) != 0 {
		t.Errorf("non-finite score must never be inserted: %v", got.inserts)
	}
}

func TestWorker_QueueCloseStopsWorkers(t *testing.T) {
	ctx := context.Background()

	q := &chanQueue{ch: make(chan Event, 8)}
	store := &recordingStore{windowSeconds: 150}
	scorer := &funcScorer{fn: func(features []float64) (float64, error) { return 1, nil }}

	w := NewInMemoryWorker(q, scorer, store, WithName("closer"))
	go w.Run(ctx)

	close(q.ch)

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after queue close")
	}
}

func TestPool_Stop(t *testing.T) {
	ctx := context.Background()

	q := &chanQueue{ch: make(chan Event)}
	store := &recordingStore{windowSeconds: 150}
	scorer := &funcScorer{fn: func(features []float64) (float64, error) { return 1, nil }}

	pool := NewPool(3, q, scorer, store)
	pool.Start(ctx)

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool stop timed out")
	}

	// Stop is idempotent.
	pool.Stop()
}
