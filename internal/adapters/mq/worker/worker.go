// Package worker implements the fixed pool of scoring workers that
// drain the admission queue and fold results into the windowed store.
package worker

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/medrift/medrift/internal/domain/model"
	"github.com/medrift/medrift/pkg/logger"
	"github.com/medrift/medrift/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.Event

// WindowStore is the store surface a worker mutates. The store call
// happens after scoring completes; the scorer never runs under the
// store's lock.
type WindowStore interface {
	Insert(ctx context.Context, userID string, timestamp int64, score float64)
	Trim(ctx context.Context, userID string, cutoff int64) []model.ScoredPoint
	IncInferenceCalls(ctx context.Context)
	WindowSeconds() int64
}

// Scorer computes a score for an event's feature vector.
type Scorer interface {
	Score(ctx context.Context, features []float64) (float64, error)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing events.
type InMemoryWorker struct {
	queue  Queue
	scorer Scorer
	store  WindowStore
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, store WindowStore, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		scorer:   scorer,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop. A failed event is logged and dropped;
// the loop always continues to the next item.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Queue closed and drained.
				return
			}

			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "dropping event after processing failure",
					logger.String("userID", event.UserID),
					logger.Int64("timestamp", event.Timestamp),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent scores one event and folds it into the store. Scoring is
// the only external, potentially slow call and runs with no lock held.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	scoreStart := time.Now()
	score, err := w.scorer.Score(ctx, event.Features)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))

	if err != nil {
		metrics.RecordScoringError()
		return fmt.Errorf("scoring failed for user %s: %w", event.UserID, err)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		// Non-finite scores never enter a window.
		metrics.RecordScoringError()
		return fmt.Errorf("scoring user %s: %w", event.UserID, ErrNonFiniteScore)
	}

	w.store.IncInferenceCalls(ctx)
	metrics.RecordInferenceCall()

	w.store.Insert(ctx, event.UserID, event.Timestamp, score)

	// Trim immediately with a cutoff anchored to the event's own time.
	cutoff := event.Timestamp - w.store.WindowSeconds()
	w.store.Trim(ctx, event.UserID, cutoff)

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a worker pool of workerCount workers.
func NewPool(workerCount int, queue Queue, scorer Scorer, store WindowStore) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			scorer,
			store,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers and waits for each to reach a safe
// point. After Stop returns, no worker mutates the store.
func (p *Pool) Stop() {
	select {
	case <-p.shutdown:
		return // already stopped
	default:
		close(p.shutdown)
	}

	for _, w := range p.workers {
		close(w.shutdown)
	}
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
}
