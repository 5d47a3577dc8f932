// Package queue implements the bounded admission gate between request
// intake and the scoring workers.
//
// Admission gives bursty traffic a short grace period: an enqueue into a
// full queue waits up to a fixed timeout for a slot to free before the
// event is rejected back to the caller.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/medrift/medrift/internal/domain/model"
	"github.com/medrift/medrift/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity     = 10_000
	defaultAdmitTimeout = 50 * time.Millisecond
)

// Event represents the payload type flowing through the queue.
type Event = model.Event

// Queue provides timed enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an event to the queue, waiting up to the admission
	// timeout for a free slot. Returns false if the event was rejected.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns a channel that receives events as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the current number of queued events.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// events can be enqueued and the dequeue channel drains then closes.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events       chan Event
	capacity     int
	admitTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:     defaultCapacity,
		admitTimeout: defaultAdmitTimeout,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.events = make(chan Event, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds an event to the queue, waiting up to the admission timeout
// for a slot. The read lock is held for the duration of the attempt so
// Close cannot race a send on a closed channel.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	// Fast path: a slot is free right now.
	select {
	case q.events <- e:
		q.publishGauges()
		return true
	default:
	}

	timer := time.NewTimer(q.admitTimeout)
	defer timer.Stop()

	select {
	case q.events <- e:
		q.publishGauges()
		return true
	case <-timer.C:
		metrics.RecordQueueRejection()
		return false
	case <-ctx.Done():
		metrics.RecordQueueRejection()
		return false
	}
}

// Dequeue returns the receive side of the queue. Workers block on it and
// observe close when the queue shuts down.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	return q.events
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.publishGauges()
	return len(q.events)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.events)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) publishGauges() {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
