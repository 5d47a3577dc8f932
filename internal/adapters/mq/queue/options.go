// Package queue implements the bounded admission gate between request
// intake and the scoring workers.
package queue

import "time"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithAdmitTimeout sets how long an enqueue waits for a free slot
// before the event is rejected.
func WithAdmitTimeout(timeout time.Duration) Option {
	return func(q *InMemoryQueue) {
		if timeout > 0 {
			q.admitTimeout = timeout
		}
	}
}
