// Package repository defines the windowed score store interface and errors.
package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithWindowSeconds sets the sliding window span in seconds.
func WithWindowSeconds(seconds int64) Option {
	return func(s *MemStore) {
		if seconds > 0 {
			s.windowSeconds = seconds
		}
	}
}

// WithClock overrides the wall clock used for the last-ingest stamp.
func WithClock(now func() int64) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}
