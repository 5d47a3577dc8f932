// Package persistence periodically serializes the windowed store to a
// state file and restores it at startup.
package persistence

import (
	"time"

	"github.com/medrift/medrift/pkg/logger"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithInterval sets the periodic save interval.
func WithInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
