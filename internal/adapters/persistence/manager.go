// Package persistence periodically serializes the windowed store to a
// state file and restores it at startup.
//
// Persistence is best-effort snapshotting, not a write-ahead log: a
// failed save or a corrupt file costs at most one interval of history
// and never stops the service.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/medrift/medrift/internal/adapters/repository"
	"github.com/medrift/medrift/pkg/logger"
	"github.com/medrift/medrift/pkg/metrics"
)

// Default persistence configuration constants.
const (
	defaultInterval = 15 * time.Second
	stateFileMode   = 0o644
	stateDirMode    = 0o755
)

// StateStore is the store surface persistence needs: a consistent
// full-state export and a restore.
type StateStore interface {
	Export(ctx context.Context) repository.Snapshot
	Restore(ctx context.Context, snap repository.Snapshot)
}

// Manager owns the state file and the periodic save loop.
type Manager struct {
	store    StateStore
	path     string
	interval time.Duration

	// Logging
	logger logger.Logger
}

// NewManager creates a persistence manager with configuration options.
// An empty path disables persistence entirely.
func NewManager(store StateStore, path string, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		path:     path,
		interval: defaultInterval,
		logger:   logger.Get().Named("persistence"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Save writes a consistent snapshot of the store to the state file
// using a temp-file-then-rename replace, so a crash mid-write never
// leaves a torn file behind. The store lock is only held while the
// snapshot is copied out, never during disk I/O.
func (m *Manager) Save(ctx context.Context) error {
	if m.path == "" {
		return nil
	}

	start := time.Now()

	snap := m.store.Export(ctx)

	data, err := json.Marshal(snap)
	if err != nil {
		metrics.RecordSnapshotError()
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), stateDirMode); err != nil {
		metrics.RecordSnapshotError()
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, stateFileMode); err != nil {
		metrics.RecordSnapshotError()
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		metrics.RecordSnapshotError()
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	metrics.RecordSnapshotSave(float64(time.Since(start).Milliseconds()))
	return nil
}

// Load restores the store from a prior snapshot. A missing or malformed
// file means "no prior state": the store is left at its defaults and
// startup continues.
func (m *Manager) Load(ctx context.Context) {
	if m.path == "" {
		return
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			metrics.RecordSnapshotError()
			m.logger.Warn(ctx, "state file unreadable; starting empty",
				logger.String("path", m.path),
				logger.Error(err),
			)
		}
		return
	}

	var snap repository.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		metrics.RecordSnapshotError()
		m.logger.Warn(ctx, "state file corrupt; starting empty",
			logger.String("path", m.path),
			logger.Error(err),
		)
		return
	}

	m.store.Restore(ctx, snap)
	m.logger.Info(ctx, "state restored",
		logger.String("path", m.path),
		logger.Int("users", len(snap.UserWindows)),
	)
}

// Run saves on a fixed interval until ctx is cancelled. Save failures
// are logged and never stop the loop.
func (m *Manager) Run(ctx context.Context) {
	if m.path == "" {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Save(ctx); err != nil {
				m.logger.Error(ctx, "periodic snapshot failed", logger.Error(err))
			}
		}
	}
}
