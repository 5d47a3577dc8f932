package persistence

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/medrift/medrift/internal/adapters/repository"
	"github.com/medrift/medrift/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newSeededStore(ctx context.Context, t *testing.T) *repository.MemStore {
	t.Helper()
	store := repository.NewMemStore(ctx,
		repository.WithWindowSeconds(150),
		repository.WithClock(func() int64 { return 1700000000 }),
	)
	store.Insert(ctx, "u1", 100, 1.0)
	store.Insert(ctx, "u1", 200, 2.0)
	store.Insert(ctx, "u2", 300, -0.25)
	store.RecordIngest(ctx, 3)
	store.IncInferenceCalls(ctx)
	store.AddQueueRejections(ctx, 2)
	return store
}

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store := newSeededStore(ctx, t)
	if err := NewManager(store, path).Save(ctx); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// No temp file should survive the rename.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	restored := repository.NewMemStore(ctx)
	NewManager(restored, path).Load(ctx)

	want := store.Export(ctx)
	got := restored.Export(ctx)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestManager_LoadMissingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "absent.json")

	store := repository.NewMemStore(ctx)
	NewManager(store, path).Load(ctx)

	if snap := store.Export(ctx); len(snap.UserWindows) != 0 {
		t.Errorf("expected empty store after missing file, got %+v", snap)
	}
}

func TestManager_LoadCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := repository.NewMemStore(ctx)
	// Must not panic or abort; store stays at defaults.
	NewManager(store, path).Load(ctx)

	snap := store.Export(ctx)
	if len(snap.UserWindows) != 0 || snap.EventsReceivedTotal != 0 {
		t.Errorf("expected default state after corrupt file, got %+v", snap)
	}
}

func TestManager_EmptyPathDisablesPersistence(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemStore(ctx)
	m := NewManager(store, "")

	if err := m.Save(ctx); err != nil {
		t.Errorf("save with empty path should be a no-op, got %v", err)
	}
	m.Load(ctx)
}

func TestManager_SaveOverwritesAtomically(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	store := newSeededStore(ctx, t)
	m := NewManager(store, path)

	if err := m.Save(ctx); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	store.Insert(ctx, "u3", 400, 4.0)
	if err := m.Save(ctx); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	restored := repository.NewMemStore(ctx)
	NewManager(restored, path).Load(ctx)
	if got := restored.Export(ctx); len(got.UserWindows) != 3 {
		t.Errorf("expected 3 users after overwrite, got %d", len(got.UserWindows))
	}
}

func TestManager_RunPeriodicSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	path := filepath.Join(t.TempDir(), "state.json")
	store := newSeededStore(ctx, t)

	m := NewManager(store, path, WithInterval(20*time.Millisecond))
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("periodic save never produced a state file")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not exit on cancellation")
	}
}
