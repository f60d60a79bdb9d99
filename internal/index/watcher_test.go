package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietOptions() LoadOptions {
	return LoadOptions{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))}
}

func TestWatcher_RebuildsOnNewFile(t *testing.T) {
	dir, store := corpus(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2024-01-01\n---\n",
	})
	opts := quietOptions()
	initial, err := BuildIndex(context.Background(), store, opts)
	if err != nil {
		t.Fatal(err)
	}
	holder := NewHolder(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	go Watch(ctx, store, dir, opts, holder, func(*Artifact) { reloads.Add(1) })
	time.Sleep(100 * time.Millisecond)

	if err := store.Write("sub/b.md", []byte("---\ntitle: B\ndate: 2024-02-01\n---\n")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		_, ok := holder.Load().Lookup("b")
		return ok
	}, "new document was not picked up")
	if reloads.Load() == 0 {
		t.Error("reload callback not called")
	}
}

func TestWatcher_RebuildsWhenDirectoryMovedOut(t *testing.T) {
	dir, store := corpus(t, map[string]string{
		"a.md":     "---\ntitle: A\ndate: 2024-01-01\n---\n",
		"sub/b.md": "---\ntitle: B\ndate: 2024-02-01\n---\n",
	})
	opts := quietOptions()
	initial, err := BuildIndex(context.Background(), store, opts)
	if err != nil {
		t.Fatal(err)
	}
	holder := NewHolder(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, store, dir, opts, holder, nil)
	time.Sleep(100 * time.Millisecond)

	if err := os.Rename(filepath.Join(dir, "sub"), filepath.Join(t.TempDir(), "sub")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		_, ok := holder.Load().Lookup("b")
		return !ok
	}, "article in the moved directory is still indexed")
	if _, ok := holder.Load().Lookup("a"); !ok {
		t.Error("remaining article dropped")
	}
}

func TestWatcher_KeepsPreviousOnFailure(t *testing.T) {
	dir, store := corpus(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2024-01-01\n---\n",
	})
	opts := quietOptions()
	initial, err := BuildIndex(context.Background(), store, opts)
	if err != nil {
		t.Fatal(err)
	}
	holder := NewHolder(initial)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	go Watch(ctx, store, dir, opts, holder, func(*Artifact) { reloads.Add(1) })
	time.Sleep(100 * time.Millisecond)

	// Missing date makes the corpus invalid.
	if err := store.Write("broken.md", []byte("---\ntitle: Broken\n---\n")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)

	if holder.Load() != initial {
		t.Error("failed rebuild replaced the live artifact")
	}
	if reloads.Load() != 0 {
		t.Errorf("reloads = %d, want 0", reloads.Load())
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir, store := corpus(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, store, dir, quietOptions(), NewHolder(nil), nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
