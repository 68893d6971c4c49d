package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeTarget struct {
	mu          sync.Mutex
	invalidated []string
	requested   []string
}

func (f *fakeTarget) Invalidate(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, path)
}

func (f *fakeTarget) RequestBuild(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, path)
	return true
}

func (f *fakeTarget) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invalidated...), append([]string(nil), f.requested...)
}

func newTestWatcher(t *testing.T, target Target) *Watcher {
	t.Helper()
	w, err := New(target, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestFlushDebouncesAndSkipsRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.txt")
	if err := os.WriteFile(kept, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	gone := filepath.Join(dir, "gone.txt")

	target := &fakeTarget{}
	w := newTestWatcher(t, target)
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	start := time.Now()
	w.record(kept, start)
	w.record(gone, start)
	w.record(filepath.Join(t.TempDir(), "elsewhere"), start)

	if ready := w.flush(start.Add(50 * time.Millisecond)); len(ready) != 0 {
		t.Fatalf("paths flushed before the debounce interval: %v", ready)
	}
	if ready := w.flush(start.Add(200 * time.Millisecond)); len(ready) != 2 {
		t.Fatalf("expected 2 flushed paths, got %v", ready)
	}

	invalidated, requested := target.snapshot()
	if len(invalidated) != 2 {
		t.Fatalf("invalidated = %v", invalidated)
	}
	if len(requested) != 1 || requested[0] != kept {
		t.Fatalf("only existing files are rebuilt, requested = %v", requested)
	}
}

func TestWatchSwitchDropsPendingPaths(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	target := &fakeTarget{}
	w := newTestWatcher(t, target)
	if err := w.Watch(first); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	w.record(filepath.Join(first, "a"), time.Now())
	if err := w.Watch(second); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if ready := w.flush(time.Now().Add(time.Second)); len(ready) != 0 {
		t.Fatalf("paths from the previous directory must be dropped, got %v", ready)
	}
}

func TestRunRebuildsModifiedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	target := &fakeTarget{}
	w := newTestWatcher(t, target)
	changed := make(chan []string, 4)
	w.OnChange = func(paths []string) { changed <- paths }
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case paths := <-changed:
		if len(paths) != 1 || paths[0] != path {
			t.Fatalf("changed = %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	if _, requested := target.snapshot(); len(requested) == 0 {
		t.Fatalf("modified file should be rebuilt")
	}
}
