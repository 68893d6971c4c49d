// Package watch invalidates cached previews of files that change on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/kk-code-lab/peek/internal/logging"
)

// DefaultDebounce is how long a path must stay quiet before it is rebuilt.
const DefaultDebounce = 300 * time.Millisecond

// Target is the preview cache as seen by the watcher.
type Target interface {
	Invalidate(path string)
	RequestBuild(path string) bool
}

// Watcher follows one directory at a time.
type Watcher struct {
	fsw      *fsnotify.Watcher
	target   Target
	debounce time.Duration
	logger   *log.Logger

	// OnChange, if set, is called from the watcher goroutine with the
	// paths flushed in one batch.
	OnChange func(paths []string)

	mu      sync.Mutex
	dir     string
	pending map[string]time.Time
}

// New creates a watcher that reports into target.
func New(target Target, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		fsw:      fsw,
		target:   target,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}, nil
}

// Watch switches the watched directory to dir.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		if err := w.fsw.Remove(w.dir); err != nil {
			w.logger.Debug("unwatch failed", "dir", w.dir, "err", err)
		}
	}
	w.dir = ""
	clear(w.pending)
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.dir = dir
	return nil
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.record(event.Name, time.Now())
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) record(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if filepath.Dir(path) != w.dir {
		return
	}
	w.pending[path] = at
}

// flush rebuilds paths that have been quiet for the debounce interval.
// Removed files are only invalidated.
func (w *Watcher) flush(now time.Time) []string {
	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			delete(w.pending, path)
			ready = append(ready, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.target.Invalidate(path)
		if _, err := os.Lstat(path); err == nil {
			w.target.RequestBuild(path)
		}
		w.logger.Debug("preview invalidated", "path", path)
	}
	if len(ready) > 0 && w.OnChange != nil {
		w.OnChange(ready)
	}
	return ready
}
