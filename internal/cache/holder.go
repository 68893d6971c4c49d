// Package cache holds built previews keyed by path and schedules builds for
// missing ones on the worker pool.
package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/kk-code-lab/peek/internal/logging"
	"github.com/kk-code-lab/peek/internal/pool"
	"github.com/kk-code-lab/peek/internal/preview"
)

const (
	// DefaultCapacity bounds the number of cached previews.
	DefaultCapacity = 500
	// DefaultThumbnailWindow is how many requests of a directory batch also
	// refresh stale thumbnails.
	DefaultThumbnailWindow = 10
)

// Builder produces a preview for a request. It must not fail.
type Builder interface {
	Build(ctx context.Context, req preview.Request) preview.Preview
}

// Submitter queues a job without blocking.
type Submitter interface {
	Submit(job pool.Job) error
}

// Options configures a Holder.
type Options struct {
	Capacity        int
	ThumbnailWindow int
	Logger          *log.Logger
	Diagnostics     *logging.Diagnostics
}

type entry struct {
	path    string
	preview preview.Preview
}

// flight is one submitted build. A request that finds a flight from an
// earlier epoch adopts it instead of submitting again. A thumbnail refresh
// upgrades the flight's flags if the job has not started yet.
type flight struct {
	epoch   uint64
	flags   preview.Flags
	started bool
}

// Holder is a bounded path→preview map with at most one build in flight per
// path. Entries are evicted oldest-inserted first. The lock is held only for
// map operations, never during a build.
type Holder struct {
	mu       sync.RWMutex
	entries  map[string]*list.Element
	order    *list.List
	inflight map[string]*flight
	epoch    uint64

	capacity int
	window   int
	ctx      context.Context
	builder  Builder
	pool     Submitter
	logger   *log.Logger
	diag     *logging.Diagnostics
}

// New creates an empty holder whose builds run on p. ctx is handed to every
// build.
func New(ctx context.Context, builder Builder, p Submitter, opts Options) *Holder {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.ThumbnailWindow < 0 {
		opts.ThumbnailWindow = DefaultThumbnailWindow
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Holder{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		inflight: make(map[string]*flight),
		capacity: opts.Capacity,
		window:   opts.ThumbnailWindow,
		ctx:      ctx,
		builder:  builder,
		pool:     p,
		logger:   opts.Logger,
		diag:     opts.Diagnostics,
	}
}

// Capacity returns the maximum number of cached previews.
func (h *Holder) Capacity() int { return h.capacity }

// Get returns the cached preview for path. It never starts a build.
func (h *Holder) Get(path string) (preview.Preview, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	el, ok := h.entries[path]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).preview, true
}

// Len returns the number of cached previews.
func (h *Holder) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// InFlight reports whether a build for path has been submitted and has not
// completed yet.
func (h *Holder) InFlight(path string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.inflight[path]
	return ok
}

// RequestBuild schedules a build for path unless it is cached or already
// being built. It reports whether a job was submitted.
func (h *Holder) RequestBuild(path string) bool {
	return h.request(path, preview.Flags{})
}

// RequestThumbnail is RequestBuild with a thumbnail refresh pass. A cached
// thumbnail whose image is stale is rebuilt; it stays visible until the new
// one lands.
func (h *Holder) RequestThumbnail(path string) bool {
	return h.request(path, preview.Flags{RefreshThumbnail: true})
}

// RequestBuildMany replaces the cache contents with builds for paths, as on
// a directory change. Only the first paths up to capacity are requested and
// only the leading thumbnail window refreshes thumbnails.
func (h *Holder) RequestBuildMany(paths []string) int {
	h.Clear()
	if len(paths) > h.capacity {
		paths = paths[:h.capacity]
	}
	submitted := 0
	for i, path := range paths {
		if h.request(path, preview.Flags{RefreshThumbnail: i < h.window}) {
			submitted++
		}
	}
	return submitted
}

// PutLiteral stores a preview that was built elsewhere, such as the help
// screen or captured command output.
func (h *Holder) PutLiteral(path string, p preview.Preview) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.insert(path, p)
}

// Clear drops every cached preview. Builds still in flight finish; their
// results are discarded unless the path is requested again first, in which
// case the running build serves the new request.
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make(map[string]*list.Element)
	h.order.Init()
	h.epoch++
}

// Invalidate forgets the cached preview for path so the next request
// rebuilds it.
func (h *Holder) Invalidate(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if el, ok := h.entries[path]; ok {
		h.order.Remove(el)
		delete(h.entries, path)
	}
	delete(h.inflight, path)
}

func (h *Holder) request(path string, flags preview.Flags) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if el, ok := h.entries[path]; ok && !(flags.RefreshThumbnail && staleThumbnail(el.Value.(*entry).preview)) {
		return false
	}
	if f, ok := h.inflight[path]; ok {
		f.epoch = h.epoch
		if !f.started && flags.RefreshThumbnail {
			f.flags.RefreshThumbnail = true
		}
		return false
	}

	f := &flight{epoch: h.epoch, flags: flags}
	err := h.pool.Submit(func() {
		req := h.start(path, f)
		p := h.builder.Build(h.ctx, req)
		h.complete(path, f, p)
	})
	if err != nil {
		h.diag.Report(log.WarnLevel, "cannot schedule preview", "path", path, "err", err)
		return false
	}
	h.inflight[path] = f
	return true
}

func (h *Holder) start(path string, f *flight) preview.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	f.started = true
	return preview.Request{Path: path, Flags: f.flags}
}

// complete records a finished build. The in-flight mark is cleared only by
// the build that set it. Results from a flight that was invalidated, or
// cleared and not requested again, are dropped.
func (h *Holder) complete(path string, f *flight, p preview.Preview) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inflight[path] != f {
		h.logger.Debug("discarding superseded preview", "path", path)
		return
	}
	delete(h.inflight, path)
	if f.epoch != h.epoch {
		h.logger.Debug("discarding stale preview", "path", path)
		return
	}
	if p == nil {
		p = preview.NewEmpty("")
	}
	h.insert(path, p)
}

func staleThumbnail(p preview.Preview) bool {
	t, ok := p.(*preview.Thumbnail)
	return ok && t.Stale()
}

// insert must be called with mu held. A replaced entry counts as a new
// insertion.
func (h *Holder) insert(path string, p preview.Preview) {
	if el, ok := h.entries[path]; ok {
		h.order.Remove(el)
		delete(h.entries, path)
	}
	for len(h.entries) >= h.capacity {
		oldest := h.order.Front()
		if oldest == nil {
			break
		}
		evicted := h.order.Remove(oldest).(*entry)
		delete(h.entries, evicted.path)
	}
	h.entries[path] = h.order.PushBack(&entry{path: path, preview: p})
}
