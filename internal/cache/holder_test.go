package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kk-code-lab/peek/internal/pool"
	"github.com/kk-code-lab/peek/internal/preview"
)

// queue collects jobs so tests decide when they run.
type queue struct {
	mu   sync.Mutex
	jobs []pool.Job
}

func (q *queue) Submit(job pool.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *queue) runAll() {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.mu.Unlock()
	for _, job := range jobs {
		job()
	}
}

type recordingBuilder struct {
	mu    sync.Mutex
	calls []preview.Request
}

func (b *recordingBuilder) Build(_ context.Context, req preview.Request) preview.Preview {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	b.mu.Unlock()
	return preview.NewText(preview.KindText, req.Path, []string{req.Path})
}

func (b *recordingBuilder) flags() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]bool, len(b.calls))
	for _, req := range b.calls {
		out[req.Path] = req.Flags.RefreshThumbnail
	}
	return out
}

func newHolder(capacity int) (*Holder, *queue, *recordingBuilder) {
	q := &queue{}
	b := &recordingBuilder{}
	h := New(context.Background(), b, q, Options{Capacity: capacity, ThumbnailWindow: 2})
	return h, q, b
}

func TestRequestBuildAtMostOneInFlight(t *testing.T) {
	h, q, _ := newHolder(10)

	var wg sync.WaitGroup
	var submitted atomic.Int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.RequestBuild("/dir/a") {
				submitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := q.len(); got != 1 {
		t.Fatalf("expected exactly one job, got %d", got)
	}
	if submitted.Load() != 1 || !h.InFlight("/dir/a") {
		t.Fatalf("expected one submission recorded as in flight")
	}

	q.runAll()
	if h.InFlight("/dir/a") {
		t.Fatalf("in-flight mark must be cleared on completion")
	}
	if h.RequestBuild("/dir/a") {
		t.Fatalf("cached path must not be rebuilt")
	}
}

func TestGetIsIdempotentAndNeverBuilds(t *testing.T) {
	h, q, _ := newHolder(10)
	if _, ok := h.Get("/x"); ok {
		t.Fatalf("unexpected hit on empty cache")
	}
	if q.len() != 0 {
		t.Fatalf("Get must not schedule builds")
	}

	h.RequestBuild("/x")
	q.runAll()
	first, ok := h.Get("/x")
	if !ok {
		t.Fatalf("expected cached preview")
	}
	for i := 0; i < 3; i++ {
		again, _ := h.Get("/x")
		if again != first {
			t.Fatalf("Get returned a different preview on call %d", i)
		}
	}
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	h, q, _ := newHolder(3)
	paths := []string{"/1", "/2", "/3", "/4", "/5"}
	for _, p := range paths {
		h.RequestBuild(p)
		q.runAll()
		if h.Len() > 3 {
			t.Fatalf("cache grew to %d", h.Len())
		}
	}

	for _, p := range paths[:2] {
		if _, ok := h.Get(p); ok {
			t.Fatalf("%s should have been evicted", p)
		}
	}
	for _, p := range paths[2:] {
		if _, ok := h.Get(p); !ok {
			t.Fatalf("%s should still be cached", p)
		}
	}
}

func TestRequestBuildManyClearsPreviousDirectory(t *testing.T) {
	h, q, _ := newHolder(10)
	for _, p := range []string{"/old/a", "/old/b", "/shared"} {
		h.RequestBuild(p)
	}
	q.runAll()

	h.RequestBuildMany([]string{"/new/a", "/shared"})
	for _, p := range []string{"/old/a", "/old/b"} {
		if _, ok := h.Get(p); ok {
			t.Fatalf("%s must not survive a directory switch", p)
		}
	}
	q.runAll()
	for _, p := range []string{"/new/a", "/shared"} {
		if _, ok := h.Get(p); !ok {
			t.Fatalf("%s should be built", p)
		}
	}
}

func TestRequestBuildManyThumbnailWindowAndCapacity(t *testing.T) {
	h, q, b := newHolder(3)
	submitted := h.RequestBuildMany([]string{"/a", "/b", "/c", "/d"})
	if submitted != 3 || q.len() != 3 {
		t.Fatalf("expected builds capped at capacity, got %d", submitted)
	}
	q.runAll()

	flags := b.flags()
	want := map[string]bool{"/a": true, "/b": true, "/c": false}
	for path, refresh := range want {
		if got, ok := flags[path]; !ok || got != refresh {
			t.Fatalf("%s refresh = %v (built %v), want %v", path, got, ok, refresh)
		}
	}
	if _, ok := flags["/d"]; ok {
		t.Fatalf("/d is beyond capacity and must not be built")
	}
}

func TestStaleCompletionAfterClearIsDiscarded(t *testing.T) {
	h, q, _ := newHolder(10)
	h.RequestBuild("/old")
	h.Clear()
	q.runAll()

	if _, ok := h.Get("/old"); ok {
		t.Fatalf("result from before Clear must be dropped")
	}
	if h.InFlight("/old") {
		t.Fatalf("finished build must clear its in-flight mark")
	}
	if !h.RequestBuild("/old") {
		t.Fatalf("cleared path should be requestable again")
	}
}

func TestRequestAfterClearAdoptsRunningBuild(t *testing.T) {
	h, q, b := newHolder(10)
	if !h.RequestBuild("/d/a") {
		t.Fatalf("expected first request to submit")
	}

	if submitted := h.RequestBuildMany([]string{"/d/a"}); submitted != 0 {
		t.Fatalf("queued build must be adopted, got %d new submissions", submitted)
	}
	if got := q.len(); got != 1 {
		t.Fatalf("expected exactly one job for /d/a, got %d", got)
	}
	if !h.InFlight("/d/a") {
		t.Fatalf("adopted build must stay in flight")
	}

	q.runAll()
	if _, ok := h.Get("/d/a"); !ok {
		t.Fatalf("adopted build should land in the cache")
	}
	if !b.flags()["/d/a"] {
		t.Fatalf("queued job should run with the flags of the adopting request")
	}
}

func TestAdoptKeepsFlagsOfStartedBuild(t *testing.T) {
	q := &queue{}
	release := make(chan struct{})
	started := make(chan struct{})
	b := &blockingBuilder{started: started, release: release}
	h := New(context.Background(), b, q, Options{Capacity: 4, ThumbnailWindow: 1})

	h.RequestBuild("/d/a")
	done := make(chan struct{})
	go func() {
		q.runAll()
		close(done)
	}()
	<-started

	h.RequestBuildMany([]string{"/d/a"})
	if got := q.len(); got != 0 {
		t.Fatalf("running build must be adopted, got %d queued", got)
	}
	close(release)
	<-done

	if _, ok := h.Get("/d/a"); !ok {
		t.Fatalf("adopted build should land in the cache")
	}
	if b.refresh {
		t.Fatalf("flags of a started build must not change")
	}
}

func TestInvalidatedFlightDoesNotClobberRebuild(t *testing.T) {
	h, q, _ := newHolder(10)
	h.RequestBuild("/x")
	h.Invalidate("/x")
	if !h.RequestBuild("/x") {
		t.Fatalf("invalidated path should be rebuildable")
	}
	if q.len() != 2 {
		t.Fatalf("expected both builds queued, got %d", q.len())
	}

	q.mu.Lock()
	superseded := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.mu.Unlock()
	superseded()

	if _, ok := h.Get("/x"); ok {
		t.Fatalf("superseded result must be dropped")
	}
	if !h.InFlight("/x") {
		t.Fatalf("superseded completion must not clear the newer in-flight mark")
	}
	q.runAll()
	if _, ok := h.Get("/x"); !ok || h.InFlight("/x") {
		t.Fatalf("current build should be cached and no longer in flight")
	}
}

type blockingBuilder struct {
	started chan struct{}
	release chan struct{}
	refresh bool
}

func (b *blockingBuilder) Build(_ context.Context, req preview.Request) preview.Preview {
	b.refresh = req.Flags.RefreshThumbnail
	close(b.started)
	<-b.release
	return preview.NewText(preview.KindText, req.Path, []string{req.Path})
}

func TestPutLiteralAndInvalidate(t *testing.T) {
	h, q, _ := newHolder(2)
	help := preview.NewText(preview.KindText, "help", []string{"? help"})
	h.PutLiteral("help://keys", help)
	if got, ok := h.Get("help://keys"); !ok || got != help {
		t.Fatalf("literal preview not stored")
	}
	if h.RequestBuild("help://keys") {
		t.Fatalf("literal path must count as cached")
	}

	h.Invalidate("help://keys")
	if _, ok := h.Get("help://keys"); ok {
		t.Fatalf("Invalidate should drop the entry")
	}
	if !h.RequestBuild("help://keys") || q.len() != 1 {
		t.Fatalf("invalidated path should be rebuildable")
	}
}

func TestScenarioCapacityTwoWithRealBuilds(t *testing.T) {
	dir := t.TempDir()
	paths := map[string]string{}
	for _, name := range []string{"a", "b", "c"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		paths[name] = path
	}

	workers := pool.New(2, nil)
	defer workers.Close()
	factory := preview.NewFactory(preview.Options{TempDir: t.TempDir()}, nil)
	h := New(context.Background(), preview.NewBuilder(factory, nil, nil, nil), workers, Options{Capacity: 2})

	build := func(path string) preview.Preview {
		t.Helper()
		h.RequestBuild(path)
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if p, ok := h.Get(path); ok {
				return p
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("build of %s did not complete", path)
		return nil
	}

	a := build(paths["a"])
	if a.Kind() != preview.KindText || a.Len() != 1 {
		t.Fatalf("expected one-line text preview, got %v/%d", a.Kind(), a.Len())
	}
	build(paths["b"])
	build(paths["c"])

	if _, ok := h.Get(paths["a"]); ok {
		t.Fatalf("/a should have been evicted")
	}
	for _, name := range []string{"b", "c"} {
		if _, ok := h.Get(paths[name]); !ok {
			t.Fatalf("%s should be cached", name)
		}
	}
}

func TestRequestThumbnailRebuildsStaleThumbnail(t *testing.T) {
	h, q, b := newHolder(4)
	stale := preview.NewThumbnail(preview.KindImage, "/d/photo.png", "", 0, []string{"PNG 10x10"})
	h.PutLiteral("/d/photo.png", stale)

	if h.RequestBuild("/d/photo.png") {
		t.Fatalf("plain request must keep the cached preview")
	}
	if !h.RequestThumbnail("/d/photo.png") || q.len() != 1 {
		t.Fatalf("stale thumbnail should be rebuilt with a refresh pass")
	}
	if h.RequestThumbnail("/d/photo.png") || q.len() != 1 {
		t.Fatalf("rebuild already in flight must not be submitted twice")
	}
	if got, ok := h.Get("/d/photo.png"); !ok || got != stale {
		t.Fatalf("stale preview should stay visible until the rebuild lands")
	}

	q.runAll()
	if got, _ := h.Get("/d/photo.png"); got == stale {
		t.Fatalf("rebuild did not replace the stale thumbnail")
	}
	if !b.flags()["/d/photo.png"] {
		t.Fatalf("rebuild must ask for a thumbnail refresh")
	}

	current := preview.NewThumbnail(preview.KindImage, "/d/other.png", "/tmp/t.png", 0, nil)
	h.PutLiteral("/d/other.png", current)
	if h.RequestThumbnail("/d/other.png") {
		t.Fatalf("current thumbnail must not be rebuilt")
	}
}
