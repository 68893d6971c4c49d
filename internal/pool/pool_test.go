package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsEverySubmittedJob(t *testing.T) {
	p := New(3, nil)
	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()
	p.Close()

	if got := ran.Load(); got != 50 {
		t.Fatalf("ran %d jobs, want 50", got)
	}
	if stats := p.Stats(); stats.Completed != 50 || stats.Submitted != 50 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPoolSurvivesPanics(t *testing.T) {
	p := New(1, nil)
	defer p.Close()

	if err := p.Submit(func() { panic("bad preview") }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	done := make(chan struct{})
	if err := p.Submit(func() { close(done) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
	if got := p.Stats().Panicked; got != 1 {
		t.Fatalf("panicked = %d, want 1", got)
	}
}

func TestPoolSingleWorkerIsFIFO(t *testing.T) {
	p := New(1, nil)
	defer p.Close()
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		_ = p.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
	if len(order) != 10 {
		t.Fatalf("expected every job to run, ran %d", len(order))
	}
}

func TestPoolCloseDiscardsQueuedJobs(t *testing.T) {
	p := New(1, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	if err := p.Submit(func() {
		close(started)
		<-release
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		_ = p.Submit(func() {
			time.Sleep(100 * time.Millisecond)
			ran.Add(1)
		})
	}

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	// The worker is held by the first job, so only Close can empty the queue.
	for p.Stats().Pending != 0 {
		time.Sleep(time.Millisecond)
	}
	close(release)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close waited for queued jobs")
	}
	if got := ran.Load(); got != 0 {
		t.Fatalf("queued jobs ran after Close: %d", got)
	}
	stats := p.Stats()
	if stats.Discarded != 20 || stats.Completed != 1 || stats.Pending != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPoolSubmitAfterClose(t *testing.T) {
	p := New(2, nil)
	p.Close()
	if err := p.Submit(func() {}); err != ErrClosed {
		t.Fatalf("Submit after Close = %v, want ErrClosed", err)
	}
	p.Close()
}

func TestPoolClampsWorkerCount(t *testing.T) {
	p := New(0, nil)
	defer p.Close()
	if got := p.Stats().Workers; got != 1 {
		t.Fatalf("workers = %d, want 1", got)
	}
}
