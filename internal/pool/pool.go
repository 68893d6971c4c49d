// Package pool runs preview jobs on a fixed set of worker goroutines.
package pool

import (
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/kk-code-lab/peek/internal/logging"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("pool closed")

// Job is a unit of work. It owns everything it captures.
type Job func()

// Stats counts what the pool has done so far.
type Stats struct {
	Workers   int
	Submitted int64
	Completed int64
	Panicked  int64
	Discarded int64
	Pending   int
}

// Pool executes jobs in FIFO order on a fixed number of workers. Submit
// never blocks on a busy pool; jobs queue without bound.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Job
	closed  bool
	workers int
	logger  *log.Logger
	wg      sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	discarded atomic.Int64
}

// New starts a pool with the given number of workers, at least one.
func New(workers int, logger *log.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	p := &Pool{workers: workers, logger: logger}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	logger.Debug("worker pool started", "workers", workers)
	return p
}

// Submit enqueues job. It returns ErrClosed once the pool is shutting down.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return nil
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.pending = append(p.pending, job)
	p.submitted.Add(1)
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

// Close stops accepting jobs, discards those still queued and waits for
// the running ones to return. Queued jobs are never started after Close.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	dropped := len(p.pending)
	clear(p.pending)
	p.pending = nil
	p.mu.Unlock()
	p.discarded.Add(int64(dropped))
	p.cond.Broadcast()
	p.wg.Wait()
	p.logger.Debug("worker pool stopped",
		"submitted", p.submitted.Load(),
		"completed", p.completed.Load(),
		"panicked", p.panicked.Load(),
		"discarded", dropped)
}

// Stats returns a snapshot of the counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	pending := len(p.pending)
	p.mu.Unlock()
	return Stats{
		Workers:   p.workers,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
		Discarded: p.discarded.Load(),
		Pending:   pending,
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		p.execute(id, job)
	}
}

// next blocks until a job is queued or the pool is closed.
func (p *Pool) next() (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.pending) == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		return nil, false
	}
	job := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	return job, true
}

// execute runs job and keeps the worker alive if it panics.
func (p *Pool) execute(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("job panicked", "worker", id, "panic", r, "stack", string(debug.Stack()))
			return
		}
		p.completed.Add(1)
	}()
	job()
}
