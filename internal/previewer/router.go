// Package previewer builds previews for the second pane on a dedicated
// goroutine and hands them back tagged with the pane that asked.
package previewer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kk-code-lab/peek/internal/logging"
	"github.com/kk-code-lab/peek/internal/preview"
)

const (
	defaultBuffer = 16
	stopGrace     = 2 * time.Second
)

// Builder produces a preview for a request. It must not fail.
type Builder interface {
	Build(ctx context.Context, req preview.Request) preview.Preview
}

// Result is a finished build for one pane.
type Result struct {
	Path    string
	Pane    int
	Preview preview.Preview
}

type message struct {
	quit bool
	path string
	pane int
}

// Router is the second-pane actor. Requests and Quit share one channel, so
// they are handled strictly in arrival order.
type Router struct {
	ctx     context.Context
	builder Builder
	logger  *log.Logger
	diag    *logging.Diagnostics

	in      chan message
	out     chan Result
	done    chan struct{}
	halt    chan struct{}
	grace   time.Duration
	stopped atomic.Bool
	once    sync.Once
}

// New starts the router. buffer sizes both channels.
func New(ctx context.Context, builder Builder, buffer int, logger *log.Logger, diag *logging.Diagnostics) *Router {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Router{
		ctx:     ctx,
		builder: builder,
		logger:  logger,
		diag:    diag,
		in:      make(chan message, buffer),
		out:     make(chan Result, buffer),
		done:    make(chan struct{}),
		halt:    make(chan struct{}),
		grace:   stopGrace,
	}
	go r.run()
	return r
}

// Request asks for a preview of path for pane. It never blocks; when the
// router is stopped or its queue is full the request is refused and
// reported.
func (r *Router) Request(path string, pane int) bool {
	if r.stopped.Load() {
		return false
	}
	select {
	case r.in <- message{path: path, pane: pane}:
		return true
	default:
		r.diag.Report(log.WarnLevel, "second pane busy, request refused", "path", path, "pane", pane)
		return false
	}
}

// Poll returns a finished result if one is ready.
func (r *Router) Poll() (Result, bool) {
	select {
	case res := <-r.out:
		return res, true
	default:
		return Result{}, false
	}
}

// Results exposes the outbound channel for callers that select on it.
func (r *Router) Results() <-chan Result { return r.out }

// Stop queues Quit behind any pending requests and waits for the actor to
// exit. If nobody drains the results, so that neither Quit can be queued nor
// the actor can finish, it gives up after a grace period and drops what is
// left.
func (r *Router) Stop() {
	r.once.Do(func() {
		r.stopped.Store(true)
		grace := time.NewTimer(r.grace)
		defer grace.Stop()
		select {
		case r.in <- message{quit: true}:
		case <-r.done:
			return
		case <-grace.C:
			r.abandon()
			return
		}
		select {
		case <-r.done:
		case <-grace.C:
			r.abandon()
		}
	})
}

func (r *Router) abandon() {
	r.logger.Debug("second pane results not drained, halting router")
	close(r.halt)
	<-r.done
}

func (r *Router) run() {
	defer close(r.done)
	for msg := range r.in {
		if msg.quit {
			r.logger.Debug("second pane router stopped")
			return
		}
		select {
		case <-r.halt:
			return
		default:
		}
		p := r.builder.Build(r.ctx, preview.Request{Path: msg.path, Flags: preview.Flags{RefreshThumbnail: true}})
		select {
		case r.out <- Result{Path: msg.path, Pane: msg.pane, Preview: p}:
		case <-r.halt:
			r.logger.Debug("dropping second pane result on shutdown", "path", msg.path)
			return
		}
	}
}
