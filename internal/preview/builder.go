package preview

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/charmbracelet/log"

	fsutil "github.com/kk-code-lab/peek/internal/fs"
	"github.com/kk-code-lab/peek/internal/logging"
)

// Claimer lets plugins take over a path before the built-in strategies run.
type Claimer interface {
	TryMatch(ctx context.Context, path string) (Preview, bool)
}

// Request is one preview build.
type Request struct {
	Path  string
	Flags Flags
}

// Builder runs plugins and then the factory, and turns every failure into
// an Empty preview. It is what the cache workers and the second-pane
// router call.
type Builder struct {
	factory  *Factory
	plugins  Claimer
	classify func(string) (fsutil.Kind, error)
	diag     *logging.Diagnostics
	logger   *log.Logger
}

// NewBuilder wires the factory with an optional plugin claimer.
func NewBuilder(factory *Factory, plugins Claimer, diag *logging.Diagnostics, logger *log.Logger) *Builder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{
		factory:  factory,
		plugins:  plugins,
		classify: fsutil.Classify,
		diag:     diag,
		logger:   logger,
	}
}

// Build never fails: unreadable paths, strategy errors and panics yield
// an Empty preview and a diagnostic.
func (b *Builder) Build(ctx context.Context, req Request) (p Preview) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("preview build panicked", "path", req.Path, "panic", r, "stack", string(debug.Stack()))
			b.diag.Report(log.ErrorLevel, "preview crashed", "path", req.Path)
			p = NewEmpty(fmt.Sprint(r))
		}
	}()

	kind, err := b.classify(req.Path)
	if err != nil {
		b.logger.Debug("cannot classify path", "path", req.Path, "err", err)
		return NewEmpty(err.Error())
	}

	if b.plugins != nil {
		if claimed, ok := b.plugins.TryMatch(ctx, req.Path); ok {
			return claimed
		}
	}

	built, err := b.factory.Build(ctx, req.Path, kind, req.Flags)
	if err != nil {
		b.fail(req.Path, err)
		return NewEmpty(err.Error())
	}
	if built == nil {
		return NewEmpty("")
	}
	return built
}

func (b *Builder) fail(path string, err error) {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		b.diag.Report(log.WarnLevel, "preview failed", "path", path, "strategy", buildErr.Strategy, "err", buildErr.Err)
		return
	}
	b.diag.Report(log.WarnLevel, "preview failed", "path", path, "err", err)
}

// NewCommandOutput wraps captured command output, keeping its ANSI colors.
func NewCommandOutput(title string, output []byte) *Styled {
	return NewStyled(KindCommand, title, ParseANSI(string(output)))
}
