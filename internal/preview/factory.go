package preview

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	fsutil "github.com/kk-code-lab/peek/internal/fs"
)

// Options tunes the built-in strategies.
type Options struct {
	TempDir           string
	TextMaxBytes      int64
	SyntaxMaxBytes    int64
	SyntaxStyle       string
	TreeDepth         int
	TreeMaxLines      int
	HideHidden        bool
	HelperTimeout     time.Duration
	VideoThumbnailTTL time.Duration
}

// Flags carry per-request choices into a build.
type Flags struct {
	// RefreshThumbnail regenerates stale on-disk thumbnails instead of reusing them.
	RefreshThumbnail bool
}

type strategy func(ctx context.Context, f *Factory, path string, info os.FileInfo, flags Flags) (Preview, error)

// strategies maps a content category to its helper-backed builder. A
// strategy returning ErrHelperMissing lets the content sniffing rule run.
var strategies = map[Category]strategy{
	CategoryArchive:  buildArchive,
	CategoryImage:    buildImage,
	CategoryAudio:    buildMediaInfo,
	CategoryVideo:    buildVideo,
	CategoryFont:     buildFont,
	CategorySvg:      buildSvg,
	CategoryPdf:      buildPdf,
	CategoryIso:      buildIso,
	CategoryNotebook: buildNotebook,
	CategoryOffice:   buildOffice,
	CategoryEpub:     buildEpub,
	CategoryTorrent:  buildTorrent,
}

// Factory builds previews with the built-in strategies.
type Factory struct {
	opts      Options
	logger    *log.Logger
	lookPath  LookPath
	run       Runner
	now       func() time.Time
	artifacts *Artifacts
	videos    singleflight.Group
}

// NewFactory returns a factory that resolves helpers on $PATH.
func NewFactory(opts Options, logger *log.Logger) *Factory {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Factory{
		opts:      opts,
		logger:    logger,
		lookPath:  exec.LookPath,
		run:       execRunner,
		now:       time.Now,
		artifacts: NewArtifacts(opts.TempDir),
	}
}

// Artifacts exposes the temporary thumbnail files managed by the factory.
func (f *Factory) Artifacts() *Artifacts { return f.artifacts }

// Build produces a preview for path whose kind has already been classified.
// Directories become trees, special files are handed to their inspector,
// regular files go through the extension strategies and then content
// sniffing. Missing helpers never surface as errors.
func (f *Factory) Build(ctx context.Context, path string, kind fsutil.Kind, flags Flags) (Preview, error) {
	switch {
	case kind == fsutil.KindDirectory:
		return f.buildTree(path), nil
	case kind.IsSpecial():
		p, err := f.buildSpecial(ctx, path, kind)
		if errors.Is(err, ErrHelperMissing) {
			f.logger.Debug("no inspector for special file", "path", path, "err", err)
			return NewEmpty(kind.String()), nil
		}
		return p, err
	case kind == fsutil.KindSymlink:
		target, err := os.Readlink(path)
		if err != nil {
			return nil, &BuildError{Strategy: "symlink", Path: path, Err: err}
		}
		return NewText(KindText, filepath.Base(path), []string{"broken symlink → " + target}), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &BuildError{Strategy: "stat", Path: path, Err: err}
	}

	category := CategoryOf(path)
	if build, ok := strategies[category]; ok {
		p, err := build(ctx, f, path, info, flags)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, ErrHelperMissing):
			f.logger.Debug("helper unavailable, falling back", "path", path, "category", category, "err", err)
		default:
			return nil, &BuildError{Strategy: category.String(), Path: path, Err: err}
		}
	}

	return f.buildContent(path, info)
}

func (f *Factory) buildTree(path string) Preview {
	lines := fsutil.BuildTree(path, fsutil.TreeOptions{
		MaxDepth:   f.opts.TreeDepth,
		MaxLines:   f.opts.TreeMaxLines,
		HideHidden: f.opts.HideHidden,
	})
	return NewTree(path, lines)
}
