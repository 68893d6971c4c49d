package preview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	fsutil "github.com/kk-code-lab/peek/internal/fs"
)

type fakeTools struct {
	mu        sync.Mutex
	available map[string]bool
	outputs   map[string]string
	failures  map[string]error
	calls     []string
}

func (ft *fakeTools) lookPath(name string) (string, error) {
	if ft.available[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("not found")
}

func (ft *fakeTools) run(_ context.Context, name string, args ...string) ([]byte, error) {
	base := filepath.Base(name)
	ft.mu.Lock()
	ft.calls = append(ft.calls, base+" "+strings.Join(args, " "))
	ft.mu.Unlock()
	if err := ft.failures[base]; err != nil {
		return nil, err
	}
	return []byte(ft.outputs[base]), nil
}

func (ft *fakeTools) callCount(prefix string) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	n := 0
	for _, c := range ft.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func newTestFactory(t *testing.T, tools *fakeTools) *Factory {
	t.Helper()
	f := NewFactory(Options{
		TempDir:           t.TempDir(),
		SyntaxStyle:       "monokai",
		TreeDepth:         2,
		HelperTimeout:     time.Second,
		VideoThumbnailTTL: time.Hour,
	}, nil)
	if tools == nil {
		tools = &fakeTools{}
	}
	f.lookPath = tools.lookPath
	f.run = tools.run
	return f
}

func writeFixture(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestBuildSmallTextFile(t *testing.T) {
	f := newTestFactory(t, nil)
	path := writeFixture(t, t.TempDir(), "a", []byte("hi"))

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	text, ok := p.(*Text)
	if !ok || text.Kind() != KindText {
		t.Fatalf("expected Text preview, got %T (%v)", p, p.Kind())
	}
	if text.Len() != 1 || text.Line(0) != "hi" {
		t.Fatalf("unexpected lines %q", text.Lines())
	}
}

func TestBuildHighlightsSource(t *testing.T) {
	f := newTestFactory(t, nil)
	path := writeFixture(t, t.TempDir(), "main.go", []byte("package main\n\nfunc main() {}\n"))

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Kind() != KindSyntax {
		t.Fatalf("expected syntax preview, got %v", p.Kind())
	}
	if p.Len() != 3 {
		t.Fatalf("expected 3 lines, got %d", p.Len())
	}
	if got := PlainLine(p, 0); got != "package main" {
		t.Fatalf("first line = %q", got)
	}
}

func TestBuildHighlightsShebangScriptWithoutExtension(t *testing.T) {
	f := newTestFactory(t, nil)
	path := writeFixture(t, t.TempDir(), "deploy", []byte("#!/bin/bash\necho hi\n"))

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Kind() != KindSyntax {
		t.Fatalf("expected shebang script to be highlighted, got %v", p.Kind())
	}
}

func TestBuildSyntaxCeilingFallsBackToText(t *testing.T) {
	f := newTestFactory(t, nil)
	f.opts.SyntaxMaxBytes = 4
	path := writeFixture(t, t.TempDir(), "main.go", []byte("package main\n"))

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Kind() != KindText {
		t.Fatalf("expected plain text above the syntax ceiling, got %v", p.Kind())
	}
}

func TestBuildBinaryHexDump(t *testing.T) {
	f := newTestFactory(t, nil)
	content := []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c}
	path := writeFixture(t, t.TempDir(), "prog", content)

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bin, ok := p.(*Binary)
	if !ok {
		t.Fatalf("expected Binary preview, got %T", p)
	}
	if bin.Len() != 2 {
		t.Fatalf("expected 2 hex rows, got %d", bin.Len())
	}
	if !strings.HasPrefix(bin.Line(0), "00000000  7F 45 4C 46 00") {
		t.Fatalf("unexpected hex row %q", bin.Line(0))
	}
	if !strings.HasSuffix(bin.Line(0), "|.ELF............|") {
		t.Fatalf("unexpected ascii column %q", bin.Line(0))
	}
}

func TestBuildMissingHelperFallsBackToContent(t *testing.T) {
	f := newTestFactory(t, &fakeTools{})
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
	path := writeFixture(t, t.TempDir(), "photo.png", png)

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("missing helper must not be an error: %v", err)
	}
	if p.Kind() != KindBinary {
		t.Fatalf("expected hex fallback, got %v", p.Kind())
	}
}

func TestBuildArchiveListing(t *testing.T) {
	tools := &fakeTools{
		available: map[string]bool{helperUnzip: true},
		outputs:   map[string]string{helperUnzip: "docs/\ndocs/readme.md\nmain.go\n"},
	}
	f := newTestFactory(t, tools)
	path := writeFixture(t, t.TempDir(), "bundle.zip", []byte("PK\x03\x04"))

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	archive, ok := p.(*Archive)
	if !ok {
		t.Fatalf("expected Archive preview, got %T", p)
	}
	if archive.Len() != 3 || archive.Entry(2) != "main.go" {
		t.Fatalf("unexpected entries: %d", archive.Len())
	}
}

func TestBuildHelperFailureIsBuildError(t *testing.T) {
	tools := &fakeTools{
		available: map[string]bool{helperTar: true},
		failures:  map[string]error{helperTar: errors.New("exit status 2")},
	}
	f := newTestFactory(t, tools)
	path := writeFixture(t, t.TempDir(), "broken.tar", []byte("garbage"))

	_, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	var buildErr *BuildError
	if !errors.As(err, &buildErr) || buildErr.Strategy != "archive" {
		t.Fatalf("expected archive BuildError, got %v", err)
	}
}

func TestBuildDirectoryTree(t *testing.T) {
	f := newTestFactory(t, nil)
	dir := t.TempDir()
	writeFixture(t, dir, "one.txt", []byte("1"))
	writeFixture(t, dir, "two.txt", []byte("2"))

	p, err := f.Build(context.Background(), dir, fsutil.KindDirectory, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Kind() != KindTree || p.Len() != 3 {
		t.Fatalf("expected tree of 3 rows, got %v with %d", p.Kind(), p.Len())
	}
}

func TestBuildSpecialWithoutInspectorIsEmpty(t *testing.T) {
	f := newTestFactory(t, &fakeTools{})
	p, err := f.Build(context.Background(), "/run/some.sock", fsutil.KindSocket, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Kind() != KindEmpty {
		t.Fatalf("expected Empty, got %v", p.Kind())
	}
}

func TestBuildSocketFiltersListenerRows(t *testing.T) {
	tools := &fakeTools{
		available: map[string]bool{helperSS: true},
		outputs: map[string]string{helperSS: "Netid State Local\n" +
			"u_str LISTEN /run/app.sock 1234\n" +
			"u_str LISTEN /run/other.sock 99\n"},
	}
	f := newTestFactory(t, tools)
	p, err := f.Build(context.Background(), "/run/app.sock", fsutil.KindSocket, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	text := p.(*Text)
	joined := strings.Join(text.Lines(), "\n")
	if !strings.Contains(joined, "/run/app.sock 1234") || strings.Contains(joined, "other.sock") {
		t.Fatalf("unexpected socket listing:\n%s", joined)
	}
}

func TestVideoThumbnailReuse(t *testing.T) {
	tools := &fakeTools{available: map[string]bool{helperFFmpegThumb: true}}
	f := newTestFactory(t, tools)
	path := writeFixture(t, t.TempDir(), "clip.mp4", []byte("not really a video"))

	thumb := f.Artifacts().VideoPath(path)
	if err := os.WriteFile(thumb, []byte("jpg"), 0o644); err != nil {
		t.Fatalf("seed thumbnail: %v", err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(thumb, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := tools.callCount(helperFFmpegThumb); got != 0 {
		t.Fatalf("stale thumbnail should be reused without a refresh pass, got %d runs", got)
	}
	if p.(*Thumbnail).Image() != thumb {
		t.Fatalf("expected thumbnail reference %s", thumb)
	}

	if _, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{RefreshThumbnail: true}); err != nil {
		t.Fatalf("Build refresh: %v", err)
	}
	if got := tools.callCount(helperFFmpegThumb); got != 1 {
		t.Fatalf("refresh pass should regenerate the stale thumbnail, got %d runs", got)
	}
}

func TestPdfThumbnailReportsPages(t *testing.T) {
	tools := &fakeTools{
		available: map[string]bool{helperPdfToPpm: true, helperPdfInfo: true},
		outputs:   map[string]string{helperPdfInfo: "Title: x\nPages:          12\n"},
	}
	f := newTestFactory(t, tools)
	path := writeFixture(t, t.TempDir(), "paper.pdf", []byte("%PDF-1.7"))

	p, err := f.Build(context.Background(), path, fsutil.KindFile, Flags{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Kind() != KindPdf || p.Len() != 12 {
		t.Fatalf("expected pdf thumbnail with 12 pages, got %v/%d", p.Kind(), p.Len())
	}
}

func TestArtifactsCleanupRemovesSharedFiles(t *testing.T) {
	a := NewArtifacts(t.TempDir())
	shared := a.Path(thumbnailName)
	if err := os.WriteFile(shared, []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	video := a.VideoPath("/movies/a.mkv")
	if err := os.WriteFile(video, []byte("jpg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := a.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(shared); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected shared thumbnail removed")
	}
	if _, err := os.Stat(video); err != nil {
		t.Fatalf("video thumbnails are cached and must survive cleanup: %v", err)
	}
	if a.VideoPath("/movies/a.mkv") == a.VideoPath("/movies/b.mkv") {
		t.Fatalf("video thumbnails must be keyed by source")
	}
}

func TestSharedThumbnailsRenderOnlyOnRefresh(t *testing.T) {
	tools := &fakeTools{available: map[string]bool{helperMagick: true, helperRsvg: true}}
	f := newTestFactory(t, tools)
	dir := t.TempDir()
	img := writeFixture(t, dir, "photo.png", []byte("png"))
	logo := writeFixture(t, dir, "logo.svg", []byte("<svg/>"))
	renders := func() int { return tools.callCount(helperMagick+" "+img) + tools.callCount(helperRsvg) }

	build := func(path string, flags Flags) *Thumbnail {
		t.Helper()
		p, err := f.Build(context.Background(), path, fsutil.KindFile, flags)
		if err != nil {
			t.Fatalf("Build %s: %v", path, err)
		}
		return p.(*Thumbnail)
	}

	outside := build(img, Flags{})
	if renders() != 0 || outside.Image() != "" || !outside.Stale() {
		t.Fatalf("build outside the thumbnail window must not render, got %d renders, image %q", renders(), outside.Image())
	}

	photo := build(img, Flags{RefreshThumbnail: true})
	if renders() != 1 || photo.Image() == "" || photo.Stale() {
		t.Fatalf("refresh should render a current thumbnail")
	}
	if reused := build(img, Flags{}); reused.Image() != photo.Image() || reused.Stale() || renders() != 1 {
		t.Fatalf("shared file still holding the source should be reused")
	}

	svg := build(logo, Flags{RefreshThumbnail: true})
	if svg.Stale() {
		t.Fatalf("fresh svg thumbnail reported stale")
	}
	if !photo.Stale() {
		t.Fatalf("photo thumbnail must report stale once another file overwrote the shared set")
	}
	if again := build(img, Flags{}); again.Image() != "" {
		t.Fatalf("overwritten shared file must not be handed out, got %q", again.Image())
	}
}
