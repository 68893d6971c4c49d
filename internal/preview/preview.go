// Package preview models render-ready previews and builds them for paths.
//
// A Preview is immutable once constructed: the cache replaces entries
// wholesale and the render loop may keep drawing a value after it has been
// evicted. Accessors hand out read-only views; callers must not modify the
// slices they receive.
package preview

import (
	"fmt"

	fsutil "github.com/kk-code-lab/peek/internal/fs"
)

// Kind tags the content category of a Preview.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindSyntax
	KindBinary
	KindArchive
	KindMedia
	KindTree
	KindImage
	KindVideo
	KindPdf
	KindFont
	KindSvg
	KindOffice
	KindSocket
	KindBlockDevice
	KindFifo
	KindIso
	KindTorrent
	KindCommand
)

var kindNames = [...]string{
	KindEmpty:       "empty",
	KindText:        "text",
	KindSyntax:      "syntax",
	KindBinary:      "binary",
	KindArchive:     "archive",
	KindMedia:       "media",
	KindTree:        "tree",
	KindImage:       "image",
	KindVideo:       "video",
	KindPdf:         "pdf",
	KindFont:        "font",
	KindSvg:         "svg",
	KindOffice:      "office",
	KindSocket:      "socket",
	KindBlockDevice: "block device",
	KindFifo:        "fifo",
	KindIso:         "iso",
	KindTorrent:     "torrent",
	KindCommand:     "command",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Preview is the closed set of preview variants.
type Preview interface {
	Kind() Kind
	// Len is the number of scrollable lines; thumbnails report their page count or 0.
	Len() int
	// Title is a short header shown above the preview.
	Title() string
	sealed()
}

// Empty is shown when nothing can be previewed.
type Empty struct {
	reason string
}

// NewEmpty returns an empty preview carrying an optional reason for display.
func NewEmpty(reason string) *Empty { return &Empty{reason: reason} }

func (*Empty) Kind() Kind       { return KindEmpty }
func (*Empty) Len() int         { return 0 }
func (*Empty) Title() string    { return "" }
func (e *Empty) Reason() string { return e.reason }
func (*Empty) sealed()          {}

// Text is a plain list of lines. It backs the text view as well as the
// tool-output categories (media info, device info, iso and torrent listings).
type Text struct {
	kind  Kind
	title string
	lines []string
}

// NewText builds a Text preview of the given kind. The lines slice is owned
// by the preview afterwards.
func NewText(kind Kind, title string, lines []string) *Text {
	return &Text{kind: kind, title: title, lines: lines}
}

func (t *Text) Kind() Kind        { return t.kind }
func (t *Text) Len() int          { return len(t.lines) }
func (t *Text) Title() string     { return t.title }
func (t *Text) Line(i int) string { return t.lines[i] }
func (t *Text) Lines() []string   { return t.lines }
func (*Text) sealed()             {}

// Styled holds colored lines: syntax-highlighted source or captured command
// output with ANSI colors.
type Styled struct {
	kind  Kind
	title string
	lines []StyledLine
}

// NewStyled builds a Styled preview of kind KindSyntax or KindCommand.
func NewStyled(kind Kind, title string, lines []StyledLine) *Styled {
	return &Styled{kind: kind, title: title, lines: lines}
}

func (s *Styled) Kind() Kind            { return s.kind }
func (s *Styled) Len() int              { return len(s.lines) }
func (s *Styled) Title() string         { return s.title }
func (s *Styled) Line(i int) StyledLine { return s.lines[i] }
func (*Styled) sealed()                 {}

// Binary is a hex dump of the head of a file.
type Binary struct {
	title      string
	rows       []string
	byteCount  int
	totalBytes int64
}

func (b *Binary) Kind() Kind        { return KindBinary }
func (b *Binary) Len() int          { return len(b.rows) }
func (b *Binary) Title() string     { return b.title }
func (b *Binary) Line(i int) string { return b.rows[i] }
func (b *Binary) ByteCount() int    { return b.byteCount }
func (b *Binary) TotalBytes() int64 { return b.totalBytes }
func (*Binary) sealed()             {}

// Archive lists the entry names of an archive.
type Archive struct {
	title   string
	entries []string
}

// NewArchive builds an archive listing.
func NewArchive(title string, entries []string) *Archive {
	return &Archive{title: title, entries: entries}
}

func (a *Archive) Kind() Kind         { return KindArchive }
func (a *Archive) Len() int           { return len(a.entries) }
func (a *Archive) Title() string      { return a.title }
func (a *Archive) Entry(i int) string { return a.entries[i] }
func (*Archive) sealed()              {}

// Tree is a depth-limited directory tree.
type Tree struct {
	root  string
	lines []fsutil.TreeLine
}

// NewTree wraps rows produced by the tree builder.
func NewTree(root string, lines []fsutil.TreeLine) *Tree {
	return &Tree{root: root, lines: lines}
}

func (t *Tree) Kind() Kind                 { return KindTree }
func (t *Tree) Len() int                   { return len(t.lines) }
func (t *Tree) Title() string              { return t.root }
func (t *Tree) Line(i int) fsutil.TreeLine { return t.lines[i] }
func (*Tree) sealed()                      {}

// Thumbnail references an image rendered to disk for image-like content
// (images, video frames, pdf and office pages, fonts, svg).
type Thumbnail struct {
	kind   Kind
	source string
	image  string
	pages  int
	info   []string
	shared *Artifacts
}

// NewThumbnail builds a thumbnail reference. pages is only meaningful for
// paged documents.
func NewThumbnail(kind Kind, source, image string, pages int, info []string) *Thumbnail {
	return &Thumbnail{kind: kind, source: source, image: image, pages: pages, info: info}
}

// newSharedThumbnail references an image in the shared artifact set, which a
// later build of another file may overwrite.
func newSharedThumbnail(kind Kind, source, image string, pages int, info []string, a *Artifacts) *Thumbnail {
	t := NewThumbnail(kind, source, image, pages, info)
	t.shared = a
	return t
}

func (t *Thumbnail) Kind() Kind     { return t.kind }
func (t *Thumbnail) Title() string  { return t.source }
func (t *Thumbnail) Image() string  { return t.image }
func (t *Thumbnail) Info() []string { return t.info }
func (*Thumbnail) sealed()          {}

// Stale reports whether the image was never rendered or has since been
// replaced by another file's thumbnail. A stale thumbnail's info rows are
// still valid.
func (t *Thumbnail) Stale() bool {
	if t.image == "" {
		return true
	}
	return t.shared != nil && !t.shared.Holds(t.source)
}

// Len reports the page count for paged documents and 0 otherwise.
func (t *Thumbnail) Len() int {
	switch t.kind {
	case KindPdf, KindOffice:
		return t.pages
	default:
		return 0
	}
}

// PlainLine returns line i of p without styling, for consumers that only
// print text (the one-shot CLI, tests). Thumbnails render their info rows.
func PlainLine(p Preview, i int) string {
	switch v := p.(type) {
	case *Text:
		return v.Line(i)
	case *Styled:
		return v.Line(i).String()
	case *Binary:
		return v.Line(i)
	case *Archive:
		return v.Entry(i)
	case *Tree:
		return v.Line(i).String()
	case *Thumbnail:
		if i < len(v.info) {
			return v.info[i]
		}
	}
	return ""
}

// PlainRows is the number of rows PlainLine can return for p.
func PlainRows(p Preview) int {
	if t, ok := p.(*Thumbnail); ok {
		return len(t.info)
	}
	return p.Len()
}
