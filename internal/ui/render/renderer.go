package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/kk-code-lab/peek/internal/logging"
	"github.com/kk-code-lab/peek/internal/preview"
	statepkg "github.com/kk-code-lab/peek/internal/state"
)

// Frame is everything the renderer needs for one redraw. Preview is nil
// while the main pane's preview is still being built.
type Frame struct {
	State     *statepkg.AppState
	Preview   preview.Preview
	Status    logging.Message
	HasStatus bool
}

// Renderer handles all screen drawing.
type Renderer struct {
	screen tcell.Screen
	theme  ColorTheme

	runeWidthCache   [128]int
	runeWidthCacheMu sync.RWMutex
	runeWidthWide    sync.Map
}

// NewRenderer creates a new renderer.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		theme:  GetColorTheme(),
	}
}

// Render draws the complete frame.
func (r *Renderer) Render(frame Frame) {
	state := frame.State
	if state == nil {
		return
	}
	w, h := r.screen.Size()
	r.screen.Clear()

	l := computeLayout(w, h, state.DualPane)

	r.drawHeader(state, w)
	r.drawFileList(state, l)
	if l.previewWidth > 0 {
		r.drawSeparator(l.previewX-1, l)
		r.drawPreviewPanel(frame.Preview, state.PreviewScroll, l.previewX, l.previewWidth, l, state.PreviewPath())
	}
	if state.DualPane && l.secondWidth > 0 {
		r.drawSeparator(l.secondX-1, l)
		r.drawSecondPane(state, l)
	}
	r.drawStatusLine(frame, w, h)
	r.drawFooter(w, h)

	r.screen.Show()
}

func (r *Renderer) drawHeader(state *statepkg.AppState, w int) {
	style := tcell.StyleDefault.Foreground(r.theme.TitleFg).Bold(true)
	r.drawClippedLine(0, 0, w, breadcrumb(state.CurrentPath), style)
}

func breadcrumb(path string) string {
	if path == "" {
		return ""
	}
	clean := filepath.Clean(path)
	parts := strings.Split(clean, string(filepath.Separator))
	if parts[0] == "" {
		parts[0] = string(filepath.Separator)
	}
	return strings.Join(parts, " › ")
}

func (r *Renderer) drawFileList(state *statepkg.AppState, l layout) {
	for row := 0; row < l.contentHeight; row++ {
		idx := state.ScrollOffset + row
		y := l.contentTop + row
		if idx >= len(state.Files) {
			r.fillRow(0, l.listWidth, y, tcell.StyleDefault)
			continue
		}
		file := state.Files[idx]
		style := r.entryStyle(file)
		if idx == state.SelectedIndex {
			style = tcell.StyleDefault.Background(r.theme.SelectionBg).Foreground(r.theme.SelectionFg).Bold(true)
		}
		r.drawClippedLine(0, y, l.listWidth, entryIcon(file)+file.Name, style)
	}
}

func entryIcon(file statepkg.FileEntry) string {
	switch {
	case file.IsDir:
		return "/ "
	case file.IsSymlink:
		return "@ "
	case file.Kind.IsSpecial():
		return "= "
	default:
		return "  "
	}
}

func (r *Renderer) entryStyle(file statepkg.FileEntry) tcell.Style {
	style := tcell.StyleDefault.Foreground(r.theme.FileFg)
	switch {
	case file.IsDir:
		style = style.Foreground(r.theme.DirectoryFg)
	case file.IsSymlink:
		style = style.Foreground(r.theme.SymlinkFg)
	case file.Kind.IsSpecial():
		style = style.Foreground(r.theme.SpecialFg)
	}
	if file.IsHidden() {
		style = style.Foreground(r.theme.HiddenFg)
	}
	return style
}

func (r *Renderer) drawSeparator(x int, l layout) {
	style := tcell.StyleDefault.Foreground(r.theme.HiddenFg)
	for row := 0; row < l.contentHeight; row++ {
		r.screen.SetContent(x, l.contentTop+row, '│', nil, style)
	}
}

func (r *Renderer) drawSecondPane(state *statepkg.AppState, l layout) {
	pane := state.Second
	if pane.Path == "" {
		style := tcell.StyleDefault.Foreground(r.theme.HiddenFg)
		r.drawClippedLine(l.secondX, l.contentTop, l.secondWidth, "press p to pin a preview here", style)
		return
	}
	r.drawPreviewPanel(pane.Preview, pane.Scroll, l.secondX, l.secondWidth, l, pane.Path)
}

func (r *Renderer) drawStatusLine(frame Frame, w, h int) {
	y := h - 2
	if y < 1 {
		return
	}
	state := frame.State
	style := tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg)

	text := ""
	switch {
	case state.LastError != nil:
		text = state.LastError.Error()
		style = style.Foreground(r.theme.ErrorFg)
	case frame.HasStatus:
		text = frame.Status.Text
		switch {
		case frame.Status.Level >= log.ErrorLevel:
			style = style.Foreground(r.theme.ErrorFg)
		case frame.Status.Level >= log.WarnLevel:
			style = style.Foreground(r.theme.WarningFg)
		}
	}

	position := ""
	if n := len(state.Files); n > 0 {
		position = fmt.Sprintf(" %d/%d", state.SelectedIndex+1, n)
	}
	posWidth := r.measureTextWidth(position)
	r.drawClippedLine(0, y, max(w-posWidth, 0), r.truncateTextToWidth(text, w-posWidth), style)
	if posWidth > 0 && posWidth <= w {
		r.drawTextLine(w-posWidth, y, posWidth, position, tcell.StyleDefault.Foreground(r.theme.HiddenFg))
	}
}
