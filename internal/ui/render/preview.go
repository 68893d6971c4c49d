package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/kk-code-lab/peek/internal/preview"
	"github.com/kk-code-lab/peek/internal/textutil"
)

func (r *Renderer) drawPreviewPanel(p preview.Preview, scroll, x, width int, l layout, path string) {
	titleStyle := tcell.StyleDefault.Foreground(r.theme.TitleFg).Bold(true)
	bodyTop := l.contentTop + 1
	bodyHeight := l.contentHeight - 1

	if p == nil {
		if path == "" {
			return
		}
		r.drawClippedLine(x, l.contentTop, width, path, titleStyle)
		if bodyHeight > 0 {
			r.drawClippedLine(x, bodyTop, width, "loading…", tcell.StyleDefault.Foreground(r.theme.HiddenFg))
		}
		return
	}

	title := p.Title()
	if title == "" {
		title = path
	}
	r.drawClippedLine(x, l.contentTop, width, r.previewTitle(p, title), titleStyle)
	if bodyHeight <= 0 {
		return
	}

	switch v := p.(type) {
	case *preview.Empty:
		reason := v.Reason()
		if reason == "" {
			reason = "nothing to preview"
		}
		r.drawClippedLine(x, bodyTop, width, reason, tcell.StyleDefault.Foreground(r.theme.HiddenFg))
	case *preview.Thumbnail:
		r.drawThumbnail(v, x, bodyTop, width, bodyHeight)
	case *preview.Styled:
		start := clampScroll(scroll, v.Len(), bodyHeight)
		for row := 0; row < bodyHeight && start+row < v.Len(); row++ {
			r.drawStyledLine(x, bodyTop+row, width, v.Line(start+row))
		}
	case *preview.Tree:
		start := clampScroll(scroll, v.Len(), bodyHeight)
		for row := 0; row < bodyHeight && start+row < v.Len(); row++ {
			line := v.Line(start + row)
			style := tcell.StyleDefault.Foreground(r.theme.PreviewFg)
			if line.IsDir {
				style = style.Foreground(r.theme.DirectoryFg)
			}
			r.drawClippedLine(x, bodyTop+row, width, line.String(), style)
		}
	case *preview.Binary:
		start := clampScroll(scroll, v.Len(), bodyHeight)
		for row := 0; row < bodyHeight && start+row < v.Len(); row++ {
			r.drawBinaryPreviewLine(x, bodyTop+row, width, v.Line(start+row))
		}
	default:
		rows := preview.PlainRows(p)
		start := clampScroll(scroll, rows, bodyHeight)
		style := tcell.StyleDefault.Foreground(r.theme.PreviewFg)
		for row := 0; row < bodyHeight && start+row < rows; row++ {
			line := textutil.ExpandTabs(preview.PlainLine(p, start+row), textutil.DefaultTabWidth)
			r.drawClippedLine(x, bodyTop+row, width, line, style)
		}
	}
}

func (r *Renderer) previewTitle(p preview.Preview, title string) string {
	if b, ok := p.(*preview.Binary); ok {
		return fmt.Sprintf("%s  [binary, %d of %d bytes]", title, b.ByteCount(), b.TotalBytes())
	}
	switch p.Kind() {
	case preview.KindEmpty:
		return title
	case preview.KindText, preview.KindSyntax, preview.KindArchive, preview.KindTree:
		return fmt.Sprintf("%s  [%s, %d lines]", title, p.Kind(), p.Len())
	default:
		return fmt.Sprintf("%s  [%s]", title, p.Kind())
	}
}

func clampScroll(scroll, rows, height int) int {
	return max(0, min(scroll, rows-height))
}

func (r *Renderer) drawThumbnail(t *preview.Thumbnail, x, top, width, height int) {
	style := tcell.StyleDefault.Foreground(r.theme.PreviewFg)
	dim := tcell.StyleDefault.Foreground(r.theme.HiddenFg)

	rows := make([]string, 0, len(t.Info())+2)
	rows = append(rows, t.Info()...)
	if t.Len() > 0 {
		rows = append(rows, fmt.Sprintf("pages: %d", t.Len()))
	}
	switch {
	case !t.Stale():
		rows = append(rows, "thumbnail: "+t.Image())
	case t.Image() != "":
		rows = append(rows, "thumbnail: refreshing")
	}
	for i := 0; i < height && i < len(rows); i++ {
		lineStyle := style
		if i >= len(t.Info()) {
			lineStyle = dim
		}
		r.drawClippedLine(x, top+i, width, rows[i], lineStyle)
	}
}

func (r *Renderer) drawStyledLine(x, y, width int, line preview.StyledLine) {
	r.fillRow(x, x+width, y, tcell.StyleDefault)
	col := x
	end := x + width
	for _, seg := range line {
		style := r.segmentStyle(seg.Style)
		for _, ru := range seg.Text {
			if ru == '\t' {
				stop := x + textutil.DefaultTabWidth*((col-x)/textutil.DefaultTabWidth+1)
				for ; col < stop && col < end; col++ {
					r.screen.SetContent(col, y, ' ', nil, style)
				}
				continue
			}
			w := r.cachedRuneWidth(ru)
			if w == 0 {
				continue
			}
			if col+w > end {
				if end-1 >= x {
					r.screen.SetContent(end-1, y, '…', nil, style)
				}
				return
			}
			r.screen.SetContent(col, y, ru, nil, style)
			col += w
		}
	}
}

func (r *Renderer) segmentStyle(s preview.Style) tcell.Style {
	return tcell.StyleDefault.
		Foreground(r.mapColor(s.Fg)).
		Bold(s.Bold).
		Italic(s.Italic).
		Underline(s.Underline)
}

func (r *Renderer) mapColor(c preview.Color) tcell.Color {
	if c.IsRGB() {
		red, green, blue := c.RGB()
		return tcell.NewRGBColor(int32(red), int32(green), int32(blue))
	}
	if idx, ok := c.Palette(); ok {
		return tcell.PaletteColor(idx)
	}
	return r.theme.PreviewFg
}

// drawBinaryPreviewLine dims the offset column of a hex dump row.
func (r *Renderer) drawBinaryPreviewLine(x, y, width int, line string) {
	r.fillRow(x, x+width, y, tcell.StyleDefault)
	offset, rest, found := strings.Cut(line, "  ")
	if !found {
		r.drawClippedLine(x, y, width, line, tcell.StyleDefault.Foreground(r.theme.PreviewFg))
		return
	}
	next := r.drawTextLine(x, y, width, offset+"  ", tcell.StyleDefault.Foreground(r.theme.HexOffsetFg))
	if remaining := width - (next - x); remaining > 0 {
		r.drawClippedLine(next, y, remaining, rest, tcell.StyleDefault.Foreground(r.theme.PreviewFg))
	}
}
