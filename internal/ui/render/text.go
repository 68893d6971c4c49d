package render

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

func (r *Renderer) cachedRuneWidth(ru rune) int {
	if ru < 128 {
		r.runeWidthCacheMu.RLock()
		width := r.runeWidthCache[ru]
		r.runeWidthCacheMu.RUnlock()

		if width == 0 && ru != 0 {
			actualWidth := max(runewidth.RuneWidth(ru), 0)
			r.runeWidthCacheMu.Lock()
			r.runeWidthCache[ru] = actualWidth + 1
			r.runeWidthCacheMu.Unlock()
			return actualWidth
		}
		return width - 1
	}

	if cached, ok := r.runeWidthWide.Load(ru); ok {
		return cached.(int)
	}

	width := max(runewidth.RuneWidth(ru), 0)
	r.runeWidthWide.Store(ru, width)
	return width
}

func (r *Renderer) measureTextWidth(text string) int {
	width := 0
	for _, ru := range text {
		width += r.cachedRuneWidth(ru)
	}
	return width
}

func (r *Renderer) truncateTextToWidth(text string, maxWidth int) string {
	if maxWidth <= 0 || text == "" {
		return ""
	}
	if r.measureTextWidth(text) <= maxWidth {
		return text
	}

	ellipsisWidth := max(r.cachedRuneWidth('…'), 1)
	if maxWidth <= ellipsisWidth {
		return ellipsis
	}

	clipped, _ := r.clipTextToWidth(text, maxWidth-ellipsisWidth)
	return clipped + ellipsis
}

func (r *Renderer) clipTextToWidth(text string, maxWidth int) (string, bool) {
	if maxWidth <= 0 {
		return "", text != ""
	}

	var builder strings.Builder
	width := 0
	for _, ru := range text {
		rw := r.cachedRuneWidth(ru)
		if width+rw > maxWidth {
			return builder.String(), true
		}
		builder.WriteRune(ru)
		width += rw
	}
	return text, false
}

// drawTextLine draws text from startX, clipped to maxWidth cells, and
// returns the next free column.
func (r *Renderer) drawTextLine(startX, y, maxWidth int, text string, style tcell.Style) int {
	x := startX
	for _, ru := range text {
		w := r.cachedRuneWidth(ru)
		if x-startX+max(w, 1) > maxWidth {
			break
		}
		if w == 0 {
			continue
		}
		r.screen.SetContent(x, y, ru, nil, style)
		x += w
	}
	return x
}

func (r *Renderer) fillRow(startX, endX, y int, style tcell.Style) {
	for x := startX; x < endX; x++ {
		r.screen.SetContent(x, y, ' ', nil, style)
	}
}

// drawClippedLine fills the row and draws text, marking overflow with an
// ellipsis in the last column.
func (r *Renderer) drawClippedLine(startX, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	r.fillRow(startX, startX+width, y, style)
	clipped, truncated := r.clipTextToWidth(text, width)
	if truncated && width > 1 {
		clipped, _ = r.clipTextToWidth(text, width-1)
		r.screen.SetContent(startX+width-1, y, '…', nil, style)
	}
	r.drawTextLine(startX, y, width, clipped, style)
}
