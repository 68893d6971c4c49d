package render

import "github.com/gdamore/tcell/v2"

var footerHints = []string{
	"? help",
	"v dual pane",
	"p pin",
	"e edit",
	". hidden",
	"q quit",
}

func (r *Renderer) drawFooter(w, h int) {
	y := h - 1
	if y < 1 {
		return
	}
	style := tcell.StyleDefault.Foreground(r.theme.HiddenFg)
	r.fillRow(0, w, y, style)
	x := 0
	for i, hint := range footerHints {
		if i > 0 {
			hint = "  " + hint
		}
		if x+r.measureTextWidth(hint) > w {
			break
		}
		x = r.drawTextLine(x, y, w-x, hint, style)
	}
}
