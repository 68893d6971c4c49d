package preview

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Color is a foreground color: ColorDefault, a 256-color palette index, or
// a 24-bit RGB value built with RGB.
type Color int32

const (
	ColorDefault Color = -1
	rgbFlag      Color = 1 << 24
)

// RGB packs a true-color value.
func RGB(r, g, b uint8) Color {
	return rgbFlag | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// IsRGB reports whether c holds a true-color value.
func (c Color) IsRGB() bool { return c >= rgbFlag }

// RGB unpacks a true-color value.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Palette returns the palette index and whether c is a palette color.
func (c Color) Palette() (int, bool) {
	if c < 0 || c.IsRGB() {
		return 0, false
	}
	return int(c), true
}

// Style describes how a segment is drawn.
type Style struct {
	Fg        Color
	Bold      bool
	Italic    bool
	Underline bool
}

// PlainStyle draws in the terminal default color.
var PlainStyle = Style{Fg: ColorDefault}

// Segment is a run of text sharing one style.
type Segment struct {
	Text  string
	Style Style
}

// StyledLine is one line of colored text.
type StyledLine []Segment

func (l StyledLine) String() string {
	if len(l) == 1 {
		return l[0].Text
	}
	var b strings.Builder
	for _, seg := range l {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// ParseANSI splits output into lines and converts SGR color sequences into
// segment styles. Other escape sequences and control bytes except tab are
// dropped.
func ParseANSI(output string) []StyledLine {
	output = strings.TrimRight(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
	if output == "" {
		return nil
	}
	rawLines := strings.Split(output, "\n")
	lines := make([]StyledLine, 0, len(rawLines))
	style := PlainStyle
	p := ansi.NewParser()
	for _, raw := range rawLines {
		var line StyledLine
		line, style = parseANSILine(raw, style, p)
		lines = append(lines, line)
	}
	return lines
}

func parseANSILine(raw string, style Style, p *ansi.Parser) (StyledLine, Style) {
	var line StyledLine
	var text strings.Builder
	flush := func() {
		if text.Len() == 0 {
			return
		}
		line = append(line, Segment{Text: text.String(), Style: style})
		text.Reset()
	}

	var state byte
	for len(raw) > 0 {
		seq, width, n, next := ansi.DecodeSequence(raw, state, p)
		state = next
		if n <= 0 {
			n = 1
		}
		raw = raw[n:]
		switch {
		case width > 0:
			text.WriteString(seq)
		case seq == "\t":
			text.WriteByte('\t')
		case ansi.HasCsiPrefix(seq) && ansi.Cmd(p.Command()) == 'm':
			flush()
			style = applySGR(style, p.Params())
		}
	}
	flush()
	if line == nil {
		line = StyledLine{{Style: style}}
	}
	return line, style
}

// applySGR folds one Select Graphic Rendition parameter list into style.
// An empty list resets, as ESC[m does.
func applySGR(style Style, params ansi.Params) Style {
	if len(params) == 0 {
		return PlainStyle
	}
	for i := 0; i < len(params); i++ {
		n := params[i].Param(0)
		switch {
		case n == 0:
			style = PlainStyle
		case n == 1:
			style.Bold = true
		case n == 3:
			style.Italic = true
		case n == 4:
			style.Underline = true
		case n == 22:
			style.Bold = false
		case n == 23:
			style.Italic = false
		case n == 24:
			style.Underline = false
		case n >= 30 && n <= 37:
			style.Fg = Color(n - 30)
		case n == 39:
			style.Fg = ColorDefault
		case n >= 90 && n <= 97:
			style.Fg = Color(n - 90 + 8)
		case n == 38 && i+2 < len(params) && params[i+1].Param(0) == 5:
			if idx := params[i+2].Param(-1); idx >= 0 && idx < 256 {
				style.Fg = Color(idx)
			}
			i += 2
		case n == 38 && i+4 < len(params) && params[i+1].Param(0) == 2:
			r := params[i+2].Param(0)
			g := params[i+3].Param(0)
			b := params[i+4].Param(0)
			style.Fg = RGB(uint8(r), uint8(g), uint8(b))
			i += 4
		}
	}
	return style
}
