package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"

	fsutil "github.com/kk-code-lab/peek/internal/fs"
)

const (
	binaryLineWidth = 16
	binaryMaxBytes  = 64 << 10
)

// buildContent reads the head of a regular file and picks syntax
// highlighting, plain text or a hex dump.
func (f *Factory) buildContent(path string, info os.FileInfo) (Preview, error) {
	limit := f.opts.TextMaxBytes
	if limit <= 0 {
		limit = 256 << 10
	}
	content, err := fsutil.ReadFileHead(path, limit)
	if err != nil {
		return nil, &BuildError{Strategy: "read", Path: path, Err: err}
	}

	sniffed := fsutil.Sniff(content)
	title := filepath.Base(path)
	if !sniffed.Text {
		return newBinary(title, content, info.Size()), nil
	}

	text := fsutil.NormalizeTextContent(content)
	if info.Size() <= f.syntaxMaxBytes() {
		if lexer := f.lexerFor(path, content); lexer != nil {
			lines, err := highlight(lexer, f.opts.SyntaxStyle, text)
			if err == nil {
				return NewStyled(KindSyntax, title, lines), nil
			}
			f.logger.Debug("highlighting failed, showing plain text", "path", path, "err", err)
		}
	}
	return NewText(KindText, title, splitLines(text)), nil
}

func (f *Factory) syntaxMaxBytes() int64 {
	if f.opts.SyntaxMaxBytes > 0 {
		return f.opts.SyntaxMaxBytes
	}
	return 1 << 20
}

// lexerFor matches a chroma lexer by filename, then asks enry for the
// language of extension-less files (Makefile, shebang scripts, modelines).
func (f *Factory) lexerFor(path string, content []byte) chroma.Lexer {
	name := filepath.Base(path)
	if lexer := lexers.Match(name); usable(lexer) {
		return lexer
	}
	detectors := []func() (string, bool){
		func() (string, bool) { return enry.GetLanguageByFilename(name) },
		func() (string, bool) { return enry.GetLanguageByShebang(content) },
		func() (string, bool) { return enry.GetLanguageByModeline(content) },
	}
	for _, detect := range detectors {
		lang, safe := detect()
		if !safe || lang == "" {
			continue
		}
		if lexer := lexers.Get(lang); usable(lexer) {
			return lexer
		}
	}
	return nil
}

func usable(lexer chroma.Lexer) bool {
	if lexer == nil {
		return false
	}
	return lexer.Config().Name != "plaintext"
}

func highlight(lexer chroma.Lexer, styleName, text string) ([]StyledLine, error) {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, text)
	if err != nil {
		return nil, err
	}

	tokenLines := chroma.SplitTokensIntoLines(iterator.Tokens())
	lines := make([]StyledLine, 0, len(tokenLines))
	for _, tokens := range tokenLines {
		line := make(StyledLine, 0, len(tokens))
		for _, tok := range tokens {
			value := strings.TrimRight(tok.Value, "\r\n")
			if value == "" {
				continue
			}
			line = append(line, Segment{Text: value, Style: chromaStyle(style, tok.Type)})
		}
		lines = append(lines, line)
	}
	for len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

func chromaStyle(style *chroma.Style, tokenType chroma.TokenType) Style {
	entry := style.Get(tokenType)
	out := PlainStyle
	if entry.Colour.IsSet() {
		out.Fg = RGB(entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue())
	}
	out.Bold = entry.Bold == chroma.Yes
	out.Italic = entry.Italic == chroma.Yes
	out.Underline = entry.Underline == chroma.Yes
	return out
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func newBinary(title string, content []byte, totalSize int64) *Binary {
	if len(content) > binaryMaxBytes {
		content = content[:binaryMaxBytes]
	}
	rows := make([]string, 0, len(content)/binaryLineWidth+2)
	for offset := 0; offset < len(content); offset += binaryLineWidth {
		chunk := content[offset:min(offset+binaryLineWidth, len(content))]
		rows = append(rows, formatHexLine(offset, chunk))
	}
	if int64(len(content)) < totalSize {
		rows = append(rows, fmt.Sprintf("… (%d bytes not shown)", totalSize-int64(len(content))))
	}
	return &Binary{
		title:      title,
		rows:       rows,
		byteCount:  len(content),
		totalBytes: totalSize,
	}
}

func formatHexLine(offset int, chunk []byte) string {
	var builder strings.Builder
	builder.Grow(80)
	fmt.Fprintf(&builder, "%08X  ", offset)

	for i := 0; i < binaryLineWidth; i++ {
		if i < len(chunk) {
			fmt.Fprintf(&builder, "%02X ", chunk[i])
		} else {
			builder.WriteString("   ")
		}
		if i == 7 {
			builder.WriteString(" ")
		}
	}

	builder.WriteString(" |")
	for _, b := range chunk {
		if b >= 0x20 && b <= 0x7e {
			builder.WriteByte(b)
		} else {
			builder.WriteByte('.')
		}
	}
	builder.WriteString("|")
	return builder.String()
}
