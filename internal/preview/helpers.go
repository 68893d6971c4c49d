package preview

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	textutil "github.com/kk-code-lab/peek/internal/textutil"
)

// Runner executes an external program and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// LookPath resolves a program name on $PATH.
type LookPath func(name string) (string, error)

// External programs used by the built-in strategies.
const (
	helperUnzip       = "unzip"
	helperTar         = "tar"
	helper7z          = "7z"
	helperMagick      = "magick"
	helperFFmpegThumb = "ffmpegthumbnailer"
	helperMediaInfo   = "mediainfo"
	helperFontImage   = "fontimage"
	helperRsvg        = "rsvg-convert"
	helperPdfToPpm    = "pdftoppm"
	helperPdfInfo     = "pdfinfo"
	helperIsoInfo     = "isoinfo"
	helperJupyter     = "jupyter"
	helperLibreOffice = "libreoffice"
	helperPandoc      = "pandoc"
	helperTorrent     = "transmission-show"
	helperSS          = "ss"
	helperLsblk       = "lsblk"
	helperLsof        = "lsof"
)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, firstLine(msg))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// resolve returns the absolute path of the first available helper.
func (f *Factory) resolve(names ...string) (string, error) {
	for _, name := range names {
		if path, err := f.lookPath(name); err == nil && path != "" {
			return path, nil
		}
	}
	return "", missingHelper(strings.Join(names, "|"))
}

// runHelper runs a resolved helper under the configured timeout.
func (f *Factory) runHelper(ctx context.Context, path string, args ...string) ([]byte, error) {
	if f.opts.HelperTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.HelperTimeout)
		defer cancel()
	}
	return f.run(ctx, path, args...)
}

// outputLines splits helper output into sanitized display lines.
func outputLines(out []byte) []string {
	text := strings.TrimRight(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = textutil.SanitizeTerminalText(textutil.StripANSI(line))
	}
	return lines
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
