package preview

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// archiveTool picks the lister for an archive extension.
func archiveTool(ext string) (helper string, args func(path string) []string) {
	switch ext {
	case "zip", "jar", "apk", "whl":
		return helperUnzip, func(path string) []string { return []string{"-Z1", path} }
	case "7z", "rar":
		return helper7z, func(path string) []string { return []string{"l", "-ba", "-slt", path} }
	default:
		return helperTar, func(path string) []string { return []string{"-tf", path} }
	}
}

func buildArchive(ctx context.Context, f *Factory, path string, _ os.FileInfo, _ Flags) (Preview, error) {
	helper, args := archiveTool(Extension(path))
	bin, err := f.resolve(helper)
	if err != nil {
		return nil, err
	}
	out, err := f.runHelper(ctx, bin, args(path)...)
	if err != nil {
		return nil, err
	}
	lines := outputLines(out)
	if helper == helper7z {
		lines = sevenZipPaths(lines)
	}
	return NewArchive(filepath.Base(path), lines), nil
}

// sevenZipPaths keeps the "Path = " records of 7z's technical listing.
func sevenZipPaths(lines []string) []string {
	var entries []string
	for _, line := range lines {
		if name, ok := strings.CutPrefix(line, "Path = "); ok {
			entries = append(entries, name)
		}
	}
	return entries
}

func buildMediaInfo(ctx context.Context, f *Factory, path string, _ os.FileInfo, _ Flags) (Preview, error) {
	return f.toolText(ctx, KindMedia, path, helperMediaInfo, path)
}

func buildIso(ctx context.Context, f *Factory, path string, _ os.FileInfo, _ Flags) (Preview, error) {
	return f.toolText(ctx, KindIso, path, helperIsoInfo, "-l", "-i", path)
}

func buildTorrent(ctx context.Context, f *Factory, path string, _ os.FileInfo, _ Flags) (Preview, error) {
	return f.toolText(ctx, KindTorrent, path, helperTorrent, path)
}

func buildEpub(ctx context.Context, f *Factory, path string, _ os.FileInfo, _ Flags) (Preview, error) {
	return f.toolText(ctx, KindText, path, helperPandoc, "-s", "-t", "plain", "--", path)
}

// buildNotebook converts a notebook to markdown and highlights it.
func buildNotebook(ctx context.Context, f *Factory, path string, _ os.FileInfo, _ Flags) (Preview, error) {
	jupyter, err := f.resolve(helperJupyter)
	if err != nil {
		return nil, err
	}
	out, err := f.runHelper(ctx, jupyter, "nbconvert", "--to", "markdown", "--stdout", path)
	if err != nil {
		return nil, err
	}
	lines, err := highlight(lexers.Get("markdown"), f.opts.SyntaxStyle, string(out))
	if err != nil {
		return nil, err
	}
	return NewStyled(KindSyntax, filepath.Base(path), lines), nil
}

func (f *Factory) toolText(ctx context.Context, kind Kind, path, helper string, args ...string) (Preview, error) {
	bin, err := f.resolve(helper)
	if err != nil {
		return nil, err
	}
	out, err := f.runHelper(ctx, bin, args...)
	if err != nil {
		return nil, err
	}
	lines := outputLines(out)
	if len(lines) == 0 {
		return nil, errEmptyOutput
	}
	return NewText(kind, filepath.Base(path), lines), nil
}
