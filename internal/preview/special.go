package preview

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	fsutil "github.com/kk-code-lab/peek/internal/fs"
)

// buildSpecial inspects sockets, block devices, fifos and char devices with
// the matching system tool. The device numbers head the output.
func (f *Factory) buildSpecial(ctx context.Context, path string, kind fsutil.Kind) (Preview, error) {
	var (
		previewKind Kind
		helper      string
		args        []string
	)
	switch kind {
	case fsutil.KindSocket:
		previewKind, helper, args = KindSocket, helperSS, []string{"-lpmx"}
	case fsutil.KindBlockDevice:
		previewKind, helper = KindBlockDevice, helperLsblk
		args = []string{"-f", "-o", "NAME,FSTYPE,LABEL,UUID,SIZE,MOUNTPOINT", path}
	default:
		previewKind, helper, args = KindFifo, helperLsof, []string{path}
	}

	bin, err := f.resolve(helper)
	if err != nil {
		return nil, err
	}
	out, err := f.runHelper(ctx, bin, args...)
	// lsof exits 1 when nobody holds the file open
	if err != nil && len(out) == 0 && kind != fsutil.KindFifo && kind != fsutil.KindCharDevice {
		return nil, err
	}

	lines := outputLines(out)
	if kind == fsutil.KindSocket {
		lines = socketLines(lines, path)
	}
	header := []string{fmt.Sprintf("%s: %s", kind, path)}
	if dev, ok := deviceNumbers(path); ok {
		header = append(header, dev)
	}
	header = append(header, "")
	return NewText(previewKind, filepath.Base(path), append(header, lines...)), nil
}

// socketLines keeps the ss header and the rows mentioning path.
func socketLines(lines []string, path string) []string {
	if len(lines) == 0 {
		return lines
	}
	kept := []string{lines[0]}
	for _, line := range lines[1:] {
		if strings.Contains(line, path) {
			kept = append(kept, line)
		}
	}
	if len(kept) == 1 {
		kept = append(kept, "no listener found for "+path)
	}
	return kept
}
