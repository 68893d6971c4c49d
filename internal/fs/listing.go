package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// ReadDirectory lists dirPath, resolving symlinks to directories and
// sorting directories first, then by name.
func ReadDirectory(dirPath string, hideHidden bool) ([]Entry, error) {
	dirents, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dirPath, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, e := range dirents {
		if hideHidden && IsHidden(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		rawName := e.Name()
		fullPath := filepath.Join(dirPath, rawName)
		kind := KindFromMode(info.Mode())
		isDir := e.IsDir()
		isSymlink := info.Mode()&os.ModeSymlink != 0

		// For symlinks, classify by target
		if isSymlink {
			if targetInfo, err := os.Stat(fullPath); err == nil {
				isDir = targetInfo.IsDir()
				kind = KindFromMode(targetInfo.Mode())
			}
		}

		entries = append(entries, Entry{
			Name:      norm.NFC.String(rawName),
			FullPath:  fullPath,
			Kind:      kind,
			IsDir:     isDir,
			IsSymlink: isSymlink,
			Size:      info.Size(),
			Modified:  info.ModTime(),
			Mode:      info.Mode(),
		})
	}

	SortEntries(entries)
	return entries, nil
}

// SortEntries orders directories before files, each group by name.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
}
