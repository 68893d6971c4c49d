package state

import (
	"path/filepath"
	"strings"

	fsutil "github.com/kk-code-lab/peek/internal/fs"
	"github.com/kk-code-lab/peek/internal/preview"
)

// FileEntry mirrors fs.Entry so UI/state code can rely on a stable type.
type FileEntry = fsutil.Entry

// Synthetic preview paths. They are cached like files but never built.
const (
	HelpPath      = "help://keys"
	CommandPrefix = "cmd://"
)

// SecondPane index used when correlating router results.
const SecondPane = 1

// IsSynthetic reports whether path names a literal preview rather than a file.
func IsSynthetic(path string) bool {
	return strings.Contains(path, "://")
}

// PaneState is the second viewport. It previews a pinned path independently
// of the selection.
type PaneState struct {
	Path    string
	Preview preview.Preview
	Pending bool
	Scroll  int
}

// AppState is the single source of truth shared by input handling and the
// render loop.
type AppState struct {
	CurrentPath string
	Files       []FileEntry

	SelectedIndex int
	ScrollOffset  int

	// PreviewOverride shows a synthetic preview instead of the selection.
	PreviewOverride string
	PreviewScroll   int

	HideHiddenFiles bool
	DualPane        bool
	Second          PaneState

	ScreenWidth  int
	ScreenHeight int

	LastError error
}

// CurrentFile returns the selected entry.
func (s *AppState) CurrentFile() *FileEntry {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Files) {
		return nil
	}
	return &s.Files[s.SelectedIndex]
}

// CurrentFilePath returns the absolute path of the selection, or the
// directory itself when it is empty.
func (s *AppState) CurrentFilePath() string {
	if file := s.CurrentFile(); file != nil {
		if file.FullPath != "" {
			return file.FullPath
		}
		return filepath.Join(s.CurrentPath, file.Name)
	}
	return s.CurrentPath
}

// PreviewPath is the path whose preview the main pane shows.
func (s *AppState) PreviewPath() string {
	if s.PreviewOverride != "" {
		return s.PreviewOverride
	}
	if s.CurrentFile() == nil {
		return ""
	}
	return s.CurrentFilePath()
}

// FilePaths lists the absolute paths of the current directory in display
// order.
func (s *AppState) FilePaths() []string {
	paths := make([]string, len(s.Files))
	for i, f := range s.Files {
		paths[i] = f.FullPath
	}
	return paths
}

// ListHeight is the number of file rows that fit between the header and
// the status lines.
func (s *AppState) ListHeight() int {
	h := s.ScreenHeight - 3
	if h < 1 {
		h = 1
	}
	return h
}

func (s *AppState) updateScrollVisibility() {
	visible := s.ListHeight()
	if s.SelectedIndex < s.ScrollOffset {
		s.ScrollOffset = s.SelectedIndex
	}
	if s.SelectedIndex >= s.ScrollOffset+visible {
		s.ScrollOffset = s.SelectedIndex - visible + 1
	}
	if s.ScrollOffset < 0 {
		s.ScrollOffset = 0
	}
}

func (s *AppState) centerScrollOnSelection() {
	visible := s.ListHeight()
	if len(s.Files) <= visible {
		s.ScrollOffset = 0
		return
	}
	offset := s.SelectedIndex - visible/2
	offset = max(0, min(offset, len(s.Files)-visible))
	s.ScrollOffset = offset
}

func (s *AppState) indexOf(name string) int {
	for i, f := range s.Files {
		if f.Name == name {
			return i
		}
	}
	return -1
}
