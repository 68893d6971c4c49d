package fs

import (
	"os"
	"time"
)

// Entry represents a single file or directory on disk.
type Entry struct {
	Name      string
	FullPath  string
	Kind      Kind
	IsDir     bool
	IsSymlink bool
	Size      int64
	Modified  time.Time
	Mode      os.FileMode
}

// IsHidden reports whether the entry should be treated as hidden.
func (e Entry) IsHidden() bool {
	return IsHidden(e.Name)
}

// IsHidden reports whether name is a dot file.
func IsHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
