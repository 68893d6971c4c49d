package fs

import (
	"fmt"
	"os"
)

// Kind is the coarse file type the preview factory dispatches on.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectory
	KindFile
	KindSymlink
	KindSocket
	KindBlockDevice
	KindCharDevice
	KindFifo
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindSocket:
		return "socket"
	case KindBlockDevice:
		return "block device"
	case KindCharDevice:
		return "char device"
	case KindFifo:
		return "fifo"
	default:
		return "unknown"
	}
}

// IsSpecial reports whether the kind is a socket, device or pipe.
func (k Kind) IsSpecial() bool {
	switch k {
	case KindSocket, KindBlockDevice, KindCharDevice, KindFifo:
		return true
	}
	return false
}

// KindFromMode maps a file mode to a Kind without touching the filesystem.
func KindFromMode(mode os.FileMode) Kind {
	switch {
	case mode.IsDir():
		return KindDirectory
	case mode&os.ModeSymlink != 0:
		return KindSymlink
	case mode&os.ModeSocket != 0:
		return KindSocket
	case mode&os.ModeNamedPipe != 0:
		return KindFifo
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice != 0:
		return KindCharDevice
	case mode&os.ModeDevice != 0:
		return KindBlockDevice
	case mode.IsRegular():
		return KindFile
	default:
		return KindUnknown
	}
}

// Classify stats path, following symlinks, and returns its Kind.
// Broken symlinks are reported as KindSymlink.
func Classify(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err == nil {
		return KindFromMode(info.Mode()), nil
	}
	linfo, lerr := os.Lstat(path)
	if lerr != nil {
		return KindUnknown, fmt.Errorf("classify %s: %w", path, err)
	}
	return KindFromMode(linfo.Mode()), nil
}
