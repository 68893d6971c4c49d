//go:build unix

package preview

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// deviceNumbers formats the major/minor numbers of a device node.
func deviceNumbers(path string) (string, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return "", false
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK && st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return "", false
	}
	rdev := uint64(st.Rdev)
	return fmt.Sprintf("device %d:%d", unix.Major(rdev), unix.Minor(rdev)), true
}
