//go:build linux

package engine

import (
	"os"

	"golang.org/x/sys/unix"
)

// advise hints the kernel that the file will be read sequentially soon.
// Best-effort; failures are ignored.
func advise(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
