//go:build linux

package osthread

import "golang.org/x/sys/unix"

func current() (uint64, bool) {
	return uint64(unix.Gettid()), true
}
