//go:build windows

package osthread

import "golang.org/x/sys/windows"

func current() (uint64, bool) {
	return uint64(windows.GetCurrentThreadId()), true
}
