//go:build !linux && !windows

package osthread

import "github.com/joeycumines/goroutineid"

// There is no portable thread id syscall here. Callers hold
// runtime.LockOSThread for as long as an id matters, so the goroutine id
// identifies the thread just as well.
func current() (uint64, bool) {
	id := goroutineid.Fast()
	if id < 0 {
		return 0, false
	}
	return uint64(id), true
}
