// Package osthread reports the identity of the OS thread the calling
// goroutine is running on.
//
// The value is only stable for goroutines that called runtime.LockOSThread.
package osthread

// ID returns the current OS thread id. Where the OS offers no thread id
// the goroutine id of the caller stands in for it, which holds for locked
// goroutines. The second result is false only when neither is available;
// callers must then skip any ownership assertion instead of comparing zero
// values.
func ID() (uint64, bool) {
	return current()
}

// Same reports whether the calling goroutine runs on thread id. It returns
// true only when no identity is available at all.
func Same(id uint64, known bool) bool {
	if !known {
		return true
	}
	now, ok := current()
	if !ok {
		return true
	}
	return now == id
}
