package handoff

import (
	"errors"
	"fmt"
)

var (
	ErrHandleConsumed    = errors.New("handoff: window handle already consumed")
	ErrNotOwnerThread    = errors.New("handoff: not on the subsystem owner thread")
	ErrNotWorkerThread   = errors.New("handoff: not on the thread the handle was transferred to")
	ErrInvalidAttribute  = errors.New("handoff: invalid window attribute")
	ErrContextReleased   = errors.New("handoff: render context released")
	ErrContextLeaked     = errors.New("handoff: render context still bound when the worker returned")
	ErrSubsystemBusy     = errors.New("handoff: subsystem has live windows")
	ErrSubsystemClosed   = errors.New("handoff: subsystem closed")
	ErrAlreadySignaled   = errors.New("handoff: ready signal already delivered")
	ErrReadyTimeout      = errors.New("handoff: render worker not ready in time")
	ErrJoinTimeout       = errors.New("handoff: render worker did not finish in time")
	ErrInvalidTransition = errors.New("handoff: invalid state transition")
)

// CreationError reports a failed Build. The session cannot continue.
type CreationError struct {
	Title string
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("handoff: create window %q: %v", e.Title, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// BindError reports a failed Bind on the worker thread.
type BindError struct {
	Title string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("handoff: bind window %q: %v", e.Title, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// PresentError reports a failed buffer swap. Frame is the 1-based number of
// the frame that failed to present.
type PresentError struct {
	Title string
	Frame uint64
	Err   error
}

func (e *PresentError) Error() string {
	return fmt.Sprintf("handoff: present window %q frame %d: %v", e.Title, e.Frame, e.Err)
}

func (e *PresentError) Unwrap() error { return e.Err }

// ThreadError is the panic value raised when a RenderContext is used off the
// thread it was bound on.
type ThreadError struct {
	Op   string
	Want uint64
	Got  uint64
}

func (e *ThreadError) Error() string {
	return fmt.Sprintf("handoff: %s called on thread %d, render context is bound to thread %d", e.Op, e.Got, e.Want)
}

func (e *ThreadError) Unwrap() error { return ErrNotWorkerThread }

// WorkerPanicError is the join outcome of a worker function that panicked.
type WorkerPanicError struct {
	Title string
	Value any
	Stack []byte
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("handoff: render worker for %q panicked: %v", e.Title, e.Value)
}

func (e *WorkerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
