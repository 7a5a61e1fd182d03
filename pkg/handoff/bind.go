package handoff

import (
	"fmt"

	"go.uber.org/zap"
)

// RenderContext is a window whose graphics context is current on the worker
// thread that bound it. It is confined to that thread: every method panics
// with *ThreadError when called from anywhere else. Release (or returning
// from the Transfer worker function) destroys the window and its context.
type RenderContext struct {
	core   *windowCore
	thread threadID
	frames uint64
}

// Bind consumes h on the worker thread it was transferred to and makes its
// context current there. Failures are *BindError. When MakeCurrent fails the
// handle is consumed and the gate releases the window as the worker returns.
func Bind(h *WindowHandle) (*RenderContext, error) {
	title := h.Title()
	if !h.Valid() {
		return nil, &BindError{Title: title, Err: ErrHandleConsumed}
	}
	// check the thread before consuming, so a misplaced Bind leaves the
	// handle usable by its rightful worker
	worker := h.core.worker.Load()
	if worker == nil || h.core.state.load() != StateTransferred {
		return nil, &BindError{Title: title, Err: fmt.Errorf("%w: handle was not transferred", ErrNotWorkerThread)}
	}
	if !worker.isCurrent() {
		return nil, &BindError{Title: title, Err: ErrNotWorkerThread}
	}
	core, err := h.take()
	if err != nil {
		return nil, &BindError{Title: title, Err: err}
	}
	if err := core.native.MakeCurrent(); err != nil {
		return nil, &BindError{Title: title, Err: err}
	}
	if err := core.state.advance(title, StateBound); err != nil {
		return nil, &BindError{Title: title, Err: err}
	}
	rc := &RenderContext{core: core, thread: *worker}
	core.bound.Store(rc)
	Logger().Info("context bound", zap.String("window", title), zap.Uint64("thread", worker.id))
	return rc, nil
}

func (rc *RenderContext) assertThread(op string) {
	if rc.thread.isCurrent() {
		return
	}
	got := currentThread()
	panic(&ThreadError{Op: op, Want: rc.thread.id, Got: got.id})
}

// Title is the name the window was built with. It keeps identifying the
// window in logs and events after SetTitle.
func (rc *RenderContext) Title() string {
	return rc.core.title
}

// SetTitle changes the caption of the window.
func (rc *RenderContext) SetTitle(caption string) error {
	rc.assertThread("SetTitle")
	if rc.Released() {
		return ErrContextReleased
	}
	if err := rc.core.native.SetTitle(caption); err != nil {
		return fmt.Errorf("handoff: set title of %q: %w", rc.core.title, err)
	}
	Logger().Info("window retitled", zap.String("window", rc.core.title), zap.String("caption", caption))
	return nil
}

// Frames returns the number of successfully presented frames.
func (rc *RenderContext) Frames() uint64 {
	rc.assertThread("Frames")
	return rc.frames
}

// Released reports whether the window and context are gone.
func (rc *RenderContext) Released() bool {
	return rc.core.released.Load()
}

// MakeCurrent re-binds the context to the worker thread, e.g. after a
// library call detached it.
func (rc *RenderContext) MakeCurrent() error {
	rc.assertThread("MakeCurrent")
	if rc.Released() {
		return ErrContextReleased
	}
	return rc.core.native.MakeCurrent()
}

// Present swaps the buffers of the window. Failures are *PresentError.
func (rc *RenderContext) Present() error {
	rc.assertThread("Present")
	if rc.Released() {
		return ErrContextReleased
	}
	if err := rc.core.native.Swap(); err != nil {
		return &PresentError{Title: rc.core.title, Frame: rc.frames + 1, Err: err}
	}
	rc.frames++
	return nil
}

// FramebufferSize returns the drawable size in pixels.
func (rc *RenderContext) FramebufferSize() (int, int) {
	rc.assertThread("FramebufferSize")
	if rc.Released() {
		return rc.core.width, rc.core.height
	}
	return rc.core.native.FramebufferSize()
}

// Native exposes the driver window, for renderers that draw into it directly.
func (rc *RenderContext) Native() any {
	rc.assertThread("Native")
	return rc.core.native
}

// Release destroys the window and its context on the worker thread. Calling
// it again is a no-op.
func (rc *RenderContext) Release() error {
	rc.assertThread("Release")
	return rc.release()
}

func (rc *RenderContext) release() error {
	if rc.core.released.Load() {
		return nil
	}
	// running loops leave through Stopping
	if rc.core.state.load() == StateRunning {
		_ = rc.core.state.advance(rc.core.title, StateStopping)
	}
	return rc.core.releaseNative()
}
