package handoff

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kjkrol/gohandoff/internal/platform"
)

// windowCore is the single window/context pair. Exactly one non-consumed
// WindowHandle or one live RenderContext refers to it at a time.
type windowCore struct {
	sub    *Subsystem
	native platform.Window
	title  string
	width  int
	height int
	state  stateCell

	worker   atomic.Pointer[threadID]
	bound    atomic.Pointer[RenderContext]
	released atomic.Bool
}

// releaseNative destroys the native window and context and drops the
// subsystem reference. Only the first call does anything.
func (c *windowCore) releaseNative() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	err := c.native.Destroy()
	c.sub.release()
	err = multierr.Append(err, c.state.advance(c.title, StateReleased))
	Logger().Info("window released", zap.String("window", c.title), zap.Error(err))
	return err
}

// WindowHandle owns a window plus its graphics context. It is move-only:
// Transfer, Bind and Close consume the value they are given, and a consumed
// value only ever returns ErrHandleConsumed.
type WindowHandle struct {
	core     *windowCore
	consumed atomic.Bool
}

// Build creates a window and its graphics context on the owner thread of sub.
// The context is released from the calling thread before Build returns, so
// the handle can be bound elsewhere. Failures are *CreationError.
func Build(sub *Subsystem, title string, width, height int, opts ...Option) (*WindowHandle, error) {
	if sub == nil {
		return nil, &CreationError{Title: title, Err: errors.New("nil subsystem")}
	}
	conf := windowConfig(title, width, height, opts)
	if err := validateConfig(conf); err != nil {
		return nil, &CreationError{Title: title, Err: err}
	}
	if !sub.owner.isCurrent() {
		return nil, &CreationError{Title: title, Err: ErrNotOwnerThread}
	}
	if err := sub.acquire(); err != nil {
		return nil, &CreationError{Title: title, Err: err}
	}

	native, err := sub.driver.CreateWindow(conf)
	if err != nil {
		sub.release()
		return nil, &CreationError{Title: title, Err: err}
	}
	if err := sub.driver.ReleaseCurrent(); err != nil {
		err = multierr.Append(fmt.Errorf("release current context: %w", err), native.Destroy())
		sub.release()
		return nil, &CreationError{Title: title, Err: err}
	}

	fbw, fbh := native.FramebufferSize()
	core := &windowCore{
		sub:    sub,
		native: native,
		title:  title,
		width:  fbw,
		height: fbh,
	}
	if err := core.state.advance(title, StateBuilt); err != nil {
		return nil, &CreationError{Title: title, Err: multierr.Append(err, core.releaseNative())}
	}
	Logger().Info("window built",
		zap.String("window", title),
		zap.String("driver", sub.driver.Name()),
		zap.Int("width", fbw),
		zap.Int("height", fbh))
	return &WindowHandle{core: core}, nil
}

// take consumes h.
func (h *WindowHandle) take() (*windowCore, error) {
	if h == nil || h.core == nil {
		return nil, ErrHandleConsumed
	}
	if !h.consumed.CompareAndSwap(false, true) {
		return nil, ErrHandleConsumed
	}
	return h.core, nil
}

// Valid reports whether h can still be transferred, bound or closed.
func (h *WindowHandle) Valid() bool {
	return h != nil && h.core != nil && !h.consumed.Load()
}

func (h *WindowHandle) Title() string {
	if h == nil || h.core == nil {
		return ""
	}
	return h.core.title
}

// State returns the lifecycle state of the underlying window.
func (h *WindowHandle) State() State {
	if h == nil || h.core == nil {
		return StateUnbuilt
	}
	return h.core.state.load()
}

// Close destroys a window that was built but never transferred. It must run
// on the subsystem owner thread.
func (h *WindowHandle) Close() error {
	if h != nil && h.core != nil && !h.core.sub.owner.isCurrent() {
		return ErrNotOwnerThread
	}
	core, err := h.take()
	if err != nil {
		return err
	}
	return core.releaseNative()
}
