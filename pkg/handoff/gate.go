package handoff

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// JoinHandle is the origin side of a Transfer. The worker's result becomes
// visible once Done is closed; by then the window and context have been
// released on the worker thread.
type JoinHandle[T any] struct {
	title   string
	started time.Time
	done    chan struct{}
	value   T
	err     error
}

// Transfer moves h into a new worker goroutine locked to its own OS thread
// and calls fn there with the moved handle. It returns without waiting; use a
// Ready rendezvous when the origin must wait for the worker to reach a point.
//
// h is consumed: after Transfer the origin value only returns
// ErrHandleConsumed. If fn returns (or panics) while the context it bound is
// still alive, the gate releases it on the worker thread and reports
// ErrContextLeaked in the join outcome.
func Transfer[T any](h *WindowHandle, fn func(*WindowHandle) (T, error)) (*JoinHandle[T], error) {
	if fn == nil {
		return nil, errors.New("handoff: nil worker function")
	}
	core, err := h.take()
	if err != nil {
		return nil, err
	}
	if err := core.state.advance(core.title, StateTransferred); err != nil {
		// the handle is consumed and no worker will own the window
		return nil, multierr.Append(err, core.releaseNative())
	}
	j := &JoinHandle[T]{
		title:   core.title,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go j.run(&WindowHandle{core: core}, fn)
	return j, nil
}

func (j *JoinHandle[T]) run(h *WindowHandle, fn func(*WindowHandle) (T, error)) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	core := h.core
	worker := currentThread()
	core.worker.Store(&worker)
	log := Logger().With(zap.String("window", j.title))
	log.Debug("render worker started", zap.Uint64("thread", worker.id))

	defer func() {
		if r := recover(); r != nil {
			j.err = &WorkerPanicError{Title: j.title, Value: r, Stack: debug.Stack()}
		}
		if j.err != nil && !core.released.Load() {
			_ = core.state.advance(j.title, StateFailed)
		}
		j.err = multierr.Append(j.err, j.cleanup(core))
		if j.err != nil {
			log.Error("render worker failed", zap.Error(j.err))
		} else {
			log.Info("render worker finished", zap.Duration("lifetime", time.Since(j.started)))
		}
		close(j.done)
	}()

	j.value, j.err = fn(h)
}

// cleanup releases whatever the worker function left behind.
func (j *JoinHandle[T]) cleanup(core *windowCore) error {
	if core.released.Load() {
		return nil
	}
	if rc := core.bound.Load(); rc != nil {
		return multierr.Append(
			fmt.Errorf("%w (window %q)", ErrContextLeaked, j.title),
			rc.release(),
		)
	}
	// never bound, e.g. Bind failed
	return core.releaseNative()
}

// Done is closed when the worker finished and released its context.
func (j *JoinHandle[T]) Done() <-chan struct{} {
	return j.done
}

// Join blocks until the worker finished and returns its outcome.
func (j *JoinHandle[T]) Join() (T, error) {
	<-j.done
	return j.value, j.err
}

// JoinTimeout is Join bounded by d (d <= 0 waits forever). On timeout it logs
// a stall diagnostic and returns ErrJoinTimeout; the worker keeps running and
// Join may be called again.
func (j *JoinHandle[T]) JoinTimeout(d time.Duration) (T, error) {
	if d <= 0 {
		return j.Join()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return j.JoinContext(ctx)
}

// JoinContext is Join bounded by ctx.
func (j *JoinHandle[T]) JoinContext(ctx context.Context) (T, error) {
	select {
	case <-j.done:
		return j.value, j.err
	case <-ctx.Done():
		var zero T
		Logger().Warn("render worker stalled, still not joined",
			zap.String("window", j.title),
			zap.Duration("running", time.Since(j.started)),
			zap.Error(ctx.Err()))
		return zero, fmt.Errorf("%w (window %q): %w", ErrJoinTimeout, j.title, ctx.Err())
	}
}
