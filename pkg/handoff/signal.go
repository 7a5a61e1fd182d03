package handoff

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Ready is a one-shot rendezvous: the worker signals (or fails) once, and
// any number of waiters observe the outcome.
type Ready struct {
	fired atomic.Bool
	done  chan struct{}
	err   error
}

func NewReady() *Ready {
	return &Ready{done: make(chan struct{})}
}

// Signal reports success. Only the first Signal or Fail counts; later calls
// return ErrAlreadySignaled.
func (r *Ready) Signal() error {
	return r.fire(nil)
}

// Fail reports that the worker will never become ready. A nil err is
// replaced by a generic failure.
func (r *Ready) Fail(err error) error {
	if err == nil {
		err = fmt.Errorf("handoff: render worker failed before ready")
	}
	return r.fire(err)
}

func (r *Ready) fire(err error) error {
	if !r.fired.CompareAndSwap(false, true) {
		return ErrAlreadySignaled
	}
	r.err = err
	close(r.done)
	return nil
}

// Fired reports whether Signal or Fail was called.
func (r *Ready) Fired() bool {
	return r.fired.Load()
}

// Done is closed once the outcome is known.
func (r *Ready) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the outcome is known or ctx ends. A context deadline is
// reported as ErrReadyTimeout.
func (r *Ready) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		// the outcome may have landed at the same time
		select {
		case <-r.done:
			return r.err
		default:
		}
		return fmt.Errorf("%w: %w", ErrReadyTimeout, ctx.Err())
	}
}

// WaitTimeout is Wait bounded by d; d < 0 waits forever.
func (r *Ready) WaitTimeout(d time.Duration) error {
	if d < 0 {
		return r.Wait(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return r.Wait(ctx)
}

// StopFlag is a one-way flag set by the origin and polled by the render
// loop. The zero value is ready to use.
type StopFlag struct {
	set atomic.Bool
	ch  atomic.Pointer[chan struct{}]
}

func NewStopFlag() *StopFlag {
	return &StopFlag{}
}

// Set raises the flag. It returns true for the call that raised it.
func (f *StopFlag) Set() bool {
	if !f.set.CompareAndSwap(false, true) {
		return false
	}
	close(f.channel())
	return true
}

// Stopped reports whether Set was called.
func (f *StopFlag) Stopped() bool {
	return f.set.Load()
}

// Done is closed once the flag is set.
func (f *StopFlag) Done() <-chan struct{} {
	return f.channel()
}

func (f *StopFlag) channel() chan struct{} {
	if ch := f.ch.Load(); ch != nil {
		return *ch
	}
	ch := make(chan struct{})
	if f.ch.CompareAndSwap(nil, &ch) {
		return ch
	}
	return *f.ch.Load()
}
