package input

import (
	"context"

	"go.uber.org/zap"

	"github.com/kjkrol/gohandoff/internal/platform"
)

const (
	defaultBufferSize = 1024
	defaultTimeoutMs  = 50
)

// Pump reads driver events on the owner thread and hands them to a handler,
// together with events emitted from other goroutines.
type Pump struct {
	driver    platform.Driver
	strategy  Strategy
	timeoutMs int
	events    chan Event
	log       *zap.Logger
}

type PumpOption func(*Pump)

// WithStrategy sets how many events one iteration consumes (default
// DrainAll).
func WithStrategy(s Strategy) PumpOption {
	return func(p *Pump) {
		if s != nil {
			p.strategy = s
		}
	}
}

// WithTimeout sets how long one iteration waits for a driver event. It also
// bounds how late the pump notices a cancelled context.
func WithTimeout(ms int) PumpOption {
	return func(p *Pump) {
		if ms >= 0 {
			p.timeoutMs = ms
		}
	}
}

// WithBuffer sizes the queue for Emit.
func WithBuffer(size int) PumpOption {
	return func(p *Pump) {
		if size > 0 {
			p.events = make(chan Event, size)
		}
	}
}

func WithLogger(l *zap.Logger) PumpOption {
	return func(p *Pump) {
		if l != nil {
			p.log = l
		}
	}
}

func NewPump(driver platform.Driver, opts ...PumpOption) *Pump {
	p := &Pump{
		driver:    driver,
		strategy:  DrainAll(),
		timeoutMs: defaultTimeoutMs,
		events:    make(chan Event, defaultBufferSize),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit queues an event for the next iteration. It never blocks; the event is
// dropped when the queue is full.
func (p *Pump) Emit(event Event) {
	if p == nil || event == nil {
		return
	}
	select {
	case p.events <- event:
	default:
		p.log.Warn("input queue full, event dropped", zap.Any("event", event))
	}
}

func (p *Pump) poll(timeoutMs int) (Event, bool) {
	select {
	case e := <-p.events:
		return e, true
	default:
	}
	return Convert(p.driver.NextEventTimeout(timeoutMs))
}

// Run pumps events until handle returns false or ctx ends. It must run on
// the subsystem owner thread. It returns the number of events handled and
// ctx.Err() when cancelled.
func (p *Pump) Run(ctx context.Context, handle Handle) (int, error) {
	total := 0
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		n, more := p.strategy.Consume(p.poll, func(e Event) bool {
			p.log.Debug("event", zap.String("type", eventName(e)), zap.Any("event", e))
			return handle(e)
		}, p.timeoutMs)
		total += n
		if !more {
			return total, nil
		}
	}
}

func eventName(e Event) string {
	switch e.(type) {
	case KeyPress:
		return "key_press"
	case KeyRelease:
		return "key_release"
	case ButtonPress:
		return "button_press"
	case ButtonRelease:
		return "button_release"
	case MotionNotify:
		return "motion"
	case MouseWheel:
		return "wheel"
	case Resize:
		return "resize"
	case FocusChange:
		return "focus"
	case CloseRequest:
		return "close_request"
	case SessionEnded:
		return "session_ended"
	default:
		return "unexpected"
	}
}
