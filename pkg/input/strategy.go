package input

// Poll returns the next event, waiting up to timeoutMs; false means none
// arrived.
type Poll func(timeoutMs int) (Event, bool)

// Handle consumes one event and returns false to stop consuming.
type Handle func(Event) bool

// Strategy decides how many queued events one pump iteration consumes. Only
// the first poll waits; the rest take what is already queued.
type Strategy interface {
	Consume(poll Poll, handle Handle, timeoutMs int) (n int, more bool)
}

type drainAll struct{}

type drainMax struct {
	max int
}

// DrainAll consumes everything queued.
func DrainAll() Strategy {
	return drainAll{}
}

// DrainMax consumes at most max events per iteration, so a flood of motion
// events cannot starve the rest of the owner loop.
func DrainMax(max int) Strategy {
	if max <= 0 {
		max = 1
	}
	return drainMax{max: max}
}

func (drainAll) Consume(poll Poll, handle Handle, timeoutMs int) (int, bool) {
	return drain(poll, handle, timeoutMs, -1)
}

func (s drainMax) Consume(poll Poll, handle Handle, timeoutMs int) (int, bool) {
	return drain(poll, handle, timeoutMs, s.max)
}

// drain consumes up to limit events (negative for no limit).
func drain(poll Poll, handle Handle, timeoutMs, limit int) (int, bool) {
	n := 0
	wait := timeoutMs
	for limit < 0 || n < limit {
		event, ok := poll(wait)
		if !ok {
			return n, true
		}
		wait = 0
		n++
		if !handle(event) {
			return n, false
		}
	}
	return n, true
}
