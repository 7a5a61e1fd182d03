package handoff

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// State is the lifecycle position of one window/context pair.
//
// Unbuilt -> Built happens on the owner thread; Bound -> Released happens on
// the worker thread. No transition is reachable from both. A worker that
// ends with an error passes through Failed on its way to Released.
type State int32

const (
	StateUnbuilt State = iota
	StateBuilt
	StateTransferred
	StateBound
	StateRunning
	StateStopping
	StateReleased
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateTransferred:
		return "transferred"
	case StateBound:
		return "bound"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateReleased:
		return "released"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var transitions = map[State][]State{
	StateUnbuilt:     {StateBuilt},
	StateBuilt:       {StateTransferred, StateReleased},
	StateTransferred: {StateBound, StateReleased, StateFailed},
	StateBound:       {StateRunning, StateReleased, StateFailed},
	StateRunning:     {StateStopping, StateFailed},
	StateStopping:    {StateReleased, StateFailed},
	StateFailed:      {StateReleased},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) load() State {
	return State(c.v.Load())
}

// advance moves to next if that is a legal step from the current state.
func (c *stateCell) advance(title string, next State) error {
	for {
		cur := c.load()
		if !canTransition(cur, next) {
			return fmt.Errorf("%w: %s -> %s (window %q)", ErrInvalidTransition, cur, next, title)
		}
		if c.v.CompareAndSwap(int32(cur), int32(next)) {
			Logger().Debug("state",
				zap.String("window", title),
				zap.Stringer("from", cur),
				zap.Stringer("to", next))
			return nil
		}
	}
}
