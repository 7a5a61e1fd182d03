package handoff

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kjkrol/gohandoff/internal/osthread"
	"github.com/kjkrol/gohandoff/internal/platform"
)

type threadID struct {
	id    uint64
	known bool
}

func currentThread() threadID {
	id, ok := osthread.ID()
	return threadID{id: id, known: ok}
}

func (t threadID) isCurrent() bool {
	return osthread.Same(t.id, t.known)
}

// Subsystem is the windowing subsystem owned by the input thread. Every
// WindowHandle built from it holds a reference; Close fails with
// ErrSubsystemBusy until all of them are released.
//
// The goroutine that opens a Subsystem must be locked to its OS thread
// (runtime.LockOSThread) and stay there: Build and Close verify it.
type Subsystem struct {
	driver platform.Driver
	owner  threadID

	mu     sync.Mutex
	live   int
	closed bool
}

// NewSubsystem wraps an opened driver, recording the calling thread as owner.
func NewSubsystem(driver platform.Driver) (*Subsystem, error) {
	if driver == nil {
		return nil, errors.New("handoff: nil driver")
	}
	s := &Subsystem{driver: driver, owner: currentThread()}
	Logger().Info("subsystem opened", zap.String("driver", driver.Name()))
	return s, nil
}

// OpenSubsystem opens the named platform driver ("" picks the best available
// one) and wraps it.
func OpenSubsystem(name string) (*Subsystem, error) {
	driver, err := platform.Open(name)
	if err != nil {
		return nil, err
	}
	return NewSubsystem(driver)
}

// Driver exposes the driver for owner-side event pumping.
func (s *Subsystem) Driver() platform.Driver {
	return s.driver
}

// Live returns the number of windows built and not yet released.
func (s *Subsystem) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Close terminates the driver. It must run on the owner thread after every
// worker was joined.
func (s *Subsystem) Close() error {
	if !s.owner.isCurrent() {
		return ErrNotOwnerThread
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubsystemClosed
	}
	if s.live > 0 {
		return fmt.Errorf("%w: %d window(s) alive", ErrSubsystemBusy, s.live)
	}
	s.closed = true
	s.driver.Terminate()
	Logger().Info("subsystem closed", zap.String("driver", s.driver.Name()))
	return nil
}

func (s *Subsystem) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubsystemClosed
	}
	s.live++
	return nil
}

func (s *Subsystem) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live > 0 {
		s.live--
	}
}
