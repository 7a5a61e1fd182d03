package handoff

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultReadyTimeout = 5 * time.Second
	DefaultJoinTimeout  = 10 * time.Second
)

// Renderer is the graphics binding layer driven by a Session. All methods run
// on the worker thread with the context current.
type Renderer interface {
	Init(rc *RenderContext) error
	Render(rc *RenderContext, frame int) error
	Close() error
}

type SessionConfig struct {
	Title   string
	Width   int
	Height  int
	Options []Option
	// Caption, when set, is applied by the worker after it bound the
	// context and before it reports ready. Title keeps naming the window.
	Caption string

	// ReadyTimeout bounds the wait for the worker to bind; 0 means
	// DefaultReadyTimeout, negative waits forever.
	ReadyTimeout time.Duration
	// JoinTimeout bounds Stop; 0 means DefaultJoinTimeout, negative waits
	// forever.
	JoinTimeout time.Duration

	Loop LoopConfig
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = DefaultReadyTimeout
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	return c
}

// Session is one window handed off to one render worker.
type Session struct {
	cfg   SessionConfig
	core  *windowCore
	ready *Ready
	stop  *StopFlag
	join  *JoinHandle[LoopResult]
}

// Start builds a window on the owner thread, transfers it to a new render
// worker and waits until the worker has bound the context and initialized r.
// On any failure before that point the worker is stopped and joined, so no
// render loop is left behind.
func Start(sub *Subsystem, cfg SessionConfig, r Renderer) (*Session, error) {
	if r == nil {
		return nil, errors.New("handoff: nil renderer")
	}
	cfg = cfg.withDefaults()
	h, err := Build(sub, cfg.Title, cfg.Width, cfg.Height, cfg.Options...)
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:   cfg,
		core:  h.core,
		ready: NewReady(),
		stop:  NewStopFlag(),
	}
	s.join, err = Transfer(h, func(wh *WindowHandle) (LoopResult, error) {
		return s.work(wh, r)
	})
	if err != nil {
		return nil, err
	}

	if err := s.ready.WaitTimeout(cfg.ReadyTimeout); err != nil {
		s.stop.Set()
		_, joinErr := s.join.JoinTimeout(cfg.JoinTimeout)
		if errors.Is(err, ErrReadyTimeout) || joinErr == nil {
			return nil, multierr.Append(err, joinErr)
		}
		// the join outcome already carries the bind or init failure
		return nil, joinErr
	}
	Logger().Info("session started", zap.String("window", cfg.Title))
	return s, nil
}

func (s *Session) work(h *WindowHandle, r Renderer) (res LoopResult, err error) {
	defer func() {
		if !s.ready.Fired() {
			_ = s.ready.Fail(err)
		}
	}()

	rc, err := Bind(h)
	if err != nil {
		return res, err
	}
	defer func() {
		err = multierr.Append(err, rc.Release())
	}()
	if s.cfg.Caption != "" {
		if err := rc.SetTitle(s.cfg.Caption); err != nil {
			return res, err
		}
	}
	if err := r.Init(rc); err != nil {
		return res, fmt.Errorf("handoff: init renderer for %q: %w", s.cfg.Title, err)
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()

	if err := s.ready.Signal(); err != nil {
		return res, err
	}
	return RunLoop(rc, s.stop, s.cfg.Loop, r.Render)
}

func (s *Session) Title() string {
	return s.cfg.Title
}

// State returns the lifecycle state of the session's window.
func (s *Session) State() State {
	return s.core.state.load()
}

// Done is closed when the worker has ended, including on its own after a
// fatal render or present error.
func (s *Session) Done() <-chan struct{} {
	return s.join.Done()
}

// Stop raises the stop flag and joins the worker, bounded by JoinTimeout.
// It may be called again after ErrJoinTimeout.
func (s *Session) Stop() (LoopResult, error) {
	if s.stop.Set() {
		Logger().Info("session stopping", zap.String("window", s.cfg.Title))
	}
	return s.join.JoinTimeout(s.cfg.JoinTimeout)
}

// Wait joins the worker without stopping it.
func (s *Session) Wait() (LoopResult, error) {
	return s.join.Join()
}
