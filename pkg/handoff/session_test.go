package handoff

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/gohandoff/internal/platform"
)

type countingRenderer struct {
	initErr   error
	renderErr error

	inited   atomic.Bool
	boundOK  atomic.Bool
	frames   atomic.Int64
	closed   atomic.Bool
	closeErr error
}

func (r *countingRenderer) Init(rc *RenderContext) error {
	if r.initErr != nil {
		return r.initErr
	}
	r.boundOK.Store(rc.Native().(*platform.HeadlessWindow).IsCurrent())
	r.inited.Store(true)
	return nil
}

func (r *countingRenderer) Render(_ *RenderContext, _ int) error {
	r.frames.Add(1)
	return r.renderErr
}

func (r *countingRenderer) Close() error {
	r.closed.Store(true)
	return r.closeErr
}

func sessionConfig(title string) SessionConfig {
	return SessionConfig{
		Title:  title,
		Width:  320,
		Height: 240,
		Loop:   LoopConfig{MaxFrames: 100},
	}
}

func TestSession_EndToEnd(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	r := &countingRenderer{}

	s, err := Start(sub, sessionConfig("e2e"), r)
	require.NoError(t, err)
	assert.True(t, r.inited.Load(), "ready never fires before bind and init")
	assert.True(t, r.boundOK.Load())
	assert.Equal(t, "e2e", s.Title())
	assert.Nil(t, drv.Current())

	res, err := s.Stop()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Frames, uint64(1))
	assert.LessOrEqual(t, res.Frames, uint64(100))
	assert.True(t, r.closed.Load())
	assert.Equal(t, StateReleased, s.State())
	assert.Equal(t, 0, drv.Live())
	require.NoError(t, sub.Close())
}

func TestSession_CaptionSetBeforeReady(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	cfg := sessionConfig("caption")
	cfg.Caption = "new title"

	s, err := Start(sub, cfg, &countingRenderer{})
	require.NoError(t, err)
	assert.Equal(t, "new title", s.core.native.(*platform.HeadlessWindow).Caption())
	assert.Equal(t, "caption", s.Title())
	_, err = s.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, drv.Live())
}

func TestSession_CaptionFailureAbortsStart(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	boom := errors.New("title rejected")
	drv.FailSetTitle = func(*platform.HeadlessWindow) error { return boom }
	cfg := sessionConfig("caption")
	cfg.Caption = "new title"
	r := &countingRenderer{}

	_, err := Start(sub, cfg, r)
	assert.ErrorIs(t, err, boom)
	assert.False(t, r.inited.Load())
	assert.Equal(t, 0, drv.Live())
	assert.Equal(t, 0, sub.Live())
}

func TestSession_InvalidGLVersionSpawnsNoWorker(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	r := &countingRenderer{}
	cfg := sessionConfig("bad-gl")
	cfg.Options = []Option{GLVersion(9, 0)}

	s, err := Start(sub, cfg, r)
	assert.Nil(t, s)
	var ce *CreationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrInvalidAttribute)
	assert.False(t, r.inited.Load())
	assert.Equal(t, 0, drv.Live())
	require.NoError(t, sub.Close())
}

func TestSession_SequentialSessionsShareSubsystem(t *testing.T) {
	sub, drv := newTestSubsystem(t)

	for _, title := range []string{"first", "second"} {
		r := &countingRenderer{}
		s, err := Start(sub, sessionConfig(title), r)
		require.NoError(t, err, title)
		res, err := s.Stop()
		require.NoError(t, err, title)
		assert.GreaterOrEqual(t, res.Frames, uint64(1), title)
		assert.Equal(t, 0, sub.Live(), title)
	}
	assert.Equal(t, 0, drv.Live())
	require.NoError(t, sub.Close())
}

func TestSession_InitFailure(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	boom := errors.New("no shaders")
	r := &countingRenderer{initErr: boom}

	_, err := Start(sub, sessionConfig("init"), r)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrReadyTimeout)
	assert.False(t, r.closed.Load(), "Close only follows a successful Init")
	assert.Equal(t, 0, drv.Live())
	assert.Equal(t, 0, sub.Live())
}

func TestSession_BindFailure(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	boom := errors.New("context lost")
	drv.FailMakeCurrent = func(*platform.HeadlessWindow) error { return boom }

	_, err := Start(sub, sessionConfig("bind"), &countingRenderer{})
	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, drv.Live())
}

func TestSession_ReadyTimeoutOnStuckBind(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	unblock := make(chan struct{})
	drv.FailMakeCurrent = func(*platform.HeadlessWindow) error {
		<-unblock
		return errors.New("gave up")
	}
	cfg := sessionConfig("stuck")
	cfg.ReadyTimeout = 20 * time.Millisecond
	cfg.JoinTimeout = 20 * time.Millisecond

	_, err := Start(sub, cfg, &countingRenderer{})
	assert.ErrorIs(t, err, ErrReadyTimeout)
	assert.ErrorIs(t, err, ErrJoinTimeout)

	close(unblock)
	assert.Eventually(t, func() bool { return sub.Live() == 0 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, drv.Live())
}

func TestSession_FatalPresentEndsWorker(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	var fail atomic.Bool
	drv.FailSwap = func(*platform.HeadlessWindow) error {
		if fail.Load() {
			return errors.New("device lost")
		}
		return nil
	}
	cfg := sessionConfig("lost")
	cfg.Loop = LoopConfig{Budget: NewPresentBudget(2, time.Minute)}

	s, err := Start(sub, cfg, &countingRenderer{})
	require.NoError(t, err)
	fail.Store(true)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker kept running after the budget was exhausted")
	}
	res, err := s.Wait()
	var pe *PresentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, res.PresentFailures)
	assert.Equal(t, StateReleased, s.State())

	// Stop after the worker ended returns the same outcome
	_, err = s.Stop()
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, sub.Live())
}

func TestSession_RenderErrorAndCloseErrorCombined(t *testing.T) {
	sub, _ := newTestSubsystem(t)
	renderErr := errors.New("draw failed")
	closeErr := errors.New("delete buffers failed")
	r := &countingRenderer{renderErr: renderErr, closeErr: closeErr}

	s, err := Start(sub, sessionConfig("combined"), r)
	require.NoError(t, err)
	_, err = s.Wait()
	assert.ErrorIs(t, err, renderErr)
	assert.ErrorIs(t, err, closeErr)
	assert.Equal(t, 0, sub.Live())
}

func TestSession_NilRenderer(t *testing.T) {
	sub, _ := newTestSubsystem(t)
	_, err := Start(sub, sessionConfig("nil"), nil)
	assert.Error(t, err)
	assert.Equal(t, 0, sub.Live())
}

func TestSessionConfig_Defaults(t *testing.T) {
	c := SessionConfig{}.withDefaults()
	assert.Equal(t, DefaultReadyTimeout, c.ReadyTimeout)
	assert.Equal(t, DefaultJoinTimeout, c.JoinTimeout)

	c = SessionConfig{ReadyTimeout: -1, JoinTimeout: time.Second}.withDefaults()
	assert.Equal(t, time.Duration(-1), c.ReadyTimeout)
	assert.Equal(t, time.Second, c.JoinTimeout)
}
