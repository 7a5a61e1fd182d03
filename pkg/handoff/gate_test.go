package handoff

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjkrol/gohandoff/internal/platform"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestTransfer_ConsumesOriginHandle(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	h, err := Build(sub, "moved", 320, 240)
	require.NoError(t, err)

	release := make(chan struct{})
	j, err := Transfer(h, func(wh *WindowHandle) (string, error) {
		<-release
		rc, err := Bind(wh)
		if err != nil {
			return "", err
		}
		return rc.Title(), rc.Release()
	})
	require.NoError(t, err)

	assert.False(t, h.Valid())
	_, err = Transfer(h, func(*WindowHandle) (string, error) { return "", nil })
	assert.ErrorIs(t, err, ErrHandleConsumed)
	assert.ErrorIs(t, h.Close(), ErrHandleConsumed)
	_, err = Bind(h)
	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, ErrHandleConsumed)

	close(release)
	title, err := j.Join()
	require.NoError(t, err)
	assert.Equal(t, "moved", title)
	assert.Equal(t, 0, sub.Live())
	assert.Equal(t, 0, drv.Live())
	require.NoError(t, sub.Close())
}

func TestTransfer_BindsOnWorkerThread(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	h, err := Build(sub, "bound", 64, 64)
	require.NoError(t, err)

	j, err := Transfer(h, func(wh *WindowHandle) (bool, error) {
		rc, err := Bind(wh)
		if err != nil {
			return false, err
		}
		defer rc.Release()
		assert.Equal(t, StateBound, rc.core.state.load())
		w, hgt := rc.FramebufferSize()
		assert.Equal(t, 64, w)
		assert.Equal(t, 64, hgt)
		return rc.Native().(*platform.HeadlessWindow).IsCurrent(), nil
	})
	require.NoError(t, err)
	current, err := j.Join()
	require.NoError(t, err)
	assert.True(t, current)
	assert.Nil(t, drv.Current(), "never current on the origin")
}

func TestBind_RejectsOtherThreads(t *testing.T) {
	requireThreadIdentity(t)
	sub, _ := newTestSubsystem(t)
	h, err := Build(sub, "misplaced", 320, 240)
	require.NoError(t, err)

	j, err := Transfer(h, func(wh *WindowHandle) (struct{}, error) {
		var misplaced error
		onOtherThread(func() { _, misplaced = Bind(wh) })
		assert.ErrorIs(t, misplaced, ErrNotWorkerThread)
		assert.True(t, wh.Valid(), "a misplaced bind leaves the handle usable")

		rc, err := Bind(wh)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, rc.Release()
	})
	require.NoError(t, err)
	_, err = j.Join()
	require.NoError(t, err)
}

func TestBind_UntransferredHandle(t *testing.T) {
	sub, _ := newTestSubsystem(t)
	h, err := Build(sub, "home", 320, 240)
	require.NoError(t, err)

	_, err = Bind(h)
	assert.ErrorIs(t, err, ErrNotWorkerThread)
	assert.True(t, h.Valid())
	require.NoError(t, h.Close())
}

func TestBind_MakeCurrentFailure(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	boom := errors.New("bad pixel format")
	drv.FailMakeCurrent = func(*platform.HeadlessWindow) error { return boom }
	h, err := Build(sub, "nobind", 320, 240)
	require.NoError(t, err)

	j, err := Transfer(h, func(wh *WindowHandle) (int, error) {
		_, err := Bind(wh)
		return 0, err
	})
	require.NoError(t, err)
	_, err = j.Join()
	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrContextLeaked)
	assert.Equal(t, StateReleased, h.core.state.load())
	assert.Equal(t, 0, sub.Live())
	assert.Equal(t, 0, drv.Live())
}

func TestTransfer_UnboundHandleReleasedQuietly(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	h, err := Build(sub, "idle", 320, 240)
	require.NoError(t, err)

	j, err := Transfer(h, func(*WindowHandle) (int, error) { return 7, nil })
	require.NoError(t, err)
	v, err := j.Join()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 0, sub.Live())
	assert.Equal(t, 0, drv.Live())
}

func TestTransfer_LeakedContextReleasedBeforeJoin(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	h, err := Build(sub, "leaky", 320, 240)
	require.NoError(t, err)

	j, err := Transfer(h, func(wh *WindowHandle) (int, error) {
		_, err := Bind(wh)
		return 1, err
	})
	require.NoError(t, err)
	v, err := j.Join()
	assert.Equal(t, 1, v)
	assert.ErrorIs(t, err, ErrContextLeaked)
	assert.Equal(t, StateReleased, h.core.state.load())
	assert.Equal(t, 0, drv.Live())
	require.NoError(t, sub.Close())
}

func TestTransfer_WorkerPanic(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	h, err := Build(sub, "crash", 320, 240)
	require.NoError(t, err)

	j, err := Transfer(h, func(wh *WindowHandle) (int, error) {
		if _, err := Bind(wh); err != nil {
			return 0, err
		}
		panic("driver exploded")
	})
	require.NoError(t, err)
	_, err = j.Join()
	var pe *WorkerPanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "driver exploded", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.ErrorIs(t, err, ErrContextLeaked)
	assert.Equal(t, 0, drv.Live())
	assert.Equal(t, 0, sub.Live())
}

func TestTransfer_NilFunction(t *testing.T) {
	sub, _ := newTestSubsystem(t)
	h, err := Build(sub, "nil", 320, 240)
	require.NoError(t, err)

	_, err = Transfer[int](h, nil)
	assert.Error(t, err)
	assert.True(t, h.Valid(), "no worker, handle untouched")
	require.NoError(t, h.Close())
}

func TestJoinTimeout_LogsStall(t *testing.T) {
	logs := observeLogs(t)
	sub, _ := newTestSubsystem(t)
	h, err := Build(sub, "stall", 320, 240)
	require.NoError(t, err)

	release := make(chan struct{})
	j, err := Transfer(h, func(*WindowHandle) (int, error) {
		<-release
		return 3, nil
	})
	require.NoError(t, err)

	_, err = j.JoinTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrJoinTimeout)
	stalls := logs.FilterMessage("render worker stalled, still not joined").All()
	require.Len(t, stalls, 1)
	assert.Equal(t, "stall", stalls[0].ContextMap()["window"])

	close(release)
	v, err := j.JoinTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	select {
	case <-j.Done():
	default:
		t.Fatal("done not closed after join")
	}
}

func TestRenderContext_PanicsOffThread(t *testing.T) {
	requireThreadIdentity(t)
	sub, _ := newTestSubsystem(t)
	h, err := Build(sub, "confined", 320, 240)
	require.NoError(t, err)
	native := headlessWindow(h)

	j, err := Transfer(h, func(wh *WindowHandle) (any, error) {
		rc, err := Bind(wh)
		if err != nil {
			return nil, err
		}
		defer rc.Release()
		var recovered []any
		for _, op := range []func(){
			func() { _ = rc.Present() },
			func() { _ = rc.SetTitle("stolen") },
		} {
			onOtherThread(func() {
				defer func() { recovered = append(recovered, recover()) }()
				op()
			})
		}
		return recovered, nil
	})
	require.NoError(t, err)
	v, err := j.Join()
	require.NoError(t, err)
	got := v.([]any)
	require.Len(t, got, 2)
	for i, want := range []string{"Present", "SetTitle"} {
		te, ok := got[i].(*ThreadError)
		require.True(t, ok, "panic value %T", got[i])
		assert.Equal(t, want, te.Op)
		assert.NotEqual(t, te.Want, te.Got)
		assert.ErrorIs(t, te, ErrNotWorkerThread)
	}
	assert.Equal(t, "confined", native.Caption())
}

func TestRenderContext_SetTitleFromWorker(t *testing.T) {
	logs := observeLogs(t)
	sub, _ := newTestSubsystem(t)
	h, err := Build(sub, "original", 320, 240)
	require.NoError(t, err)
	native := headlessWindow(h)

	j, err := Transfer(h, func(wh *WindowHandle) (string, error) {
		rc, err := Bind(wh)
		if err != nil {
			return "", err
		}
		defer rc.Release()
		if err := rc.SetTitle("new title"); err != nil {
			return "", err
		}
		return rc.Title(), nil
	})
	require.NoError(t, err)
	title, err := j.Join()
	require.NoError(t, err)
	assert.Equal(t, "original", title)
	assert.Equal(t, "new title", native.Caption())
	assert.Equal(t, 1, logs.FilterMessage("window retitled").FilterField(zap.String("caption", "new title")).Len())
}

func TestRenderContext_SetTitleAfterRelease(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	boom := errors.New("title rejected")
	drv.FailSetTitle = func(*platform.HeadlessWindow) error { return boom }
	h, err := Build(sub, "fixed", 32, 32)
	require.NoError(t, err)

	j, err := Transfer(h, func(wh *WindowHandle) (struct{}, error) {
		rc, err := Bind(wh)
		if err != nil {
			return struct{}{}, err
		}
		err = rc.SetTitle("nope")
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, `"fixed"`)
		assert.NoError(t, rc.Release())
		assert.ErrorIs(t, rc.SetTitle("late"), ErrContextReleased)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	_, err = j.Join()
	require.NoError(t, err)
}

func TestTransfer_ReleasesWindowWhenHandoffFails(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	h, err := Build(sub, "stuck", 32, 32)
	require.NoError(t, err)
	core := h.core
	core.state.v.Store(int32(StateFailed))

	j, err := Transfer(h, func(*WindowHandle) (int, error) {
		t.Error("worker must not start")
		return 0, nil
	})
	assert.Nil(t, j)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, h.Valid())
	assert.True(t, core.released.Load())
	assert.Equal(t, StateReleased, core.state.load())
	assert.Equal(t, 0, sub.Live())
	assert.Equal(t, 0, drv.Live())
}

func TestRenderContext_PresentAndRelease(t *testing.T) {
	sub, drv := newTestSubsystem(t)
	fail := 0
	boom := errors.New("swap lost")
	drv.FailSwap = func(*platform.HeadlessWindow) error {
		if fail > 0 {
			fail--
			return boom
		}
		return nil
	}
	h, err := Build(sub, "present", 32, 32)
	require.NoError(t, err)

	j, err := Transfer(h, func(wh *WindowHandle) (struct{}, error) {
		rc, err := Bind(wh)
		if err != nil {
			return struct{}{}, err
		}
		assert.NoError(t, rc.Present())
		assert.Equal(t, uint64(1), rc.Frames())

		fail = 1
		err = rc.Present()
		var pe *PresentError
		if assert.ErrorAs(t, err, &pe) {
			assert.Equal(t, uint64(2), pe.Frame)
		}
		assert.ErrorIs(t, err, boom)

		// still well-defined after a failure
		assert.NoError(t, rc.Present())
		assert.Equal(t, uint64(2), rc.Frames())
		assert.NoError(t, rc.MakeCurrent())

		assert.NoError(t, rc.Release())
		assert.NoError(t, rc.Release())
		assert.True(t, rc.Released())
		assert.ErrorIs(t, rc.Present(), ErrContextReleased)
		assert.ErrorIs(t, rc.MakeCurrent(), ErrContextReleased)
		w, hgt := rc.FramebufferSize()
		assert.Equal(t, 32, w)
		assert.Equal(t, 32, hgt)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	_, err = j.Join()
	require.NoError(t, err)
	assert.Equal(t, 0, sub.Live())
}
