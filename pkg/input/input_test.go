package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/gohandoff/internal/platform"
)

func TestConvert(t *testing.T) {
	cases := []struct {
		in   platform.Event
		want Event
		ok   bool
	}{
		{platform.TimeoutEvent{}, nil, false},
		{nil, nil, false},
		{platform.KeyPress{Window: "w", Code: 113, Label: "q"}, KeyPress{Window: "w", Code: 113, Label: "q"}, true},
		{platform.KeyRelease{Window: "w", Code: 27, Label: "Escape"}, KeyRelease{Window: "w", Code: 27, Label: "Escape"}, true},
		{platform.ButtonPress{Window: "w", Button: 1, X: 3, Y: 4}, ButtonPress{Window: "w", Button: 1, X: 3, Y: 4}, true},
		{platform.ButtonRelease{Button: 2}, ButtonRelease{Button: 2}, true},
		{platform.MotionNotify{X: 5, Y: 6}, MotionNotify{X: 5, Y: 6}, true},
		{platform.MouseWheel{DeltaY: -1}, MouseWheel{DeltaY: -1}, true},
		{platform.Resize{Width: 640, Height: 480}, Resize{Width: 640, Height: 480}, true},
		{platform.FocusChange{Focused: true}, FocusChange{Focused: true}, true},
		{platform.CloseRequest{Window: "w"}, CloseRequest{Window: "w"}, true},
		{platform.UnexpectedEvent{}, UnexpectedEvent{}, true},
		{struct{}{}, UnexpectedEvent{}, true},
	}
	for _, tc := range cases {
		got, ok := Convert(tc.in)
		assert.Equal(t, tc.ok, ok, "%T", tc.in)
		assert.Equal(t, tc.want, got, "%T", tc.in)
	}
}

func TestIsQuit(t *testing.T) {
	assert.True(t, IsQuit(KeyPress{Label: "q"}))
	assert.True(t, IsQuit(KeyPress{Label: "Escape"}))
	assert.True(t, IsQuit(CloseRequest{}))
	assert.True(t, IsQuit(SessionEnded{Err: errors.New("lost")}))
	assert.False(t, IsQuit(KeyRelease{Label: "q"}))
	assert.False(t, IsQuit(KeyPress{Label: "w"}))
	assert.False(t, IsQuit(MotionNotify{}))
}

// queuePoll serves events from a slice, recording the timeouts it was asked
// to wait.
type queuePoll struct {
	events   []Event
	timeouts []int
}

func (q *queuePoll) poll(timeoutMs int) (Event, bool) {
	q.timeouts = append(q.timeouts, timeoutMs)
	if len(q.events) == 0 {
		return nil, false
	}
	e := q.events[0]
	q.events = q.events[1:]
	return e, true
}

func keep(Event) bool { return true }

func TestDrainAll(t *testing.T) {
	q := &queuePoll{events: []Event{KeyPress{}, KeyRelease{}, MotionNotify{}}}
	n, more := DrainAll().Consume(q.poll, keep, 25)
	assert.Equal(t, 3, n)
	assert.True(t, more)
	assert.Equal(t, []int{25, 0, 0, 0}, q.timeouts, "only the first poll waits")
}

func TestDrainMax(t *testing.T) {
	q := &queuePoll{events: []Event{KeyPress{}, KeyRelease{}, MotionNotify{}}}
	n, more := DrainMax(2).Consume(q.poll, keep, 25)
	assert.Equal(t, 2, n)
	assert.True(t, more)
	assert.Len(t, q.events, 1)

	n, _ = DrainMax(0).Consume(q.poll, keep, 0)
	assert.Equal(t, 1, n)
}

func TestDrain_StopsWhenHandlerDeclines(t *testing.T) {
	q := &queuePoll{events: []Event{MotionNotify{}, KeyPress{Label: "q"}, MotionNotify{}}}
	var seen []Event
	n, more := DrainAll().Consume(q.poll, func(e Event) bool {
		seen = append(seen, e)
		return !IsQuit(e)
	}, 0)
	assert.Equal(t, 2, n)
	assert.False(t, more)
	assert.Len(t, q.events, 1, "events after the quit stay queued")
}

func TestPump_RunUntilQuit(t *testing.T) {
	drv := platform.NewHeadless()
	drv.Inject(platform.MotionNotify{X: 1})
	drv.Inject(platform.KeyPress{Label: "a"})
	drv.Inject(platform.KeyPress{Label: "Escape"})

	p := NewPump(drv, WithTimeout(5), WithStrategy(DrainMax(1)))
	var seen []Event
	n, err := p.Run(context.Background(), func(e Event) bool {
		seen = append(seen, e)
		return !IsQuit(e)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []Event{MotionNotify{X: 1}, KeyPress{Label: "a"}, KeyPress{Label: "Escape"}}, seen)
}

func TestPump_EmitFromOtherGoroutine(t *testing.T) {
	drv := platform.NewHeadless()
	p := NewPump(drv, WithTimeout(5), WithBuffer(4))

	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Emit(SessionEnded{Window: "w"})
	}()
	var last Event
	_, err := p.Run(context.Background(), func(e Event) bool {
		last = e
		return !IsQuit(e)
	})
	require.NoError(t, err)
	assert.Equal(t, SessionEnded{Window: "w"}, last)
}

func TestPump_EmitDropsWhenFull(t *testing.T) {
	p := NewPump(platform.NewHeadless(), WithBuffer(1))
	p.Emit(KeyPress{Label: "a"})
	p.Emit(KeyPress{Label: "b"})
	p.Emit(nil)
	assert.Len(t, p.events, 1)

	var nilPump *Pump
	nilPump.Emit(KeyPress{})
}

func TestPump_ContextCancel(t *testing.T) {
	p := NewPump(platform.NewHeadless(), WithTimeout(5))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := p.Run(ctx, keep)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, n)
}
