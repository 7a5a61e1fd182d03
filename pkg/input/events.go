// Package input is the owner side of a handoff: it pumps window events on
// the thread that owns the windowing subsystem while render workers draw.
package input

import "github.com/kjkrol/gohandoff/internal/platform"

type Event interface{}

type KeyPress struct {
	Window string
	Code   uint64
	Label  string
}
type KeyRelease struct {
	Window string
	Code   uint64
	Label  string
}
type ButtonPress struct {
	Window string
	Button uint32
	X, Y   int
}
type ButtonRelease struct {
	Window string
	Button uint32
	X, Y   int
}
type MotionNotify struct {
	Window string
	X, Y   int
}
type MouseWheel struct {
	Window         string
	DeltaX, DeltaY float64
}
type Resize struct {
	Window        string
	Width, Height int
}
type FocusChange struct {
	Window  string
	Focused bool
}
type CloseRequest struct {
	Window string
}
type UnexpectedEvent struct{}

// SessionEnded is emitted by the application when a render worker finished
// on its own, e.g. after a fatal present error.
type SessionEnded struct {
	Window string
	Err    error
}

// Convert maps a driver event. It reports false for poll timeouts.
func Convert(event platform.Event) (Event, bool) {
	switch e := event.(type) {
	case nil, platform.TimeoutEvent:
		return nil, false
	case platform.KeyPress:
		return KeyPress{Window: e.Window, Code: e.Code, Label: e.Label}, true
	case platform.KeyRelease:
		return KeyRelease{Window: e.Window, Code: e.Code, Label: e.Label}, true
	case platform.ButtonPress:
		return ButtonPress{Window: e.Window, Button: e.Button, X: e.X, Y: e.Y}, true
	case platform.ButtonRelease:
		return ButtonRelease{Window: e.Window, Button: e.Button, X: e.X, Y: e.Y}, true
	case platform.MotionNotify:
		return MotionNotify{Window: e.Window, X: e.X, Y: e.Y}, true
	case platform.MouseWheel:
		return MouseWheel{Window: e.Window, DeltaX: e.DeltaX, DeltaY: e.DeltaY}, true
	case platform.Resize:
		return Resize{Window: e.Window, Width: e.Width, Height: e.Height}, true
	case platform.FocusChange:
		return FocusChange{Window: e.Window, Focused: e.Focused}, true
	case platform.CloseRequest:
		return CloseRequest{Window: e.Window}, true
	default:
		return UnexpectedEvent{}, true
	}
}

// IsQuit reports whether e asks the application to stop: Q, Escape, a
// close request, or a render session that ended.
func IsQuit(e Event) bool {
	switch e := e.(type) {
	case KeyPress:
		switch e.Label {
		case "q", "Q", "Escape":
			return true
		}
	case CloseRequest, SessionEnded:
		return true
	}
	return false
}
