package platform

// Event is a raw event produced by a driver on the owner thread.
type Event interface{}

// KeyPress and KeyRelease carry the driver key code and a readable label
// ("q", "Escape", ...).
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

// Resize reports a new framebuffer size in pixels.
type Resize struct {
	Window        string
	Width, Height int
}

type FocusChange struct {
	Window  string
	Focused bool
}

// CloseRequest is the user asking a window (or the whole app) to close.
type CloseRequest struct {
	Window string
}

type UnexpectedEvent struct{}

// TimeoutEvent is returned when no event arrived before the timeout.
type TimeoutEvent struct{}
