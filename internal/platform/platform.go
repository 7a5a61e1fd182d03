package platform

import "fmt"

type Profile int

const (
	ProfileAny Profile = iota
	ProfileCore
	ProfileCompat
	ProfileES
)

func (p Profile) String() string {
	switch p {
	case ProfileAny:
		return "any"
	case ProfileCore:
		return "core"
	case ProfileCompat:
		return "compat"
	case ProfileES:
		return "es"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// GLAttributes are applied before the native window is created.
type GLAttributes struct {
	Major        int
	Minor        int
	Profile      Profile
	DoubleBuffer bool
	VSync        bool
}

type WindowFlags uint32

const (
	FlagResizable WindowFlags = 1 << iota
	FlagFullscreen
	FlagBorderless
	FlagHidden
)

func (f WindowFlags) Has(flag WindowFlags) bool {
	return f&flag != 0
}

type WindowConfig struct {
	Title     string
	Width     int
	Height    int
	Centered  bool
	PositionX int
	PositionY int
	GL        GLAttributes
	Flags     WindowFlags
}

// Driver is the windowing subsystem. Every method except the ones on Window
// must be called from the thread that opened the driver.
type Driver interface {
	Name() string
	// CreateWindow creates a window and its GL context. The context is left
	// current on the calling thread, as the native APIs do.
	CreateWindow(conf WindowConfig) (Window, error)
	// ReleaseCurrent detaches whatever context is current on the calling thread.
	ReleaseCurrent() error
	NextEventTimeout(timeoutMs int) Event
	Terminate()
}

// Window is a native window plus its GL context. MakeCurrent, Swap,
// FramebufferSize and SetTitle may be called from the thread the context is
// current on.
type Window interface {
	// Title is the name the window was created with. Events carry it even
	// after SetTitle changed the caption.
	Title() string
	// SetTitle changes the caption shown by the platform.
	SetTitle(caption string) error
	MakeCurrent() error
	Swap() error
	FramebufferSize() (int, int)
	Destroy() error
}
