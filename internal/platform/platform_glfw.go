//go:build cgo && !sdl

package platform

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	Register(DriverGLFW, newGLFWDriver)
}

// glfwDriver must be opened, pumped and terminated on the main thread. GLFW
// also requires windows to be destroyed and retitled there, so Window.Destroy
// and Window.SetTitle called from a render thread only queue the work; the
// owner applies it on its next NextEventTimeout or Terminate.
type glfwDriver struct {
	events chan Event

	mu      sync.Mutex
	pending []*glfw.Window
	titles  map[*glfw.Window]string
}

func newGLFWDriver() (Driver, error) {
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	return &glfwDriver{
		events: make(chan Event, headlessEventBuffer),
		titles: make(map[*glfw.Window]string),
	}, nil
}

func (d *glfwDriver) Name() string { return DriverGLFW }

func (d *glfwDriver) CreateWindow(conf WindowConfig) (Window, error) {
	var (
		win *glfw.Window
		err error
	)
	callErr := glfwCall(func() {
		applyHints(conf)
		var monitor *glfw.Monitor
		if conf.Flags.Has(FlagFullscreen) {
			monitor = glfw.GetPrimaryMonitor()
		}
		win, err = glfw.CreateWindow(conf.Width, conf.Height, conf.Title, monitor, nil)
		if err != nil || monitor != nil {
			return
		}
		x, y := conf.PositionX, conf.PositionY
		if conf.Centered {
			if mode := glfw.GetPrimaryMonitor().GetVideoMode(); mode != nil {
				x, y = (mode.Width-conf.Width)/2, (mode.Height-conf.Height)/2
			}
		}
		win.SetPos(x, y)
	})
	if err == nil {
		err = callErr
	}
	if err != nil {
		return nil, fmt.Errorf("glfw: create window %q: %w", conf.Title, err)
	}

	w := &glfwWindow{driver: d, win: win, title: conf.Title}
	fbw, fbh := win.GetFramebufferSize()
	w.storeSize(fbw, fbh)
	d.installCallbacks(w)

	if err := glfwCall(win.MakeContextCurrent); err != nil {
		d.destroyNow(win)
		return nil, fmt.Errorf("glfw: make context current %q: %w", conf.Title, err)
	}
	if conf.GL.VSync {
		glfw.SwapInterval(1)
	}
	return w, nil
}

func applyHints(conf WindowConfig) {
	glfw.DefaultWindowHints()
	if conf.GL.Major > 0 {
		glfw.WindowHint(glfw.ContextVersionMajor, conf.GL.Major)
		glfw.WindowHint(glfw.ContextVersionMinor, conf.GL.Minor)
	}
	switch conf.GL.Profile {
	case ProfileCore:
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	case ProfileCompat:
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	case ProfileES:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
	}
	glfw.WindowHint(glfw.DoubleBuffer, glfwBool(conf.GL.DoubleBuffer))
	glfw.WindowHint(glfw.Resizable, glfwBool(conf.Flags.Has(FlagResizable)))
	glfw.WindowHint(glfw.Decorated, glfwBool(!conf.Flags.Has(FlagBorderless)))
	glfw.WindowHint(glfw.Visible, glfwBool(!conf.Flags.Has(FlagHidden)))
}

func (d *glfwDriver) installCallbacks(w *glfwWindow) {
	var cursorX, cursorY float64
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, _ glfw.ModifierKey) {
		label := keyLabel(key, scancode)
		switch action {
		case glfw.Press, glfw.Repeat:
			d.emit(KeyPress{Window: w.title, Code: uint64(key), Label: label})
		case glfw.Release:
			d.emit(KeyRelease{Window: w.title, Code: uint64(key), Label: label})
		}
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		cursorX, cursorY = x, y
		d.emit(MotionNotify{Window: w.title, X: int(x), Y: int(y)})
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press {
			d.emit(ButtonPress{Window: w.title, Button: uint32(button), X: int(cursorX), Y: int(cursorY)})
			return
		}
		d.emit(ButtonRelease{Window: w.title, Button: uint32(button), X: int(cursorX), Y: int(cursorY)})
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		d.emit(MouseWheel{Window: w.title, DeltaX: dx, DeltaY: dy})
	})
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.storeSize(width, height)
		d.emit(Resize{Window: w.title, Width: width, Height: height})
	})
	w.win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		d.emit(FocusChange{Window: w.title, Focused: focused})
	})
	w.win.SetCloseCallback(func(_ *glfw.Window) {
		d.emit(CloseRequest{Window: w.title})
	})
}

func keyLabel(key glfw.Key, scancode int) string {
	switch key {
	case glfw.KeyEscape:
		return "Escape"
	case glfw.KeySpace:
		return "Space"
	case glfw.KeyEnter:
		return "Return"
	}
	return glfw.GetKeyName(key, scancode)
}

func (d *glfwDriver) emit(event Event) {
	select {
	case d.events <- event:
	default:
	}
}

func (d *glfwDriver) ReleaseCurrent() error {
	return glfwCall(glfw.DetachCurrentContext)
}

func (d *glfwDriver) NextEventTimeout(timeoutMs int) Event {
	d.flushPending()
	select {
	case e := <-d.events:
		return e
	default:
	}
	if timeoutMs <= 0 {
		glfw.PollEvents()
	} else {
		glfw.WaitEventsTimeout(float64(timeoutMs) / 1000)
	}
	d.flushPending()
	select {
	case e := <-d.events:
		return e
	default:
		return TimeoutEvent{}
	}
}

func (d *glfwDriver) Terminate() {
	d.flushPending()
	glfw.Terminate()
}

func (d *glfwDriver) queueDestroy(win *glfw.Window) {
	d.mu.Lock()
	d.pending = append(d.pending, win)
	d.mu.Unlock()
	glfw.PostEmptyEvent()
}

func (d *glfwDriver) queueTitle(win *glfw.Window, caption string) {
	d.mu.Lock()
	d.titles[win] = caption
	d.mu.Unlock()
	glfw.PostEmptyEvent()
}

// flushPending runs on the owner. Captions go before destroys.
func (d *glfwDriver) flushPending() {
	d.mu.Lock()
	pending, titles := d.pending, d.titles
	d.pending, d.titles = nil, make(map[*glfw.Window]string)
	d.mu.Unlock()
	for win, caption := range titles {
		_ = glfwCall(func() { win.SetTitle(caption) })
	}
	for _, win := range pending {
		d.destroyNow(win)
	}
}

func (d *glfwDriver) destroyNow(win *glfw.Window) {
	_ = glfwCall(win.Destroy)
}

type glfwWindow struct {
	driver    *glfwDriver
	win       *glfw.Window
	title     string
	size      atomic.Uint64
	destroyed atomic.Bool
}

func (w *glfwWindow) Title() string { return w.title }

func (w *glfwWindow) SetTitle(caption string) error {
	if w.destroyed.Load() {
		return ErrWindowDestroyed
	}
	w.driver.queueTitle(w.win, caption)
	return nil
}

func (w *glfwWindow) MakeCurrent() error {
	if w.destroyed.Load() {
		return ErrWindowDestroyed
	}
	return glfwCall(w.win.MakeContextCurrent)
}

func (w *glfwWindow) Swap() error {
	if w.destroyed.Load() {
		return ErrWindowDestroyed
	}
	return glfwCall(w.win.SwapBuffers)
}

// FramebufferSize reads the size cached by the owner-side callback; GLFW
// only allows querying it from the main thread.
func (w *glfwWindow) FramebufferSize() (int, int) {
	v := w.size.Load()
	return int(v >> 32), int(uint32(v))
}

func (w *glfwWindow) storeSize(width, height int) {
	w.size.Store(uint64(uint32(width))<<32 | uint64(uint32(height)))
}

func (w *glfwWindow) Destroy() error {
	if !w.destroyed.CompareAndSwap(false, true) {
		return ErrWindowDestroyed
	}
	if glfw.GetCurrentContext() == w.win {
		if err := glfwCall(glfw.DetachCurrentContext); err != nil {
			return err
		}
	}
	w.driver.queueDestroy(w.win)
	return nil
}

// glfwCall turns the panics go-gl/glfw raises for GLFW errors into errors.
func glfwCall(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("glfw: %v", r)
		}
	}()
	fn()
	return nil
}

func glfwBool(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}
