//go:build cgo && sdl

package platform

/*
#cgo pkg-config: sdl2
#include <stdlib.h>
#include <SDL2/SDL.h>

static inline int my_SDL_GL_ReleaseCurrent(void) {
    return SDL_GL_MakeCurrent(NULL, NULL);
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

func init() {
	Register(DriverSDL, newSDLDriver)
}

type sdlDriver struct {
	mu     sync.Mutex
	titles map[C.Uint32]string
}

func newSDLDriver() (Driver, error) {
	if C.SDL_Init(C.SDL_INIT_VIDEO) != 0 {
		return nil, sdlError("SDL_Init")
	}
	C.SDL_EventState(C.SDL_QUIT, C.SDL_ENABLE)
	return &sdlDriver{titles: make(map[C.Uint32]string)}, nil
}

func sdlError(op string) error {
	return fmt.Errorf("%s: %s", op, C.GoString(C.SDL_GetError()))
}

func (d *sdlDriver) Name() string { return DriverSDL }

func (d *sdlDriver) CreateWindow(conf WindowConfig) (Window, error) {
	// attributes must be set before SDL_CreateWindow
	if conf.GL.Major > 0 {
		C.SDL_GL_SetAttribute(C.SDL_GL_CONTEXT_MAJOR_VERSION, C.int(conf.GL.Major))
		C.SDL_GL_SetAttribute(C.SDL_GL_CONTEXT_MINOR_VERSION, C.int(conf.GL.Minor))
	}
	switch conf.GL.Profile {
	case ProfileCore:
		C.SDL_GL_SetAttribute(C.SDL_GL_CONTEXT_PROFILE_MASK, C.SDL_GL_CONTEXT_PROFILE_CORE)
	case ProfileCompat:
		C.SDL_GL_SetAttribute(C.SDL_GL_CONTEXT_PROFILE_MASK, C.SDL_GL_CONTEXT_PROFILE_COMPATIBILITY)
	case ProfileES:
		C.SDL_GL_SetAttribute(C.SDL_GL_CONTEXT_PROFILE_MASK, C.SDL_GL_CONTEXT_PROFILE_ES)
	}
	doubleBuffer := C.int(0)
	if conf.GL.DoubleBuffer {
		doubleBuffer = 1
	}
	C.SDL_GL_SetAttribute(C.SDL_GL_DOUBLEBUFFER, doubleBuffer)

	flags := C.Uint32(C.SDL_WINDOW_OPENGL)
	if conf.Flags.Has(FlagResizable) {
		flags |= C.SDL_WINDOW_RESIZABLE
	}
	if conf.Flags.Has(FlagFullscreen) {
		flags |= C.SDL_WINDOW_FULLSCREEN
	}
	if conf.Flags.Has(FlagBorderless) {
		flags |= C.SDL_WINDOW_BORDERLESS
	}
	if conf.Flags.Has(FlagHidden) {
		flags |= C.SDL_WINDOW_HIDDEN
	} else {
		flags |= C.SDL_WINDOW_SHOWN
	}

	x, y := C.int(conf.PositionX), C.int(conf.PositionY)
	if conf.Centered {
		x, y = C.SDL_WINDOWPOS_CENTERED, C.SDL_WINDOWPOS_CENTERED
	}

	cTitle := C.CString(conf.Title)
	defer C.free(unsafe.Pointer(cTitle))

	window := C.SDL_CreateWindow(cTitle, x, y, C.int(conf.Width), C.int(conf.Height), flags)
	if window == nil {
		return nil, sdlError("SDL_CreateWindow")
	}
	glContext := C.SDL_GL_CreateContext(window)
	if glContext == nil {
		err := sdlError("SDL_GL_CreateContext")
		C.SDL_DestroyWindow(window)
		return nil, err
	}
	if conf.GL.VSync {
		C.SDL_GL_SetSwapInterval(1)
	}

	d.mu.Lock()
	d.titles[C.SDL_GetWindowID(window)] = conf.Title
	d.mu.Unlock()

	return &sdlWindow{driver: d, window: window, glContext: glContext, title: conf.Title}, nil
}

func (d *sdlDriver) ReleaseCurrent() error {
	if C.my_SDL_GL_ReleaseCurrent() != 0 {
		return sdlError("SDL_GL_MakeCurrent")
	}
	return nil
}

func (d *sdlDriver) NextEventTimeout(timeoutMs int) Event {
	var e C.SDL_Event
	if C.SDL_WaitEventTimeout(&e, C.int(timeoutMs)) != 0 {
		return d.convert(e)
	}
	return TimeoutEvent{}
}

func (d *sdlDriver) Terminate() {
	C.SDL_Quit()
}

func (d *sdlDriver) titleOf(id C.Uint32) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.titles[id]
}

func (d *sdlDriver) convert(event C.SDL_Event) Event {
	switch eventType := (*(*C.Uint32)(unsafe.Pointer(&event))); eventType {
	case C.SDL_QUIT:
		return CloseRequest{}
	case C.SDL_KEYDOWN:
		keyEvent := (*C.SDL_KeyboardEvent)(unsafe.Pointer(&event))
		return KeyPress{
			Window: d.titleOf(keyEvent.windowID),
			Code:   uint64(keyEvent.keysym.scancode),
			Label:  C.GoString(C.SDL_GetKeyName(keyEvent.keysym.sym)),
		}
	case C.SDL_KEYUP:
		keyEvent := (*C.SDL_KeyboardEvent)(unsafe.Pointer(&event))
		return KeyRelease{
			Window: d.titleOf(keyEvent.windowID),
			Code:   uint64(keyEvent.keysym.scancode),
			Label:  C.GoString(C.SDL_GetKeyName(keyEvent.keysym.sym)),
		}
	case C.SDL_MOUSEBUTTONDOWN:
		mouseEvent := (*C.SDL_MouseButtonEvent)(unsafe.Pointer(&event))
		return ButtonPress{
			Window: d.titleOf(mouseEvent.windowID),
			Button: uint32(mouseEvent.button),
			X:      int(mouseEvent.x),
			Y:      int(mouseEvent.y),
		}
	case C.SDL_MOUSEBUTTONUP:
		mouseEvent := (*C.SDL_MouseButtonEvent)(unsafe.Pointer(&event))
		return ButtonRelease{
			Window: d.titleOf(mouseEvent.windowID),
			Button: uint32(mouseEvent.button),
			X:      int(mouseEvent.x),
			Y:      int(mouseEvent.y),
		}
	case C.SDL_MOUSEMOTION:
		mouseEvent := (*C.SDL_MouseMotionEvent)(unsafe.Pointer(&event))
		return MotionNotify{Window: d.titleOf(mouseEvent.windowID), X: int(mouseEvent.x), Y: int(mouseEvent.y)}
	case C.SDL_MOUSEWHEEL:
		wheelEvent := (*C.SDL_MouseWheelEvent)(unsafe.Pointer(&event))
		dx, dy := float64(wheelEvent.x), float64(wheelEvent.y)
		if wheelEvent.direction == C.SDL_MOUSEWHEEL_FLIPPED {
			dx, dy = -dx, -dy
		}
		return MouseWheel{Window: d.titleOf(wheelEvent.windowID), DeltaX: dx, DeltaY: dy}
	case C.SDL_WINDOWEVENT:
		windowEvent := (*C.SDL_WindowEvent)(unsafe.Pointer(&event))
		title := d.titleOf(windowEvent.windowID)
		switch windowEvent.event {
		case C.SDL_WINDOWEVENT_SIZE_CHANGED:
			return Resize{Window: title, Width: int(windowEvent.data1), Height: int(windowEvent.data2)}
		case C.SDL_WINDOWEVENT_FOCUS_GAINED:
			return FocusChange{Window: title, Focused: true}
		case C.SDL_WINDOWEVENT_FOCUS_LOST:
			return FocusChange{Window: title, Focused: false}
		case C.SDL_WINDOWEVENT_CLOSE:
			return CloseRequest{Window: title}
		}
	}
	return UnexpectedEvent{}
}

type sdlWindow struct {
	driver    *sdlDriver
	window    *C.SDL_Window
	glContext C.SDL_GLContext
	title     string
}

func (w *sdlWindow) Title() string { return w.title }

func (w *sdlWindow) SetTitle(caption string) error {
	if w.window == nil {
		return ErrWindowDestroyed
	}
	cCaption := C.CString(caption)
	defer C.free(unsafe.Pointer(cCaption))
	C.SDL_SetWindowTitle(w.window, cCaption)
	return nil
}

func (w *sdlWindow) MakeCurrent() error {
	if w.window == nil {
		return ErrWindowDestroyed
	}
	if C.SDL_GL_MakeCurrent(w.window, w.glContext) != 0 {
		return sdlError("SDL_GL_MakeCurrent")
	}
	return nil
}

func (w *sdlWindow) Swap() error {
	if w.window == nil {
		return ErrWindowDestroyed
	}
	if C.SDL_GL_GetCurrentContext() != w.glContext {
		return ErrNoCurrentContext
	}
	C.SDL_GL_SwapWindow(w.window)
	return nil
}

func (w *sdlWindow) FramebufferSize() (int, int) {
	if w.window == nil {
		return 0, 0
	}
	var width, height C.int
	C.SDL_GL_GetDrawableSize(w.window, &width, &height)
	return int(width), int(height)
}

// Destroy deletes the GL context and then the window, in the order SDL
// expects.
func (w *sdlWindow) Destroy() error {
	if w.window == nil {
		return ErrWindowDestroyed
	}
	var err error
	if C.SDL_GL_GetCurrentContext() == w.glContext {
		if C.my_SDL_GL_ReleaseCurrent() != 0 {
			err = sdlError("SDL_GL_MakeCurrent")
		}
	}
	C.SDL_GL_DeleteContext(w.glContext)
	w.driver.mu.Lock()
	delete(w.driver.titles, C.SDL_GetWindowID(w.window))
	w.driver.mu.Unlock()
	C.SDL_DestroyWindow(w.window)
	w.window = nil
	w.glContext = nil
	return err
}
