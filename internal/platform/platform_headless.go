package platform

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kjkrol/gohandoff/internal/osthread"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported GL context version")
	ErrContextBusy        = errors.New("context is current on another thread")
	ErrNoCurrentContext   = errors.New("context is not current on the calling thread")
	ErrWindowDestroyed    = errors.New("window destroyed")
	ErrTerminated         = errors.New("driver terminated")
)

func init() {
	Register(DriverHeadless, func() (Driver, error) {
		return NewHeadless(), nil
	})
}

const headlessEventBuffer = 256

// Headless is a driver without a display. It keeps the same rules the native
// GL APIs enforce: a context is current on at most one thread, a thread has at
// most one current context, and swapping needs the context current on the
// calling thread. Frames land in CPU surfaces.
//
// The Fail* hooks inject failures; set them before the driver is shared.
type Headless struct {
	FailCreate      func(conf WindowConfig) error
	FailMakeCurrent func(w *HeadlessWindow) error
	FailSwap        func(w *HeadlessWindow) error
	FailSetTitle    func(w *HeadlessWindow) error

	mu         sync.Mutex
	current    map[uint64]*HeadlessWindow
	live       map[*HeadlessWindow]struct{}
	events     chan Event
	terminated bool
}

func NewHeadless() *Headless {
	return &Headless{
		current: make(map[uint64]*HeadlessWindow),
		live:    make(map[*HeadlessWindow]struct{}),
		events:  make(chan Event, headlessEventBuffer),
	}
}

func (h *Headless) Name() string { return DriverHeadless }

func (h *Headless) CreateWindow(conf WindowConfig) (Window, error) {
	if conf.Width <= 0 || conf.Height <= 0 {
		return nil, fmt.Errorf("headless: invalid size %dx%d", conf.Width, conf.Height)
	}
	if !SupportedVersion(conf.GL) {
		return nil, fmt.Errorf("headless: %w: %d.%d %s", ErrUnsupportedVersion, conf.GL.Major, conf.GL.Minor, conf.GL.Profile)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.terminated {
		return nil, ErrTerminated
	}
	if h.FailCreate != nil {
		if err := h.FailCreate(conf); err != nil {
			return nil, err
		}
	}

	w := &HeadlessWindow{
		driver:  h,
		conf:    conf,
		back:    NewRGBASurface(conf.Width, conf.Height),
		caption: conf.Title,
	}
	if conf.GL.DoubleBuffer {
		w.front = NewRGBASurface(conf.Width, conf.Height)
	} else {
		w.front = w.back
	}
	h.live[w] = struct{}{}
	// context creation leaves the new context current, like SDL_GL_CreateContext
	h.bindLocked(w, threadKey())
	return w, nil
}

func (h *Headless) ReleaseCurrent() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := threadKey()
	if w, ok := h.current[key]; ok {
		w.bound = false
		delete(h.current, key)
	}
	return nil
}

// Current returns the window whose context is current on the calling thread.
func (h *Headless) Current() *HeadlessWindow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current[threadKey()]
}

// Live returns the number of windows not yet destroyed.
func (h *Headless) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// Inject queues an event for NextEventTimeout. It drops the event when the
// queue is full so producers never block.
func (h *Headless) Inject(event Event) {
	if event == nil {
		return
	}
	select {
	case h.events <- event:
	default:
	}
}

func (h *Headless) NextEventTimeout(timeoutMs int) Event {
	if timeoutMs <= 0 {
		select {
		case e := <-h.events:
			return e
		default:
			return TimeoutEvent{}
		}
	}
	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case e := <-h.events:
		return e
	case <-timer.C:
		return TimeoutEvent{}
	}
}

func (h *Headless) Terminate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.live {
		h.destroyLocked(w)
	}
	h.terminated = true
}

func (h *Headless) bindLocked(w *HeadlessWindow, key uint64) {
	if prev, ok := h.current[key]; ok && prev != w {
		prev.bound = false
	}
	h.current[key] = w
	w.bound = true
	w.boundTo = key
}

func (h *Headless) destroyLocked(w *HeadlessWindow) {
	if w.bound {
		if h.current[w.boundTo] == w {
			delete(h.current, w.boundTo)
		}
		w.bound = false
	}
	w.destroyed = true
	delete(h.live, w)
}

// HeadlessWindow is the Window produced by Headless.
type HeadlessWindow struct {
	driver *Headless
	conf   WindowConfig
	back   Surface
	front  Surface

	// guarded by driver.mu
	caption   string
	bound     bool
	boundTo   uint64
	destroyed bool
	swaps     uint64
}

func (w *HeadlessWindow) Title() string        { return w.conf.Title }
func (w *HeadlessWindow) Config() WindowConfig { return w.conf }
func (w *HeadlessWindow) BackBuffer() Surface  { return w.back }
func (w *HeadlessWindow) FrontBuffer() Surface { return w.front }
func (w *HeadlessWindow) FramebufferSize() (int, int) {
	return w.conf.Width, w.conf.Height
}

func (w *HeadlessWindow) MakeCurrent() error {
	h := w.driver
	h.mu.Lock()
	defer h.mu.Unlock()
	if w.destroyed {
		return ErrWindowDestroyed
	}
	if h.FailMakeCurrent != nil {
		if err := h.FailMakeCurrent(w); err != nil {
			return err
		}
	}
	key := threadKey()
	if w.bound && w.boundTo != key {
		return ErrContextBusy
	}
	h.bindLocked(w, key)
	return nil
}

func (w *HeadlessWindow) SetTitle(caption string) error {
	h := w.driver
	h.mu.Lock()
	defer h.mu.Unlock()
	if w.destroyed {
		return ErrWindowDestroyed
	}
	if h.FailSetTitle != nil {
		if err := h.FailSetTitle(w); err != nil {
			return err
		}
	}
	w.caption = caption
	return nil
}

// Caption returns the caption set by SetTitle, or the creation title.
func (w *HeadlessWindow) Caption() string {
	h := w.driver
	h.mu.Lock()
	defer h.mu.Unlock()
	return w.caption
}

// IsCurrent reports whether the context is current on the calling thread.
func (w *HeadlessWindow) IsCurrent() bool {
	h := w.driver
	h.mu.Lock()
	defer h.mu.Unlock()
	return w.bound && w.boundTo == threadKey()
}

func (w *HeadlessWindow) Swap() error {
	h := w.driver
	h.mu.Lock()
	defer h.mu.Unlock()
	if w.destroyed {
		return ErrWindowDestroyed
	}
	if !w.bound || w.boundTo != threadKey() {
		return ErrNoCurrentContext
	}
	if h.FailSwap != nil {
		if err := h.FailSwap(w); err != nil {
			return err
		}
	}
	if w.conf.GL.DoubleBuffer {
		CopySurface(w.front, w.back)
	}
	w.swaps++
	return nil
}

// Swaps returns the number of successful swaps.
func (w *HeadlessWindow) Swaps() uint64 {
	h := w.driver
	h.mu.Lock()
	defer h.mu.Unlock()
	return w.swaps
}

func (w *HeadlessWindow) Destroy() error {
	h := w.driver
	h.mu.Lock()
	defer h.mu.Unlock()
	if w.destroyed {
		return ErrWindowDestroyed
	}
	h.destroyLocked(w)
	return nil
}

// SupportedVersion reports whether attrs name a GL version real drivers hand
// out. A zero major version means "driver default".
func SupportedVersion(attrs GLAttributes) bool {
	if attrs.Major == 0 {
		return attrs.Minor == 0
	}
	if attrs.Profile == ProfileES {
		switch attrs.Major {
		case 2:
			return attrs.Minor == 0
		case 3:
			return attrs.Minor >= 0 && attrs.Minor <= 2
		}
		return false
	}
	maxMinor := map[int]int{1: 5, 2: 1, 3: 3, 4: 6}
	top, ok := maxMinor[attrs.Major]
	return ok && attrs.Minor >= 0 && attrs.Minor <= top
}

func threadKey() uint64 {
	id, ok := osthread.ID()
	if !ok {
		return 0
	}
	return id
}
