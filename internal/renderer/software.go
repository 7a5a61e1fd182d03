package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gg"

	"github.com/kjkrol/gohandoff/internal/platform"
	"github.com/kjkrol/gohandoff/pkg/handoff"
)

func init() {
	Register(NameSoftware, func(conf Config) (handoff.Renderer, error) {
		return NewSoftware(conf), nil
	})
}

// ErrNoSurface is returned by the software renderer for windows that do not
// expose a CPU back buffer.
var ErrNoSurface = errors.New("renderer: window has no CPU back buffer")

type backBuffered interface {
	BackBuffer() platform.Surface
}

const progressBarHeight = 4

// Software draws frames with gg into the back buffer of a headless window.
type Software struct {
	conf Config
	dc   *gg.Context
	back platform.Surface
}

func NewSoftware(conf Config) *Software {
	return &Software{conf: conf.withDefaults()}
}

func (s *Software) Init(rc *handoff.RenderContext) error {
	bb, ok := rc.Native().(backBuffered)
	if !ok {
		return fmt.Errorf("%w (%T)", ErrNoSurface, rc.Native())
	}
	s.back = bb.BackBuffer()
	if s.back == nil {
		return ErrNoSurface
	}
	w, h := rc.FramebufferSize()
	s.dc = gg.NewContext(w, h)
	return nil
}

func (s *Software) Render(rc *handoff.RenderContext, frame int) error {
	if s.dc == nil {
		return errors.New("renderer: software renderer not initialized")
	}
	logFrame(s.conf, rc, frame)

	c := colorToFloat(FrameColor(frame, s.conf.Period))
	s.dc.ClearWithColor(gg.RGBA2(float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])))

	w, h := float64(s.dc.Width()), float64(s.dc.Height())
	s.dc.SetRGB(1, 1, 1)
	s.dc.DrawRectangle(0, h-progressBarHeight, w*Progress(frame, s.conf.Period), progressBarHeight)
	if err := s.dc.Fill(); err != nil {
		return fmt.Errorf("renderer: fill progress bar: %w", err)
	}

	dst := s.back.RGBA()
	draw.Draw(dst, dst.Bounds(), s.dc.Image(), image.Point{}, draw.Src)
	return nil
}

func (s *Software) Close() error {
	if s.dc == nil {
		return nil
	}
	err := s.dc.Close()
	s.dc = nil
	s.back = nil
	return err
}
