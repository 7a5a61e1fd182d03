package renderer

import (
	"image/color"

	"go.uber.org/zap"

	"github.com/kjkrol/gohandoff/pkg/handoff"
)

// Config selects and tunes a renderer.
type Config struct {
	Name string
	// Period is the length in frames of one green/red cycle.
	Period int
	// LogEvery logs the frame number every that many frames; 0 disables it.
	LogEvery int
}

const (
	defaultPeriod   = 100
	defaultLogEvery = 60
)

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = NameSoftware
	}
	if c.Period <= 0 {
		c.Period = defaultPeriod
	}
	if c.LogEvery < 0 {
		c.LogEvery = 0
	}
	return c
}

var (
	Green = color.RGBA{G: 0xff, A: 0xff}
	Red   = color.RGBA{R: 0xff, A: 0xff}
)

// FrameColor is the clear color of a frame: green for the first half of each
// period, red for the second.
func FrameColor(frame, period int) color.RGBA {
	if period <= 0 {
		period = defaultPeriod
	}
	if period/2 < frame%period {
		return Red
	}
	return Green
}

// Progress is the position of frame within its period, in [0, 1).
func Progress(frame, period int) float64 {
	if period <= 0 {
		period = defaultPeriod
	}
	return float64(frame%period) / float64(period)
}

func colorToFloat(c color.Color) [4]float32 {
	if c == nil {
		return [4]float32{}
	}
	r, g, b, a := c.RGBA()
	const inv = 1.0 / 65535.0
	return [4]float32{
		float32(r) * inv,
		float32(g) * inv,
		float32(b) * inv,
		float32(a) * inv,
	}
}

func logFrame(conf Config, rc *handoff.RenderContext, frame int) {
	if conf.LogEvery > 0 && frame%conf.LogEvery == 0 {
		handoff.Logger().Debug("frame", zap.String("window", rc.Title()), zap.Int("frame", frame))
	}
}
