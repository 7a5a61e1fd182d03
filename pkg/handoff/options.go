package handoff

import (
	"fmt"

	"github.com/kjkrol/gohandoff/internal/platform"
)

type Profile = platform.Profile

const (
	ProfileAny    = platform.ProfileAny
	ProfileCore   = platform.ProfileCore
	ProfileCompat = platform.ProfileCompat
	ProfileES     = platform.ProfileES
)

// Option configures the window built by Build.
type Option func(*platform.WindowConfig)

// Centered places the window in the middle of the primary display.
func Centered() Option {
	return func(c *platform.WindowConfig) {
		c.Centered = true
	}
}

// At places the window at explicit screen coordinates.
func At(x, y int) Option {
	return func(c *platform.WindowConfig) {
		c.Centered = false
		c.PositionX, c.PositionY = x, y
	}
}

// GLVersion requests a context version; 0.0 lets the driver choose.
func GLVersion(major, minor int) Option {
	return func(c *platform.WindowConfig) {
		c.GL.Major, c.GL.Minor = major, minor
	}
}

func GLProfile(p Profile) Option {
	return func(c *platform.WindowConfig) {
		c.GL.Profile = p
	}
}

func DoubleBuffer(on bool) Option {
	return func(c *platform.WindowConfig) {
		c.GL.DoubleBuffer = on
	}
}

func VSync(on bool) Option {
	return func(c *platform.WindowConfig) {
		c.GL.VSync = on
	}
}

func Resizable() Option  { return withFlag(platform.FlagResizable) }
func Fullscreen() Option { return withFlag(platform.FlagFullscreen) }
func Borderless() Option { return withFlag(platform.FlagBorderless) }
func Hidden() Option     { return withFlag(platform.FlagHidden) }

func withFlag(flag platform.WindowFlags) Option {
	return func(c *platform.WindowConfig) {
		c.Flags |= flag
	}
}

const maxWindowSide = 16384

func windowConfig(title string, width, height int, opts []Option) platform.WindowConfig {
	conf := platform.WindowConfig{
		Title:    title,
		Width:    width,
		Height:   height,
		Centered: true,
		GL: platform.GLAttributes{
			Major:        3,
			Minor:        3,
			Profile:      platform.ProfileCore,
			DoubleBuffer: true,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&conf)
		}
	}
	return conf
}

func validateConfig(conf platform.WindowConfig) error {
	if conf.Width <= 0 || conf.Height <= 0 || conf.Width > maxWindowSide || conf.Height > maxWindowSide {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidAttribute, conf.Width, conf.Height)
	}
	if conf.GL.Profile < platform.ProfileAny || conf.GL.Profile > platform.ProfileES {
		return fmt.Errorf("%w: profile %s", ErrInvalidAttribute, conf.GL.Profile)
	}
	if !platform.SupportedVersion(conf.GL) {
		return fmt.Errorf("%w: GL version %d.%d (%s)", ErrInvalidAttribute, conf.GL.Major, conf.GL.Minor, conf.GL.Profile)
	}
	return nil
}
