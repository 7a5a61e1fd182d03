package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kjkrol/gohandoff/pkg/handoff"
)

type Config struct {
	Driver   string        `toml:"driver" yaml:"driver"` // "" picks the best available
	Sessions int           `toml:"sessions" yaml:"sessions"`
	Window   WindowConfig  `toml:"window" yaml:"window"`
	Session  SessionConfig `toml:"session" yaml:"session"`
	Render   RenderConfig  `toml:"render" yaml:"render"`
	Logging  LoggingConfig `toml:"logging" yaml:"logging"`
}

type WindowConfig struct {
	Title        string `toml:"title" yaml:"title"`
	Caption      string `toml:"caption" yaml:"caption"` // set by the render thread once bound
	Width        int    `toml:"width" yaml:"width"`
	Height       int    `toml:"height" yaml:"height"`
	Centered     bool   `toml:"centered" yaml:"centered"`
	X            int    `toml:"x" yaml:"x"`
	Y            int    `toml:"y" yaml:"y"`
	GLMajor      int    `toml:"gl_major" yaml:"gl_major"`
	GLMinor      int    `toml:"gl_minor" yaml:"gl_minor"`
	GLProfile    string `toml:"gl_profile" yaml:"gl_profile"` // any, core, compat, es
	DoubleBuffer bool   `toml:"double_buffer" yaml:"double_buffer"`
	VSync        bool   `toml:"vsync" yaml:"vsync"`
	Resizable    bool   `toml:"resizable" yaml:"resizable"`
	Fullscreen   bool   `toml:"fullscreen" yaml:"fullscreen"`
	Borderless   bool   `toml:"borderless" yaml:"borderless"`
	Hidden       bool   `toml:"hidden" yaml:"hidden"`
}

// SessionConfig bounds the handoff waits and the render loop. BudgetFailures
// present failures are tolerated per BudgetWindow; 0 makes the first one
// fatal.
type SessionConfig struct {
	ReadyTimeout   time.Duration `toml:"ready_timeout" yaml:"ready_timeout"`
	JoinTimeout    time.Duration `toml:"join_timeout" yaml:"join_timeout"`
	MaxFrames      int           `toml:"max_frames" yaml:"max_frames"`
	CheckEvery     int           `toml:"check_every" yaml:"check_every"`
	FrameInterval  time.Duration `toml:"frame_interval" yaml:"frame_interval"`
	BudgetFailures int           `toml:"budget_failures" yaml:"budget_failures"`
	BudgetWindow   time.Duration `toml:"budget_window" yaml:"budget_window"`
}

type RenderConfig struct {
	Renderer string `toml:"renderer" yaml:"renderer"` // "" matches the driver
	Period   int    `toml:"period" yaml:"period"`
	LogEvery int    `toml:"log_every" yaml:"log_every"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // json or console
}

// Load reads a TOML or YAML file over the defaults; the extension picks the
// format (.yaml/.yml, anything else is TOML).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Sessions: 1,
		Window: WindowConfig{
			Title:        "gohandoff",
			Width:        320,
			Height:       240,
			Centered:     true,
			GLMajor:      3,
			GLMinor:      3,
			GLProfile:    "core",
			DoubleBuffer: true,
		},
		Session: SessionConfig{
			ReadyTimeout:   handoff.DefaultReadyTimeout,
			JoinTimeout:    handoff.DefaultJoinTimeout,
			CheckEvery:     1,
			BudgetFailures: 3,
			BudgetWindow:   time.Second,
		},
		Render: RenderConfig{
			Period:   100,
			LogEvery: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects values no session could start with. Window attributes
// the driver might refuse are left to handoff.Build.
func (c *Config) Validate() error {
	if c.Sessions < 1 {
		return fmt.Errorf("sessions must be at least 1, got %d", c.Sessions)
	}
	if _, err := parseProfile(c.Window.GLProfile); err != nil {
		return err
	}
	if c.Session.BudgetFailures > 0 && c.Session.BudgetWindow <= 0 {
		return fmt.Errorf("budget_window must be positive when budget_failures is set")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

func parseProfile(s string) (handoff.Profile, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return handoff.ProfileAny, nil
	case "core":
		return handoff.ProfileCore, nil
	case "compat", "compatibility":
		return handoff.ProfileCompat, nil
	case "es", "gles":
		return handoff.ProfileES, nil
	}
	return handoff.ProfileAny, fmt.Errorf("unknown gl_profile %q", s)
}

// Options maps the window section to handoff build options.
func (w WindowConfig) Options() []handoff.Option {
	profile, _ := parseProfile(w.GLProfile)
	opts := []handoff.Option{
		handoff.GLVersion(w.GLMajor, w.GLMinor),
		handoff.GLProfile(profile),
		handoff.DoubleBuffer(w.DoubleBuffer),
		handoff.VSync(w.VSync),
	}
	if w.Centered {
		opts = append(opts, handoff.Centered())
	} else {
		opts = append(opts, handoff.At(w.X, w.Y))
	}
	if w.Resizable {
		opts = append(opts, handoff.Resizable())
	}
	if w.Fullscreen {
		opts = append(opts, handoff.Fullscreen())
	}
	if w.Borderless {
		opts = append(opts, handoff.Borderless())
	}
	if w.Hidden {
		opts = append(opts, handoff.Hidden())
	}
	return opts
}

// SessionConfig assembles the handoff session for the n-th window (from 1).
func (c *Config) SessionConfig(n int) handoff.SessionConfig {
	title, caption := c.Window.Title, c.Window.Caption
	if c.Sessions > 1 {
		title = fmt.Sprintf("%s #%d", title, n)
		if caption != "" {
			caption = fmt.Sprintf("%s #%d", caption, n)
		}
	}
	return handoff.SessionConfig{
		Title:        title,
		Width:        c.Window.Width,
		Height:       c.Window.Height,
		Options:      c.Window.Options(),
		Caption:      caption,
		ReadyTimeout: c.Session.ReadyTimeout,
		JoinTimeout:  c.Session.JoinTimeout,
		Loop: handoff.LoopConfig{
			MaxFrames:     c.Session.MaxFrames,
			CheckEvery:    c.Session.CheckEvery,
			FrameInterval: c.Session.FrameInterval,
			Budget:        handoff.NewPresentBudget(c.Session.BudgetFailures, c.Session.BudgetWindow),
		},
	}
}
