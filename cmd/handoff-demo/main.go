// Command handoff-demo opens a window that cycles between green and red every
// 50 frames. The window is built on the main thread and rendered on its own
// thread; the main thread keeps pumping input. Q or Escape quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kjkrol/gohandoff/internal/config"
	"github.com/kjkrol/gohandoff/internal/platform"
	"github.com/kjkrol/gohandoff/internal/renderer"
	"github.com/kjkrol/gohandoff/pkg/handoff"
	"github.com/kjkrol/gohandoff/pkg/input"
)

const configEnv = "GOHANDOFF_CONFIG"

// windowing systems want their calls on the main thread
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv(configEnv), "TOML or YAML config file (env "+configEnv+")")
	driver := flag.String("driver", "", "platform driver: "+fmt.Sprint(platform.Available())+" (default: best available)")
	headless := flag.Bool("headless", false, "use the headless driver and software renderer")
	sessions := flag.Int("sessions", 0, "number of sequential windows")
	frames := flag.Int("frames", 0, "stop each window after this many frames")
	duration := flag.Duration("duration", 0, "stop after this long (headless default 2s)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *headless {
		cfg.Driver = platform.DriverHeadless
	}
	if *sessions > 0 {
		cfg.Sessions = *sessions
	}
	if *frames > 0 {
		cfg.Session.MaxFrames = *frames
	}
	if cfg.Driver == platform.DriverHeadless && *duration == 0 && cfg.Session.MaxFrames == 0 {
		*duration = 2 * time.Second
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	handoff.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	sub, err := handoff.OpenSubsystem(cfg.Driver)
	if err != nil {
		return fmt.Errorf("open subsystem: %w", err)
	}
	logger.Info("subsystem ready", zap.String("driver", sub.Driver().Name()))

	for n := 1; n <= cfg.Sessions && ctx.Err() == nil; n++ {
		if err = runSession(ctx, logger, sub, cfg, n); err != nil {
			break
		}
	}
	return multierr.Append(err, sub.Close())
}

func runSession(ctx context.Context, logger *zap.Logger, sub *handoff.Subsystem, cfg *config.Config, n int) error {
	name := cfg.Render.Renderer
	if name == "" {
		name = renderer.ForDriver(sub.Driver().Name())
	}
	r, err := renderer.New(renderer.Config{Name: name, Period: cfg.Render.Period, LogEvery: cfg.Render.LogEvery})
	if err != nil {
		return err
	}

	s, err := handoff.Start(sub, cfg.SessionConfig(n), r)
	if err != nil {
		return err
	}
	log := logger.With(zap.String("window", s.Title()), zap.String("renderer", name))
	log.Info("rendering, press Q or Escape to quit")

	pump := input.NewPump(sub.Driver(),
		input.WithStrategy(input.DrainMax(64)),
		input.WithLogger(logger.Named("input")))
	go func() {
		<-s.Done()
		_, err := s.Wait()
		pump.Emit(input.SessionEnded{Window: s.Title(), Err: err})
	}()

	_, pumpErr := pump.Run(ctx, func(e input.Event) bool {
		if ended, ok := e.(input.SessionEnded); ok && ended.Err != nil {
			log.Warn("render worker ended on its own", zap.Error(ended.Err))
		}
		return !input.IsQuit(e)
	})
	if pumpErr != nil && !errors.Is(pumpErr, context.Canceled) && !errors.Is(pumpErr, context.DeadlineExceeded) {
		log.Warn("input pump stopped", zap.Error(pumpErr))
	}

	res, err := s.Stop()
	log.Info("session finished",
		zap.Uint64("frames", res.Frames),
		zap.Int("present_failures", res.PresentFailures),
		zap.Bool("stopped", res.Stopped),
		zap.Stringer("state", s.State()))
	return err
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
