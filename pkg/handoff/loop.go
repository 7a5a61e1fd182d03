package handoff

import (
	"errors"
	"fmt"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"go.uber.org/zap"
)

// FrameFunc draws one frame into the bound context. frame counts from 0.
// Returning an error ends the loop.
type FrameFunc func(rc *RenderContext, frame int) error

type LoopConfig struct {
	// MaxFrames ends the loop after that many iterations; 0 runs until the
	// stop flag is set.
	MaxFrames int
	// CheckEvery is the number of iterations between stop flag checks,
	// default 1.
	CheckEvery int
	// FrameInterval paces the loop; 0 renders back to back.
	FrameInterval time.Duration
	// Budget tolerates a bounded rate of present failures. Nil makes every
	// present failure fatal.
	Budget *PresentBudget
}

type LoopResult struct {
	Frames          uint64 // presented frames
	Iterations      int
	PresentFailures int
	Stopped         bool // ended by the stop flag
}

// PresentBudget decides whether a present failure is tolerated: at most limit
// failures within any sliding window.
type PresentBudget struct {
	limiter *catrate.Limiter
	limit   int
	window  time.Duration
}

func NewPresentBudget(limit int, window time.Duration) *PresentBudget {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &PresentBudget{
		limiter: catrate.NewLimiter(map[time.Duration]int{window: limit}),
		limit:   limit,
		window:  window,
	}
}

// Tolerate registers a failure of the named window and reports whether it is
// still within budget. A nil budget tolerates nothing.
func (b *PresentBudget) Tolerate(title string) bool {
	if b == nil {
		return false
	}
	_, ok := b.limiter.Allow(title)
	return ok
}

func (b *PresentBudget) String() string {
	if b == nil {
		return "none"
	}
	return fmt.Sprintf("%d/%s", b.limit, b.window)
}

// RunLoop renders and presents frames on the worker thread until stop is set,
// MaxFrames is reached, or a frame or present fails fatally. At least one
// frame is attempted; the flag is checked after each CheckEvery iterations.
func RunLoop(rc *RenderContext, stop *StopFlag, cfg LoopConfig, frame FrameFunc) (LoopResult, error) {
	rc.assertThread("RunLoop")
	var res LoopResult
	if frame == nil {
		return res, errors.New("handoff: nil frame function")
	}
	if stop == nil {
		stop = NewStopFlag()
	}
	core := rc.core
	if err := core.state.advance(core.title, StateRunning); err != nil {
		return res, err
	}
	defer func() {
		if core.state.load() == StateRunning {
			_ = core.state.advance(core.title, StateStopping)
		}
	}()

	checkEvery := cfg.CheckEvery
	if checkEvery <= 0 {
		checkEvery = 1
	}
	log := Logger().With(zap.String("window", core.title))
	log.Info("render loop started",
		zap.Int("max_frames", cfg.MaxFrames),
		zap.Int("check_every", checkEvery),
		zap.Stringer("budget", cfg.Budget))

	var ticker *time.Ticker
	if cfg.FrameInterval > 0 {
		ticker = time.NewTicker(cfg.FrameInterval)
		defer ticker.Stop()
	}

	for {
		if err := frame(rc, res.Iterations); err != nil {
			res.Frames = rc.frames
			return res, fmt.Errorf("handoff: render frame %d of %q: %w", res.Iterations, core.title, err)
		}
		if err := rc.Present(); err != nil {
			res.PresentFailures++
			if !cfg.Budget.Tolerate(core.title) {
				res.Frames = rc.frames
				log.Error("present failure budget exhausted", zap.Error(err))
				return res, err
			}
			log.Warn("present failed, continuing", zap.Error(err), zap.Int("failures", res.PresentFailures))
		}
		res.Iterations++

		if res.Iterations%checkEvery == 0 && stop.Stopped() {
			res.Stopped = true
			break
		}
		if cfg.MaxFrames > 0 && res.Iterations >= cfg.MaxFrames {
			break
		}
		if ticker != nil {
			// a raised flag cuts the wait short; the next check ends the loop
			select {
			case <-ticker.C:
			case <-stop.Done():
			}
		}
	}

	res.Frames = rc.frames
	log.Info("render loop finished",
		zap.Uint64("frames", res.Frames),
		zap.Int("present_failures", res.PresentFailures),
		zap.Bool("stopped", res.Stopped))
	return res, nil
}
