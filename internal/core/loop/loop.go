// Package loop drives the simulation with a fixed timestep and a
// variable-rate render callback.
package loop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voidforge/voidforge/internal/core/observability/log"
)

var (
	ErrAlreadyRunning = errors.New("loop: already running")
	ErrNotRunning     = errors.New("loop: not running")
)

const (
	// DefaultTimestep is the canonical 60 Hz simulation step.
	DefaultTimestep = time.Second / 60

	// maxFrameTime caps how much real time a single frame may feed the
	// accumulator. Frames longer than this (debugger pauses, suspended
	// tabs) would otherwise trigger a catch-up spiral.
	maxFrameTime = 250 * time.Millisecond
)

// TickFunc advances the simulation by a fixed dt in seconds.
type TickFunc func(dt float64) error

// RenderFunc is called once per frame with the interpolation factor
// alpha in [0,1), the fraction of a step left in the accumulator.
type RenderFunc func(alpha float64)

// Options configures a Loop.
type Options struct {
	// Timestep is the fixed simulation step. Zero means DefaultTimestep.
	Timestep time.Duration

	// Render is invoked once per frame after all pending ticks.
	// Optional; a headless simulation leaves it nil.
	Render RenderFunc
}

// Loop runs TickFunc at a fixed rate regardless of frame rate, carrying
// leftover time in an accumulator across frames.
type Loop struct {
	logger   log.Log
	tick     TickFunc
	render   RenderFunc
	timestep time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	frames uint64
	ticks  uint64
}

// New builds a stopped loop around tick.
func New(tick TickFunc, opts Options, logger log.Log) *Loop {
	step := opts.Timestep
	if step <= 0 {
		step = DefaultTimestep
	}
	return &Loop{
		logger:   logger,
		tick:     tick,
		render:   opts.Render,
		timestep: step,
	}
}

// Timestep reports the fixed step the loop advances by.
func (l *Loop) Timestep() time.Duration { return l.timestep }

// Frames reports how many frames the loop has produced.
func (l *Loop) Frames() uint64 { return l.frames }

// Ticks reports how many fixed steps the loop has executed.
func (l *Loop) Ticks() uint64 { return l.ticks }

// Start runs the loop until ctx is cancelled, Stop is called, or the
// tick callback returns an error. It blocks the calling goroutine.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.running = true
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	defer func() {
		cancel()
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		close(done)
	}()

	l.logger.Info("game loop started",
		log.Duration("timestep", l.timestep))

	ticker := time.NewTicker(l.timestep)
	defer ticker.Stop()

	var accumulator time.Duration
	previous := time.Now()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("game loop stopped",
				log.Uint64("frames", l.frames),
				log.Uint64("ticks", l.ticks))
			return ctx.Err()
		case now := <-ticker.C:
			frame := now.Sub(previous)
			previous = now
			if frame > maxFrameTime {
				l.logger.Warn("frame time clamped",
					log.Duration("frame", frame),
					log.Duration("max", maxFrameTime))
				frame = maxFrameTime
			}
			accumulator += frame

			for accumulator >= l.timestep {
				if err := l.tick(l.timestep.Seconds()); err != nil {
					l.logger.Error("tick failed", log.Error(err))
					return err
				}
				accumulator -= l.timestep
				l.ticks++
			}

			if l.render != nil {
				l.render(float64(accumulator) / float64(l.timestep))
			}
			l.frames++
		}
	}
}

// Stop cancels a running loop and waits for Start to return.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Advance feeds elapsed real time straight into the accumulator logic
// without a ticker, executing as many fixed steps as fit and returning
// the interpolation alpha. It lets callers drive the loop manually,
// e.g. under test or from an external frame source.
func (l *Loop) Advance(elapsed time.Duration, carry time.Duration) (alpha float64, remainder time.Duration, err error) {
	if elapsed > maxFrameTime {
		elapsed = maxFrameTime
	}
	accumulator := carry + elapsed
	for accumulator >= l.timestep {
		if err := l.tick(l.timestep.Seconds()); err != nil {
			return 0, accumulator, err
		}
		accumulator -= l.timestep
		l.ticks++
	}
	if l.render != nil {
		l.render(float64(accumulator) / float64(l.timestep))
	}
	l.frames++
	return float64(accumulator) / float64(l.timestep), accumulator, nil
}
