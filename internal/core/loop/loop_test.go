package loop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voidforge/voidforge/internal/core/observability/log"
)

func TestDefaultTimestep(t *testing.T) {
	l := New(func(float64) error { return nil }, Options{}, log.Nop())
	require.Equal(t, DefaultTimestep, l.Timestep())

	l = New(func(float64) error { return nil }, Options{Timestep: 10 * time.Millisecond}, log.Nop())
	require.Equal(t, 10*time.Millisecond, l.Timestep())
}

func TestAdvanceRunsFixedSteps(t *testing.T) {
	var dts []float64
	l := New(func(dt float64) error {
		dts = append(dts, dt)
		return nil
	}, Options{Timestep: 10 * time.Millisecond}, log.Nop())

	_, carry, err := l.Advance(35*time.Millisecond, 0)
	require.NoError(t, err)
	require.Len(t, dts, 3, "35ms of real time fits three 10ms steps")
	require.Equal(t, 5*time.Millisecond, carry)
	for _, dt := range dts {
		require.InDelta(t, 0.01, dt, 1e-12, "every step sees the same fixed dt")
	}
}

func TestAdvanceCarriesRemainder(t *testing.T) {
	ticks := 0
	l := New(func(float64) error {
		ticks++
		return nil
	}, Options{Timestep: 10 * time.Millisecond}, log.Nop())

	_, carry, err := l.Advance(6*time.Millisecond, 0)
	require.NoError(t, err)
	require.Zero(t, ticks, "not enough time for a full step")

	_, carry, err = l.Advance(6*time.Millisecond, carry)
	require.NoError(t, err)
	require.Equal(t, 1, ticks, "leftover time from the prior frame completes a step")
	require.Equal(t, 2*time.Millisecond, carry)
}

func TestAdvanceClampsLongFrames(t *testing.T) {
	ticks := 0
	l := New(func(float64) error {
		ticks++
		return nil
	}, Options{Timestep: 10 * time.Millisecond}, log.Nop())

	_, _, err := l.Advance(5*time.Second, 0)
	require.NoError(t, err)
	require.Equal(t, 25, ticks, "a stalled frame contributes at most 250ms")
}

func TestAdvanceReportsAlpha(t *testing.T) {
	var alphas []float64
	l := New(func(float64) error { return nil }, Options{
		Timestep: 10 * time.Millisecond,
		Render:   func(a float64) { alphas = append(alphas, a) },
	}, log.Nop())

	_, _, err := l.Advance(15*time.Millisecond, 0)
	require.NoError(t, err)
	require.Len(t, alphas, 1)
	require.InDelta(t, 0.5, alphas[0], 1e-9)
}

func TestAdvancePropagatesTickError(t *testing.T) {
	boom := errors.New("tick failed")
	l := New(func(float64) error { return boom }, Options{Timestep: 10 * time.Millisecond}, log.Nop())

	_, _, err := l.Advance(10*time.Millisecond, 0)
	require.ErrorIs(t, err, boom)
}

func TestStartStop(t *testing.T) {
	ticked := make(chan struct{}, 1)
	l := New(func(float64) error {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return nil
	}, Options{Timestep: time.Millisecond}, log.Nop())

	errc := make(chan error, 1)
	go func() { errc <- l.Start(context.Background()) }()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("loop never ticked")
	}

	require.NoError(t, l.Stop())
	require.ErrorIs(t, <-errc, context.Canceled)
	require.ErrorIs(t, l.Stop(), ErrNotRunning)
	require.Positive(t, l.Ticks())
	require.Positive(t, l.Frames())
}

func TestStartHonorsContext(t *testing.T) {
	l := New(func(float64) error { return nil }, Options{Timestep: time.Millisecond}, log.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Start(ctx) }()
	cancel()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on context cancellation")
	}
}

func TestStartRejectsDoubleStart(t *testing.T) {
	started := make(chan struct{})
	l := New(func(float64) error {
		select {
		case <-started:
		default:
			close(started)
		}
		return nil
	}, Options{Timestep: time.Millisecond}, log.Nop())

	go func() { _ = l.Start(context.Background()) }()
	<-started

	require.ErrorIs(t, l.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, l.Stop())
}

func TestStopConcurrentWithStartup(t *testing.T) {
	// Stop racing Start's setup must either report not-running or stop
	// the loop cleanly; it must never observe half-published state.
	for i := 0; i < 50; i++ {
		l := New(func(float64) error { return nil }, Options{Timestep: time.Millisecond}, log.Nop())

		errc := make(chan error, 1)
		go func() { errc <- l.Start(context.Background()) }()

		for {
			err := l.Stop()
			if err == nil {
				break
			}
			if !errors.Is(err, ErrNotRunning) {
				t.Fatalf("unexpected stop error: %v", err)
			}
		}
		if err := <-errc; !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected start error: %v", err)
		}
	}
}

func TestStartReturnsTickError(t *testing.T) {
	boom := errors.New("simulation wedged")
	l := New(func(float64) error { return boom }, Options{Timestep: time.Millisecond}, log.Nop())

	err := l.Start(context.Background())
	require.ErrorIs(t, err, boom)
}
