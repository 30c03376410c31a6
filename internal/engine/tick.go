// Package engine provides the tick-based simulation loop and the Simulation
// that runs every pet system in order each tick.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// TickSchedule defines when each periodic layer runs relative to the tick
// counter.
const (
	TicksPerSecond = 60                  // Fixed step: one tick is 1/60 of a sim-second
	TicksPerMinute = TicksPerSecond * 60 // 3600
)

// Engine drives the simulation forward with a fixed time step.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Wall-clock time per tick at speed 1

	// Callbacks for each tick layer, populated during setup.
	OnTick   func(tick uint64, dt float64) // Every tick
	OnSecond func(tick uint64)             // Every 60 ticks
	OnMinute func(tick uint64)             // Every 3600 ticks

	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{
		Interval: time.Second / TicksPerSecond,
	}
	e.SetSpeed(1)
	return e
}

// DT is the simulated seconds covered by one tick.
func (e *Engine) DT() float64 {
	return e.Interval.Seconds()
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the speed multiplier. Zero pauses the loop.
func (e *Engine) SetSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	e.speed.Store(math.Float64bits(v))
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. It blocks until Stop is called or ctx is
// done.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.running.Load() && ctx.Err() == nil {
		speed := e.Speed()
		if speed <= 0 {
			// Paused, sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	e.running.Store(false)
	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick, e.DT())
	}

	// Every sim-second: stats and observer broadcast.
	if e.Tick%TicksPerSecond == 0 && e.OnSecond != nil {
		e.OnSecond(e.Tick)
	}

	// Every sim-minute: autosave and summary.
	if e.Tick%TicksPerMinute == 0 && e.OnMinute != nil {
		e.OnMinute(e.Tick)
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	total := tick / TicksPerSecond
	seconds := total % 60
	minutes := (total / 60) % 60
	hours := total / 3600
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}
