package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEngineStepCallbacks(t *testing.T) {
	e := NewEngine()
	var ticks, seconds, minutes int
	var lastDT float64
	e.OnTick = func(_ uint64, dt float64) { ticks++; lastDT = dt }
	e.OnSecond = func(uint64) { seconds++ }
	e.OnMinute = func(uint64) { minutes++ }

	for i := 0; i < TicksPerMinute; i++ {
		e.Step()
	}

	assert.Equal(t, TicksPerMinute, ticks)
	assert.Equal(t, 60, seconds)
	assert.Equal(t, 1, minutes)
	assert.InDelta(t, 1.0/60, lastDT, 1e-6)
}

func TestEngineRunStops(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	e.SetSpeed(10)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	assert.False(t, e.Running())
	assert.Positive(t, e.Tick)
}

func TestEngineSpeed(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, 1.0, e.Speed())
	e.SetSpeed(-3)
	assert.Zero(t, e.Speed())
	e.SetSpeed(4)
	assert.Equal(t, 4.0, e.Speed())
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "0:00:00", SimTime(0))
	assert.Equal(t, "0:01:01", SimTime(61*TicksPerSecond))
	assert.Equal(t, "2:00:05", SimTime(7205*TicksPerSecond))
}
