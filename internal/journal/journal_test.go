package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/etherpets/internal/engine"
)

func TestHookWritesEntries(t *testing.T) {
	j := New(t.TempDir(), "events")
	clock := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }

	hook := j.Hook()
	hook(engine.Event{Tick: 1, Description: "Chester and Jakobo start talking", Category: "conversation"})
	hook(engine.Event{Tick: 601, Description: "Chester shows Happiness", Category: "reaction", Meta: map[string]any{"pet": "1"}})
	require.NoError(t, j.Close())

	entries, err := ReadFile(j.Path("2026-03-01-09"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), entries[0].Tick)
	assert.Equal(t, "reaction", entries[1].Category)
	assert.Equal(t, "1", entries[1].Meta["pet"])
	assert.True(t, entries[0].Time.Equal(clock))
}

func TestLiveFileReadableBeforeClose(t *testing.T) {
	j := New(t.TempDir(), "events")
	clock := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }
	defer j.Close()

	j.Hook()(engine.Event{Tick: 7, Description: "Marcy and Kitty start talking", Category: "conversation"})

	entries, err := ReadFile(j.Path("2026-03-01-09"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(7), entries[0].Tick)

	j.Hook()(engine.Event{Tick: 8, Category: "finished"})
	entries, err = ReadFile(j.Path("2026-03-01-09"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRotatesHourly(t *testing.T) {
	j := New(t.TempDir(), "events")
	clock := time.Date(2026, 3, 1, 9, 59, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }

	require.NoError(t, j.Write(engine.Event{Tick: 1, Category: "conversation"}))
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, j.Write(engine.Event{Tick: 2, Category: "finished"}))
	require.NoError(t, j.Write(engine.Event{Tick: 3, Category: "reaction"}))
	require.NoError(t, j.Close())

	first, err := ReadFile(j.Path("2026-03-01-09"))
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := ReadFile(j.Path("2026-03-01-10"))
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestCloseWithoutWrites(t *testing.T) {
	j := New(t.TempDir(), "events")
	assert.NoError(t, j.Close())
}
