package emote

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/social"
	"github.com/talgya/etherpets/internal/world"
)

func farm(ids ...string) *agents.Store {
	s := agents.NewSpawner(agents.DefaultSpawnConfig())
	var pets []*agents.Agent
	for i, id := range ids {
		pets = append(pets, s.NewAgent(agents.Seed{ID: id, Name: id, BaseSpeed: 1}, world.V(float64(i)*20, 0)))
	}
	return agents.NewStore(pets)
}

func TestQueueIsFIFO(t *testing.T) {
	var q Queue
	q.Push(Reaction{TargetID: "a", Kind: agents.Fear}, Reaction{TargetID: "b", Kind: agents.Hate})
	q.Push(Reaction{TargetID: "c"})
	require.Equal(t, 3, q.Len())

	got := q.Drain()
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].TargetID, got[1].TargetID, got[2].TargetID})
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Drain())
}

func TestDispatchCreatesOneRecordPerMatch(t *testing.T) {
	store := farm("a", "b")
	p := NewPipeline(DefaultConfig(10))

	recs := p.Dispatch(Reaction{TargetID: "b", Kind: agents.Sadness}, store)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "b", r.TargetID)
	assert.Equal(t, 2, r.Index)
	assert.Equal(t, world.V(20, 17.5), r.Position)
	assert.Equal(t, 5.0, r.Lifetime)
	assert.NotEqual(t, uuid.Nil, r.ID)

	b, _ := store.Get("b")
	assert.Equal(t, agents.RoamEmoting, b.HoldRequest)
	assert.Equal(t, agents.RoamWalking, b.Roaming.Mode, "roaming state is left to the roaming step")
	assert.Equal(t, agents.ActionEmote, b.Action)

	assert.Empty(t, p.Dispatch(Reaction{TargetID: "nobody"}, store))
	assert.Len(t, p.Records(), 1)
}

func TestRecordLivesExactlyItsLifetime(t *testing.T) {
	store := farm("a")
	p := NewPipeline(DefaultConfig(10))
	p.Dispatch(Reaction{TargetID: "a", Kind: agents.Happiness}, store)

	removed, _ := p.Step(1, store)
	require.Zero(t, removed, "fresh records are not aged on their first step")
	require.Zero(t, p.Records()[0].Elapsed)

	for i := 0; i < 4; i++ {
		removed, _ = p.Step(1, store)
		require.Zero(t, removed, "step %d", i)
		require.Len(t, p.Records(), 1)
	}

	removed, _ = p.Step(1, store)
	assert.Equal(t, 1, removed)
	assert.Empty(t, p.Records())
}

func TestRecordTracksPet(t *testing.T) {
	store := farm("a")
	p := NewPipeline(DefaultConfig(10))
	p.Dispatch(Reaction{TargetID: "a"}, store)

	a, _ := store.Get("a")
	a.Position = world.V(5, 5)
	p.Step(0.1, store)

	assert.Equal(t, world.V(5, 22.5), p.Records()[0].Position)
}

func TestRecordDroppedWhenPetGone(t *testing.T) {
	store := farm("a")
	p := NewPipeline(DefaultConfig(10))
	p.Dispatch(Reaction{TargetID: "a"}, store)

	store.Remove("a")
	removed, _ := p.Step(0.1, store)
	assert.Equal(t, 1, removed)
	assert.Empty(t, p.Records())
}

func TestSpawnMarkerPlacement(t *testing.T) {
	tests := []struct {
		q    social.Quadrant
		want world.Vec3
	}{
		{social.TopLeft, world.V(10, 30)},
		{social.TopRight, world.V(17.5, 25)},
		{social.BottomLeft, world.V(10, 25)},
		{social.BottomRight, world.V(2.5, 25)},
		{social.QuadrantNone, world.V(10, 10)},
	}
	for _, tc := range tests {
		t.Run(tc.q.String(), func(t *testing.T) {
			p := NewPipeline(DefaultConfig(10))
			pair := &social.Pair{Key: social.KeyOf("a", "b"), AnchorPos: world.V(10, 10), Quadrant: tc.q}

			m := p.SpawnMarker(pair)
			assert.Equal(t, tc.want, m.Position)
			assert.Equal(t, 9.0, m.Lifetime)
			assert.True(t, pair.ChatMarkerSpawned)
		})
	}
}

func TestMarkerExpires(t *testing.T) {
	store := farm()
	p := NewPipeline(DefaultConfig(10))
	p.SpawnMarker(&social.Pair{Key: social.KeyOf("a", "b")})

	_, gone := p.Step(1, store)
	require.Zero(t, gone)
	require.Zero(t, p.Markers()[0].Elapsed, "markers are not aged on their first step")

	for i := 0; i < 8; i++ {
		_, gone = p.Step(1, store)
		require.Zero(t, gone, "step %d", i)
	}
	_, gone = p.Step(1, store)
	assert.Equal(t, 1, gone)
	assert.Empty(t, p.Markers())
}
