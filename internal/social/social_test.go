package social

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/world"
)

type blockFunc func(world.Vec3) bool

func (f blockFunc) IsBlocked(p world.Vec3) bool { return f(p) }

var openField = blockFunc(func(world.Vec3) bool { return false })

func pet(id string, x, y float64) *agents.Agent {
	s := agents.NewSpawner(agents.DefaultSpawnConfig())
	return s.NewAgent(agents.Seed{ID: id, Name: id, BaseSpeed: 3}, world.V(x, y))
}

func TestKeyOfIsUnordered(t *testing.T) {
	assert.Equal(t, KeyOf("a", "b"), KeyOf("b", "a"))
	k := KeyOf("z", "m")
	assert.Equal(t, "m", k.A)
	assert.Equal(t, "z", k.Other("m"))
	assert.True(t, k.Has("z"))
	assert.False(t, k.Has("q"))
}

func TestFindQuadrant(t *testing.T) {
	a := world.V(0, 0)
	tests := []struct {
		b    world.Vec3
		want Quadrant
	}{
		{world.V(5, -5), BottomRight},
		{world.V(-5, -5), BottomLeft},
		{world.V(5, 5), TopRight},
		{world.V(-5, 5), TopLeft},
		{world.V(0, 5), QuadrantNone},
		{world.V(5, 0), QuadrantNone},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FindQuadrant(a, tc.b), "%s", tc.b)
	}
}

func TestResolveThreshold(t *testing.T) {
	tests := []struct {
		name string
		d    float64
		want bool
	}{
		{"inside band", 12, true},
		{"too close", 9, false},
		{"at min distance", 10, false},
		{"at threshold", 15, false},
		{"far", 40, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger()
			pets := []*agents.Agent{pet("a", 0, 0), pet("b", tc.d, 0)}

			reqs := Resolve(pets, l, DefaultConfig(), 1)

			assert.Equal(t, tc.want, l.Len() == 1)
			assert.Equal(t, tc.want, len(reqs) == 1)
			assert.Equal(t, tc.want, l.InConversation("a"))
			assert.Equal(t, tc.want, l.InConversation("b"))
		})
	}
}

func TestResolveRequiresBothReady(t *testing.T) {
	a, b := pet("a", 0, 0), pet("b", 12, 0)
	b.Timers.CanInteract = false

	l := NewLedger()
	assert.Empty(t, Resolve([]*agents.Agent{a, b}, l, DefaultConfig(), 1))
	assert.Zero(t, l.Len())
}

func TestResolveSkipsActivePets(t *testing.T) {
	a, b := pet("a", 0, 0), pet("b", 12, 0)
	require.True(t, a.Timers.Activate())

	l := NewLedger()
	assert.Empty(t, Resolve([]*agents.Agent{a, b}, l, DefaultConfig(), 1))
}

func TestResolveIsIdempotent(t *testing.T) {
	pets := []*agents.Agent{pet("a", 0, 0), pet("b", 8, 9)}
	l := NewLedger()

	first := Resolve(pets, l, DefaultConfig(), 1)
	second := Resolve(pets, l, DefaultConfig(), 2)

	require.Len(t, first, 1)
	assert.Empty(t, second)
	require.Equal(t, 1, l.Len())

	p := l.Pairs()[0]
	assert.Equal(t, "a", p.AnchorID)
	assert.Equal(t, "b", p.ResponderID)
	assert.Equal(t, TopRight, p.Quadrant)
	assert.Equal(t, uint64(1), p.FormedTick)
}

// Three pets all within range of each other: the first pair in snapshot
// order wins and the third pet stays free.
func TestResolveExclusivity(t *testing.T) {
	pets := []*agents.Agent{pet("a", 0, 0), pet("b", 12, 0), pet("c", 6, 11)}
	l := NewLedger()

	reqs := Resolve(pets, l, DefaultConfig(), 1)

	require.Len(t, reqs, 1)
	assert.Equal(t, KeyOf("a", "b"), reqs[0].Key)
	assert.Equal(t, Free, l.State("c"))
	assertExclusive(t, l)
}

func TestResolveManyPetsStaysExclusive(t *testing.T) {
	var pets []*agents.Agent
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			id := string(rune('a'+i)) + string(rune('a'+j))
			pets = append(pets, pet(id, float64(i)*11, float64(j)*11))
		}
	}
	l := NewLedger()
	Resolve(pets, l, DefaultConfig(), 1)

	assert.NotZero(t, l.Len())
	assertExclusive(t, l)
}

func assertExclusive(t *testing.T, l *Ledger) {
	t.Helper()
	count := map[string]int{}
	for _, p := range l.Pairs() {
		count[p.AnchorID]++
		count[p.ResponderID]++
	}
	for id, n := range count {
		assert.Equal(t, 1, n, "pet %s in %d pairs", id, n)
		assert.True(t, l.InConversation(id), "pet %s paired but not marked", id)
	}
	for id, member := range l.Members() {
		if member {
			assert.Equal(t, 1, count[id], "pet %s marked but not paired", id)
		}
	}
}

func TestLedgerRelease(t *testing.T) {
	l := NewLedger()
	_, ok := l.Form(Pair{AnchorID: "a", ResponderID: "b"})
	require.True(t, ok)
	_, ok = l.Form(Pair{AnchorID: "b", ResponderID: "a"})
	require.False(t, ok, "reversed order is the same pair")

	partner, ok := l.Partner("b")
	require.True(t, ok)
	assert.Equal(t, "a", partner)

	removed := l.Release("b")
	assert.Equal(t, []PairKey{KeyOf("a", "b")}, removed)
	assert.Zero(t, l.Len())
	assert.Equal(t, Free, l.State("a"))
	assert.Equal(t, Free, l.State("b"))
	assert.Empty(t, l.Release("b"))
}

func TestConvergeReachesRendezvous(t *testing.T) {
	tests := []struct {
		name string
		bx   float64
		by   float64
		want world.Vec3
	}{
		{"top left", -8, 9, world.V(0, 15)},
		{"top right", 8, 9, world.V(7.5, 0)},
		{"bottom left", -8, -9, world.V(0, -15)},
		{"bottom right", 6, -9, world.V(-12, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, b := pet("a", 0, 0), pet("b", tc.bx, tc.by)
			store := agents.NewStore([]*agents.Agent{a, b})
			l := NewLedger()
			require.Len(t, Resolve(store.All(), l, DefaultConfig(), 1), 1)

			dist := b.Position.Distance(tc.want)
			limit := int(math.Ceil(dist/b.Speed)) + 1
			for i := 0; i < limit; i++ {
				assert.Empty(t, Converge(l, store, openField, DefaultConfig()))
			}

			assert.Less(t, b.Position.Distance(tc.want), 1.0, "ended at %s", b.Position)
			assert.Equal(t, agents.ActionIdle, b.Action)
			assert.Equal(t, agents.ActionIdle, a.Action)
			assert.Equal(t, world.V(0, 0), a.Position)
			assert.Equal(t, 1, l.Len())
		})
	}
}

func TestConvergeFacing(t *testing.T) {
	a, b := pet("a", 0, 0), pet("b", -8, 9)
	store := agents.NewStore([]*agents.Agent{a, b})
	l := NewLedger()
	Resolve(store.All(), l, DefaultConfig(), 1)

	Converge(l, store, openField, DefaultConfig())
	assert.Equal(t, agents.FacingUp, a.Facing)
	assert.Equal(t, agents.FacingDown, b.Facing)
	assert.Equal(t, agents.ActionWalk, b.Action)
}

func TestConvergeObstructedDissolves(t *testing.T) {
	a, b := pet("a", 0, 0), pet("b", 8, -9)
	store := agents.NewStore([]*agents.Agent{a, b})
	l := NewLedger()
	Resolve(store.All(), l, DefaultConfig(), 1)

	wall := blockFunc(func(p world.Vec3) bool { return p.X < -4 })
	removed := Converge(l, store, wall, DefaultConfig())

	assert.Equal(t, []PairKey{KeyOf("a", "b")}, removed)
	assert.Zero(t, l.Len())
	assert.False(t, l.InConversation("a"))
	assert.False(t, l.InConversation("b"))
	assert.Equal(t, world.V(8, -9), b.Position)
	assert.Equal(t, agents.ActionIdle, b.Action)
}

func TestConvergeAlignedPairDoesNotMove(t *testing.T) {
	l := NewLedger()
	a, b := pet("a", 0, 0), pet("b", 12, 0)
	store := agents.NewStore([]*agents.Agent{a, b})
	Resolve(store.All(), l, DefaultConfig(), 1)
	require.Equal(t, QuadrantNone, l.Pairs()[0].Quadrant)

	Converge(l, store, openField, DefaultConfig())
	assert.Equal(t, world.V(12, 0), b.Position)
	assert.Equal(t, 1, l.Len())
}

func TestConvergeSkipsMissingPets(t *testing.T) {
	l := NewLedger()
	l.Form(Pair{AnchorID: "a", ResponderID: "ghost", Quadrant: TopLeft})
	a := pet("a", 0, 0)
	store := agents.NewStore([]*agents.Agent{a})

	assert.Empty(t, Converge(l, store, openField, DefaultConfig()))
	assert.Equal(t, 1, l.Len())
}
