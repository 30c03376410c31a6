package engine

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/social"
	"github.com/talgya/etherpets/internal/world"
)

// constRand always draws the same value. 0.1 makes a fresh pet stand still
// because every redirect loses the hold roll.
type constRand float64

func (r constRand) Float64() float64 { return float64(r) }

// echoContent reacts with each speaker's own disposition.
type echoContent struct {
	mu    sync.Mutex
	reqs  []ConversationRequest
	ready []emote.Reaction
}

func (c *echoContent) Submit(req ConversationRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	c.ready = append(c.ready,
		emote.Reaction{TargetID: req.A.ID, Kind: req.A.Disposition},
		emote.Reaction{TargetID: req.B.ID, Kind: req.B.Disposition},
	)
}

func (c *echoContent) Drain() []emote.Reaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.ready
	c.ready = nil
	return out
}

func testOptions() Options {
	return Options{
		Roam:   agents.RoamParams{TileSize: 16, HoldChance: 0.3},
		Social: social.DefaultConfig(),
		Emote:  emote.DefaultConfig(10),
	}
}

func newFarm(t *testing.T, rng agents.Rand, positions ...world.Vec3) *Simulation {
	t.Helper()
	roster := agents.DefaultRoster()
	require.LessOrEqual(t, len(positions), len(roster))

	pets := agents.NewSpawner(agents.DefaultSpawnConfig()).Spawn(roster[:len(positions)], positions)
	return NewSimulation(world.NewMap(24, 24, 16), pets, rng, testOptions())
}

func TestConversationLifecycle(t *testing.T) {
	sim := newFarm(t, constRand(0.1), world.V(0, 0), world.V(8, 9))
	content := &echoContent{}
	sim.Content = content

	sim.Step(1)

	require.Equal(t, 1, sim.Ledger.Len())
	chester, _ := sim.Pets.Get("1")
	jakobo, _ := sim.Pets.Get("2")
	assert.True(t, chester.Timers.Active)
	assert.True(t, jakobo.Timers.Active)
	require.Len(t, content.reqs, 1)
	assert.Equal(t, "Chester", content.reqs[0].A.Name)
	assert.Len(t, sim.Emotes.Markers(), 1)
	assert.True(t, sim.Ledger.Pairs()[0].ContentRequested)
	assert.Equal(t, 1, sim.CurrentStats().ConversationsBegun)

	for i := 2; i <= 9; i++ {
		sim.Step(1)
		require.Equal(t, 1, sim.Ledger.Len(), "tick %d", i)
	}
	assert.Equal(t, 2, sim.Reactions.Len())

	sim.Step(1)

	assert.Zero(t, sim.Ledger.Len())
	assert.Equal(t, "cooldown", chester.Timers.Phase())
	assert.Equal(t, "cooldown", jakobo.Timers.Phase())
	assert.Zero(t, sim.Reactions.Len())

	recs := sim.Emotes.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, agents.Happiness, recs[0].Kind)
	assert.Equal(t, agents.Hate, recs[1].Kind)
	assert.Equal(t, agents.RoamEmoting, chester.HoldRequest)

	sim.Step(1)
	assert.Equal(t, agents.RoamEmoting, chester.Roaming.Mode)
	assert.Equal(t, agents.RoamWalking, chester.HoldRequest)
	for i := 0; i < 3; i++ {
		sim.Step(1)
	}
	assert.Len(t, sim.Emotes.Records(), 2)
	sim.Step(1)
	assert.Empty(t, sim.Emotes.Records())

	cats := map[string]int{}
	for _, e := range sim.RecentEvents(0) {
		cats[e.Category]++
	}
	assert.Equal(t, map[string]int{"conversation": 1, "reaction": 2, "finished": 1}, cats)

	stats := sim.CurrentStats()
	assert.Equal(t, 1, stats.ConversationsEnded)
	assert.Equal(t, 2, stats.ReactionsShown)
}

func TestCooldownReopensPairing(t *testing.T) {
	sim := newFarm(t, constRand(0.1), world.V(0, 0), world.V(12, 0))

	sim.Step(10)
	require.Zero(t, sim.Ledger.Len(), "one long tick runs the whole conversation")

	a, _ := sim.Pets.Get("1")
	assert.Equal(t, "cooldown", a.Timers.Phase())

	sim.Step(14)
	assert.Zero(t, sim.Ledger.Len())
	sim.Step(1)
	assert.Equal(t, "ready", a.Timers.Phase())
	sim.Step(1)
	assert.Equal(t, 1, sim.Ledger.Len())
}

func TestObstructedPairDissolves(t *testing.T) {
	sim := newFarm(t, constRand(0.1), world.V(0, 0), world.V(6, -9))
	sim.Obstacles = blockLeft{}

	sim.Step(0.1)

	assert.Zero(t, sim.Ledger.Len())
	assert.Equal(t, 1, sim.CurrentStats().PairsDissolved)
	events := sim.RecentEvents(1)
	require.Len(t, events, 1)
	assert.Equal(t, "dissolved", events[0].Category)
}

type blockLeft struct{}

func (blockLeft) IsBlocked(p world.Vec3) bool { return p.X < -4 }

// Pets bunched up in a line on an open field, roaming with a real random
// source: exclusivity has to hold after every tick.
func TestExclusivityOverManyTicks(t *testing.T) {
	var positions []world.Vec3
	for i := 0; i < 7; i++ {
		positions = append(positions, world.V(-36+float64(i)*12, 0))
	}
	sim := newFarm(t, rand.New(rand.NewSource(7)), positions...)
	sim.Content = &echoContent{}

	for tick := 0; tick < 3000; tick++ {
		sim.Step(1.0 / 60)
		snap := sim.Snapshot()

		inPairs := map[string]int{}
		for _, p := range snap.Pairs {
			inPairs[p.AnchorID]++
			inPairs[p.ResponderID]++
		}
		for _, pv := range snap.Pets {
			require.LessOrEqual(t, inPairs[pv.ID], 1, "tick %d pet %s", tick, pv.ID)
			require.Equal(t, inPairs[pv.ID] == 1, pv.Social == "conversing", "tick %d pet %s", tick, pv.ID)
			if pv.Partner != "" {
				require.NotEqual(t, pv.ID, pv.Partner)
			}
		}
	}

	stats := sim.CurrentStats()
	assert.Positive(t, stats.ConversationsBegun)
	assert.Positive(t, stats.ReactionsShown)
}

func TestBumpsSetCollided(t *testing.T) {
	sim := newFarm(t, constRand(0.1), world.V(0, 0), world.V(3, 0), world.V(100, 100))
	sim.opts.BumpDistance = 8

	sim.detectBumps()

	a, _ := sim.Pets.Get("1")
	b, _ := sim.Pets.Get("2")
	c, _ := sim.Pets.Get("3")
	assert.True(t, a.Collided)
	assert.True(t, b.Collided)
	assert.False(t, c.Collided)
}

func TestInterventions(t *testing.T) {
	sim := newFarm(t, constRand(0.1), world.V(0, 0))

	_, err := sim.QueueReaction("1", agents.Fear)
	require.NoError(t, err)
	_, pending := sim.ReactionState()
	assert.Equal(t, []emote.Reaction{{TargetID: "1", Kind: agents.Fear}}, pending)

	_, err = sim.QueueReaction("nobody", agents.Fear)
	assert.ErrorIs(t, err, ErrUnknownPet)

	_, err = sim.MovePet("1", world.V(32, 32))
	require.NoError(t, err)
	pv, ok := sim.Pet("1")
	require.True(t, ok)
	assert.Equal(t, world.V(32, 32), pv.Position)
	assert.Equal(t, agents.RoamIdle, pv.HoldRequest)

	_, err = sim.MovePet("1", world.V(5000, 0))
	assert.Error(t, err)

	assert.Len(t, sim.TakeUnsavedEvents(), 2)
	assert.Empty(t, sim.TakeUnsavedEvents())
}

func TestRestore(t *testing.T) {
	sim := newFarm(t, constRand(0.1), world.V(0, 0), world.V(40, 0))

	saved := []agents.Agent{
		{ID: "2", Position: world.V(-20, 16), Facing: agents.FacingLeft, Timers: agents.NewInteractionTimers(10, 15)},
		{ID: "ghost", Position: world.V(1, 1)},
	}
	n := sim.Restore(saved, 500, 8.3)

	assert.Equal(t, 1, n)
	assert.Equal(t, uint64(500), sim.CurrentTick())
	pv, _ := sim.Pet("2")
	assert.Equal(t, world.V(-20, 16), pv.Position)
	assert.Equal(t, agents.FacingLeft, pv.Facing)
}
