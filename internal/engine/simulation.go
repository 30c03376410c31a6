// Simulation ties together all pet systems and runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/social"
	"github.com/talgya/etherpets/internal/world"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Options are the tunables the simulation passes to each system.
type Options struct {
	Roam         agents.RoamParams
	Social       social.Config
	Emote        emote.Config
	BumpDistance float64 // Free pets closer than this bump and turn away; 0 disables
}

// Simulation holds the complete farm state and wires systems together.
// Step takes the write lock; the read accessors may be called from other
// goroutines between ticks.
type Simulation struct {
	mu sync.RWMutex

	Map       *world.Map
	Obstacles world.Obstacles
	Pets      *agents.Store
	Ledger    *social.Ledger
	Reactions emote.Queue
	Emotes    *emote.Pipeline
	Content   ContentSource // Optional
	Rand      agents.Rand

	Events   []Event // Recent events, bounded
	LastTick uint64  // Most recent tick processed
	Clock    float64 // Simulated seconds since the farm was created

	// OnEvent hooks are called for every emitted event, under the
	// simulation lock.
	OnEvent []func(Event)

	Stats SimStats

	opts    Options
	unsaved []Event
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Event is a notable occurrence on the farm.
type Event struct {
	Tick        uint64         `json:"tick" db:"tick"`
	Description string         `json:"description" db:"description"`
	Category    string         `json:"category" db:"category"` // "conversation", "dissolved", "finished", "reaction"
	Meta        map[string]any `json:"meta,omitempty" db:"-"`
}

// SimStats tracks aggregate farm statistics.
type SimStats struct {
	Pets               int `json:"pets"`
	Conversing         int `json:"conversing"`
	CoolingDown        int `json:"cooling_down"`
	Pairs              int `json:"pairs"`
	Records            int `json:"records"`
	Markers            int `json:"markers"`
	PendingReactions   int `json:"pending_reactions"`
	ConversationsBegun int `json:"conversations_begun"`
	ConversationsEnded int `json:"conversations_ended"`
	PairsDissolved     int `json:"pairs_dissolved"`
	ReactionsShown     int `json:"reactions_shown"`
}

// NewSimulation creates a Simulation over a map and a set of spawned pets.
func NewSimulation(m *world.Map, pets []*agents.Agent, rng agents.Rand, opts Options) *Simulation {
	sim := &Simulation{
		Map:       m,
		Obstacles: m,
		Pets:      agents.NewStore(pets),
		Ledger:    social.NewLedger(),
		Emotes:    emote.NewPipeline(opts.Emote),
		Rand:      rng,
		opts:      opts,
	}
	sim.updateStats()
	return sim
}

// Step advances every system by dt seconds, in order: content results,
// roaming, pairing, convergence, interaction timers, reaction records.
func (s *Simulation) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick++
	s.Clock += dt
	tick := s.LastTick

	if s.Content != nil {
		s.Reactions.Push(s.Content.Drain()...)
	}

	s.detectBumps()
	for _, a := range s.Pets.All() {
		agents.Roam(a, s.Obstacles, dt, s.Rand, s.opts.Roam)
	}

	for _, req := range social.Resolve(s.Pets.All(), s.Ledger, s.opts.Social, tick) {
		s.beginConversation(req, tick)
	}

	for _, k := range social.Converge(s.Ledger, s.Pets, s.Obstacles, s.opts.Social) {
		s.Stats.PairsDissolved++
		s.emitEvent(Event{
			Tick:        tick,
			Description: fmt.Sprintf("%s and %s cannot reach each other", s.name(k.A), s.name(k.B)),
			Category:    "dissolved",
			Meta:        map[string]any{"a": k.A, "b": k.B},
		})
	}

	for _, a := range s.Pets.All() {
		if a.Timers.Advance(dt) {
			s.endConversation(a, tick)
		}
	}

	s.Emotes.Step(dt, s.Pets)
	s.updateStats()
}

// beginConversation handles one "conversation requested" notification.
func (s *Simulation) beginConversation(req social.Request, tick uint64) {
	a, okA := s.Pets.Get(req.A)
	b, okB := s.Pets.Get(req.B)
	if okA {
		a.Timers.Activate()
	}
	if okB {
		b.Timers.Activate()
	}

	pair, ok := s.Ledger.Get(req.Key)
	if !ok {
		return
	}
	if !pair.ChatMarkerSpawned {
		s.Emotes.SpawnMarker(pair)
	}
	if !pair.ContentRequested && s.Content != nil && okA && okB {
		s.Content.Submit(ConversationRequest{
			Key:  req.Key,
			Tick: tick,
			A:    contentPet(a),
			B:    contentPet(b),
		})
		pair.ContentRequested = true
	}

	s.Stats.ConversationsBegun++
	s.emitEvent(Event{
		Tick:        tick,
		Description: fmt.Sprintf("%s and %s start chatting", s.name(req.A), s.name(req.B)),
		Category:    "conversation",
		Meta: map[string]any{
			"a":        req.A,
			"b":        req.B,
			"quadrant": pair.Quadrant.String(),
		},
	})
	slog.Debug("conversation requested", "a", req.A, "b", req.B, "quadrant", pair.Quadrant)
}

// endConversation runs when a pet's active period completes: queued
// reactions are shown and the pet and its partner leave the ledger.
func (s *Simulation) endConversation(a *agents.Agent, tick uint64) {
	for _, r := range s.Reactions.Drain() {
		n := len(s.Emotes.Dispatch(r, s.Pets))
		if n == 0 {
			continue
		}
		s.Stats.ReactionsShown += n
		s.emitEvent(Event{
			Tick:        tick,
			Description: fmt.Sprintf("%s feels %s", s.name(r.TargetID), r.Kind),
			Category:    "reaction",
			Meta:        map[string]any{"pet": r.TargetID, "emotion": r.Kind.String()},
		})
	}

	if removed := s.Ledger.Release(a.ID); len(removed) > 0 {
		s.Stats.ConversationsEnded += len(removed)
		for _, k := range removed {
			s.emitEvent(Event{
				Tick:        tick,
				Description: fmt.Sprintf("%s and %s finish chatting", s.name(k.A), s.name(k.B)),
				Category:    "finished",
				Meta:        map[string]any{"a": k.A, "b": k.B},
			})
		}
	}
}

// detectBumps flags free pets that have walked into each other.
func (s *Simulation) detectBumps() {
	if s.opts.BumpDistance <= 0 {
		return
	}
	pets := s.Pets.All()
	for i := 0; i < len(pets); i++ {
		a := pets[i]
		if a.Timers.Active || s.Ledger.InConversation(a.ID) {
			continue
		}
		for j := i + 1; j < len(pets); j++ {
			b := pets[j]
			if b.Timers.Active || s.Ledger.InConversation(b.ID) {
				continue
			}
			if a.Position.Distance(b.Position) < s.opts.BumpDistance {
				a.Collided = true
				b.Collided = true
			}
		}
	}
}

func (s *Simulation) name(id string) string {
	if a, ok := s.Pets.Get(id); ok {
		return a.Name
	}
	return id
}

// EmitEvent records an event and runs the event hooks.
func (s *Simulation) EmitEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitEvent(e)
}

func (s *Simulation) emitEvent(e Event) {
	s.Events = append(s.Events, e)
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
	s.unsaved = append(s.unsaved, e)
	for _, hook := range s.OnEvent {
		hook(e)
	}
}

// TakeUnsavedEvents returns the events emitted since the last call.
func (s *Simulation) TakeUnsavedEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.unsaved
	s.unsaved = nil
	return out
}

func (s *Simulation) updateStats() {
	st := &s.Stats
	st.Pets = s.Pets.Len()
	st.Conversing = 0
	st.CoolingDown = 0
	for _, a := range s.Pets.All() {
		switch a.Timers.Phase() {
		case "active":
			st.Conversing++
		case "cooldown":
			st.CoolingDown++
		}
	}
	st.Pairs = s.Ledger.Len()
	st.Records, st.Markers = s.Emotes.Counts()
	st.PendingReactions = s.Reactions.Len()
}
