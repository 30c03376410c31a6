package engine

import (
	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/social"
)

// PetView is a pet as seen by observers.
type PetView struct {
	agents.Agent
	Social  string `json:"social"`
	Phase   string `json:"phase"`
	Partner string `json:"partner,omitempty"`
}

// Snapshot is a consistent copy of the farm between two ticks.
type Snapshot struct {
	Tick    uint64         `json:"tick"`
	Clock   float64        `json:"clock"`
	Stats   SimStats       `json:"stats"`
	Pets    []PetView      `json:"pets"`
	Pairs   []social.Pair  `json:"pairs"`
	Records []emote.Record `json:"records"`
	Markers []emote.Marker `json:"markers"`
}

// Snapshot copies the observable state.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tick:    s.LastTick,
		Clock:   s.Clock,
		Stats:   s.Stats,
		Pets:    make([]PetView, 0, s.Pets.Len()),
		Pairs:   s.pairs(),
		Records: s.Emotes.Records(),
		Markers: s.Emotes.Markers(),
	}
	for _, a := range s.Pets.All() {
		snap.Pets = append(snap.Pets, s.view(a))
	}
	return snap
}

// Pet returns one pet by ID.
func (s *Simulation) Pet(id string) (PetView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.Pets.Get(id)
	if !ok {
		return PetView{}, false
	}
	return s.view(a), true
}

// Pairs returns copies of the live conversation pairs.
func (s *Simulation) Pairs() []social.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pairs()
}

// ReactionState returns the live reaction records and the reactions still
// waiting for a conversation to end.
func (s *Simulation) ReactionState() ([]emote.Record, []emote.Reaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Emotes.Records(), s.Reactions.Pending()
}

// RecentEvents returns up to n of the newest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.Events) {
		n = len(s.Events)
	}
	return append([]Event(nil), s.Events[len(s.Events)-n:]...)
}

// CurrentStats returns the latest statistics.
func (s *Simulation) CurrentStats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// PetStates returns copies of every pet for persistence.
func (s *Simulation) PetStates() []agents.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]agents.Agent, 0, s.Pets.Len())
	for _, a := range s.Pets.All() {
		out = append(out, *a)
	}
	return out
}

// Restore places saved pets back on the farm by ID and resumes the clock.
// Saved pets that are not on the roster are ignored. Conversations are not
// restored, so every pet comes back free.
func (s *Simulation) Restore(saved []agents.Agent, tick uint64, clock float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sv := range saved {
		a, ok := s.Pets.Get(sv.ID)
		if !ok {
			continue
		}
		a.Position = sv.Position
		a.Facing = sv.Facing
		if !sv.Timers.Active {
			a.Timers = sv.Timers
		}
		n++
	}
	s.LastTick = tick
	s.Clock = clock
	s.updateStats()
	return n
}

func (s *Simulation) pairs() []social.Pair {
	ps := s.Ledger.Pairs()
	out := make([]social.Pair, 0, len(ps))
	for _, p := range ps {
		out = append(out, *p)
	}
	return out
}

func (s *Simulation) view(a *agents.Agent) PetView {
	v := PetView{
		Agent:  *a,
		Social: s.Ledger.State(a.ID).String(),
		Phase:  a.Timers.Phase(),
	}
	if p, ok := s.Ledger.Partner(a.ID); ok {
		v.Partner = p
	}
	return v
}
