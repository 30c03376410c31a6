// Package social pairs pets into conversations: the exclusivity ledger, the
// proximity resolver and the convergence controller.
package social

import (
	"github.com/talgya/etherpets/internal/world"
)

// PairKey identifies a conversation regardless of which pet was seen first.
// A is always the lexically smaller ID.
type PairKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

// KeyOf returns the canonical key for two pets.
func KeyOf(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Has reports whether id is one of the two pets.
func (k PairKey) Has(id string) bool {
	return k.A == id || k.B == id
}

// Other returns the partner of id within the pair.
func (k PairKey) Other(id string) string {
	if k.A == id {
		return k.B
	}
	return k.A
}

func (k PairKey) String() string {
	return k.A + "+" + k.B
}

// Pair is a live conversation. The anchor stands still and the responder
// walks to meet it.
type Pair struct {
	Key          PairKey    `json:"key"`
	AnchorID     string     `json:"anchor_id"`
	ResponderID  string     `json:"responder_id"`
	AnchorPos    world.Vec3 `json:"anchor_pos"`
	ResponderPos world.Vec3 `json:"responder_pos"`
	Quadrant     Quadrant   `json:"quadrant"`
	FormedTick   uint64     `json:"formed_tick"`

	ChatMarkerSpawned bool `json:"chat_marker_spawned"`
	ContentRequested  bool `json:"content_requested"`
}

// State is a pet's social state.
type State uint8

const (
	Free State = iota
	Conversing
)

func (s State) String() string {
	if s == Conversing {
		return "conversing"
	}
	return "free"
}

// Ledger holds the set of live pairs and the per-pet membership flags.
// A pet is marked as a member exactly while it belongs to one pair.
// Iteration follows formation order so passes over it are deterministic.
type Ledger struct {
	pairs   map[PairKey]*Pair
	order   []PairKey
	members map[string]bool
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		pairs:   make(map[PairKey]*Pair),
		members: make(map[string]bool),
	}
}

// Form inserts p unless a pair with the same key exists. Either way the
// stored pair is returned; the bool reports whether it was inserted. Both
// pets are marked as members on insert.
func (l *Ledger) Form(p Pair) (*Pair, bool) {
	if p.Key == (PairKey{}) {
		p.Key = KeyOf(p.AnchorID, p.ResponderID)
	}
	if existing, ok := l.pairs[p.Key]; ok {
		return existing, false
	}
	stored := p
	l.pairs[p.Key] = &stored
	l.order = append(l.order, p.Key)
	l.members[p.AnchorID] = true
	l.members[p.ResponderID] = true
	return &stored, true
}

// Get looks a pair up by key.
func (l *Ledger) Get(k PairKey) (*Pair, bool) {
	p, ok := l.pairs[k]
	return p, ok
}

// Dissolve removes the pair for k, if any, and clears both pets'
// membership.
func (l *Ledger) Dissolve(k PairKey) bool {
	if _, ok := l.pairs[k]; !ok {
		return false
	}
	l.remove(k)
	l.members[k.A] = false
	l.members[k.B] = false
	return true
}

// Release takes a pet and its partner out of the ledger entirely. It
// returns the keys of the pairs that were removed.
func (l *Ledger) Release(id string) []PairKey {
	var removed []PairKey
	for _, k := range l.order {
		if k.Has(id) {
			removed = append(removed, k)
		}
	}
	for _, k := range removed {
		l.remove(k)
		delete(l.members, k.A)
		delete(l.members, k.B)
	}
	delete(l.members, id)
	return removed
}

// Unmark clears the membership flag of a pet that holds no pair.
func (l *Ledger) Unmark(id string) {
	if _, ok := l.Partner(id); ok {
		return
	}
	if _, seen := l.members[id]; seen {
		l.members[id] = false
	}
}

func (l *Ledger) remove(k PairKey) {
	delete(l.pairs, k)
	for i, o := range l.order {
		if o == k {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

// InConversation reports the membership flag of a pet.
func (l *Ledger) InConversation(id string) bool {
	return l.members[id]
}

// State returns whether a pet is free or conversing.
func (l *Ledger) State(id string) State {
	if l.members[id] {
		return Conversing
	}
	return Free
}

// Partner returns the other pet in id's conversation.
func (l *Ledger) Partner(id string) (string, bool) {
	for _, k := range l.order {
		if k.Has(id) {
			return k.Other(id), true
		}
	}
	return "", false
}

// Pairs returns the live pairs in formation order. The pairs are shared
// with the ledger; the slice is not.
func (l *Ledger) Pairs() []*Pair {
	out := make([]*Pair, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.pairs[k])
	}
	return out
}

// Members returns a copy of the membership flags.
func (l *Ledger) Members() map[string]bool {
	out := make(map[string]bool, len(l.members))
	for id, v := range l.members {
		out[id] = v
	}
	return out
}

// Len is the number of live pairs.
func (l *Ledger) Len() int {
	return len(l.order)
}
