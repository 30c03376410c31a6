// Package agents provides the pet data model, the roster and spawner, the
// roaming state machine and the per-pet interaction timers.
package agents

import (
	"github.com/talgya/etherpets/internal/world"
)

// Direction is the way a pet is facing.
type Direction uint8

const (
	FacingDown Direction = iota // Default
	FacingUp
	FacingLeft
	FacingRight
)

func (d Direction) String() string {
	switch d {
	case FacingUp:
		return "up"
	case FacingLeft:
		return "left"
	case FacingRight:
		return "right"
	default:
		return "down"
	}
}

// Action is what the pet is visibly doing this tick.
type Action uint8

const (
	ActionIdle Action = iota
	ActionWalk
	ActionEat
	ActionEmote
)

func (a Action) String() string {
	switch a {
	case ActionWalk:
		return "walk"
	case ActionEat:
		return "eat"
	case ActionEmote:
		return "emote"
	default:
		return "idle"
	}
}

// Agent is a pet living on the farm.
type Agent struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	BaseAttack  int     `json:"base_attack"`
	Speed       float64 `json:"speed"` // Tiles per second while roaming, units per tick while converging
	Disposition Emotion `json:"disposition"`

	Position world.Vec3 `json:"position"`
	Facing   Direction  `json:"facing"`
	Action   Action     `json:"action"`

	Roaming Roaming           `json:"roaming"`
	Timers  InteractionTimers `json:"timers"`

	// Collided is set by whoever detects a pet-on-pet bump and consumed by
	// the next roaming step.
	Collided bool `json:"-"`

	// HoldRequest asks the next roaming step to enter a hold. RoamWalking
	// means no request.
	HoldRequest RoamMode `json:"-"`
}

// Store holds the pets in spawn order and indexes them by ID.
type Store struct {
	list  []*Agent
	index map[string]*Agent
}

// NewStore builds a store from pets in iteration order. Later duplicates of
// an ID are ignored.
func NewStore(pets []*Agent) *Store {
	s := &Store{index: make(map[string]*Agent, len(pets))}
	for _, a := range pets {
		s.Add(a)
	}
	return s
}

// Add appends a pet. It returns false if the ID is already present.
func (s *Store) Add(a *Agent) bool {
	if _, ok := s.index[a.ID]; ok {
		return false
	}
	s.list = append(s.list, a)
	s.index[a.ID] = a
	return true
}

// Get looks a pet up by ID.
func (s *Store) Get(id string) (*Agent, bool) {
	a, ok := s.index[id]
	return a, ok
}

// Remove deletes a pet. Outstanding references by ID simply stop resolving.
func (s *Store) Remove(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, a := range s.list {
		if a.ID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			break
		}
	}
	return true
}

// All returns the pets in spawn order. The slice must not be modified.
func (s *Store) All() []*Agent {
	return s.list
}

// Len is the number of pets.
func (s *Store) Len() int {
	return len(s.list)
}
