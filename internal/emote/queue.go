// Package emote turns finished conversations into short-lived reaction
// records that float above the pets, and keeps the chat markers shown
// while a pair is talking.
package emote

import (
	"github.com/talgya/etherpets/internal/agents"
)

// Reaction asks for an emote above a pet.
type Reaction struct {
	TargetID string         `json:"target_id"`
	Kind     agents.Emotion `json:"kind"`
}

// Queue is a FIFO of reactions waiting for a conversation to end.
type Queue struct {
	items []Reaction
}

// Push appends reactions in order.
func (q *Queue) Push(rs ...Reaction) {
	q.items = append(q.items, rs...)
}

// Drain removes and returns every queued reaction, oldest first.
func (q *Queue) Drain() []Reaction {
	out := q.items
	q.items = nil
	return out
}

// Len is the number of queued reactions.
func (q *Queue) Len() int {
	return len(q.items)
}

// Pending returns a copy of the queued reactions.
func (q *Queue) Pending() []Reaction {
	return append([]Reaction(nil), q.items...)
}
