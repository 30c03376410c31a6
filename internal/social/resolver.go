package social

import (
	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/world"
)

// Config holds the pairing and convergence distances.
type Config struct {
	ProximityThreshold  float64 // Pets closer than this may pair
	MinDistance         float64 // Pets must be farther apart than this
	ResponderSideOffset float64 // Gap the responder keeps when approaching from the bottom right
	PathStep            float64 // Sampling interval for convergence path checks
}

// DefaultConfig returns the stock distances for 16-unit tiles.
func DefaultConfig() Config {
	return Config{
		ProximityThreshold:  15,
		MinDistance:         10,
		ResponderSideOffset: 12,
		PathStep:            4,
	}
}

// Request is the "conversation requested" notification for a freshly
// formed pair.
type Request struct {
	Key PairKey
	A   string // Anchor
	B   string // Responder
}

type candidate struct {
	id          string
	pos         world.Vec3
	canInteract bool
}

// Resolve scans every pair of pets that are not already in an active
// conversation and forms pairs for those at conversational distance. The
// pets are read into a snapshot before the ledger is touched. Candidates are
// visited in slice order, so the first qualifying pair claims both pets.
func Resolve(pets []*agents.Agent, l *Ledger, cfg Config, tick uint64) []Request {
	snap := make([]candidate, 0, len(pets))
	for _, a := range pets {
		if a.Timers.Active {
			continue
		}
		snap = append(snap, candidate{id: a.ID, pos: a.Position, canInteract: a.Timers.CanInteract})
	}

	var reqs []Request
	for i := 0; i < len(snap); i++ {
		for j := i + 1; j < len(snap); j++ {
			a, b := snap[i], snap[j]
			if a.id == b.id {
				continue
			}
			if l.InConversation(a.id) || l.InConversation(b.id) {
				continue
			}

			key := KeyOf(a.id, b.id)
			d := a.pos.Distance(b.pos)
			if d > cfg.MinDistance && d < cfg.ProximityThreshold && a.canInteract && b.canInteract {
				_, inserted := l.Form(Pair{
					Key:          key,
					AnchorID:     a.id,
					ResponderID:  b.id,
					AnchorPos:    a.pos,
					ResponderPos: b.pos,
					Quadrant:     FindQuadrant(a.pos, b.pos),
					FormedTick:   tick,
				})
				if inserted {
					reqs = append(reqs, Request{Key: key, A: a.id, B: b.id})
				}
				continue
			}

			l.Dissolve(key)
			l.Unmark(a.id)
			l.Unmark(b.id)
		}
	}
	return reqs
}
