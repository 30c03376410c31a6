package social

import (
	"math"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/world"
)

// Rendezvous returns where the responder should stand relative to the
// anchor's position, and whether the quadrant calls for any movement.
func Rendezvous(anchor world.Vec3, q Quadrant, cfg Config) (world.Vec3, bool) {
	var off world.Vec3
	switch q {
	case TopLeft:
		off = world.V(0, cfg.ProximityThreshold)
	case TopRight:
		off = world.V(cfg.ProximityThreshold/2, 0)
	case BottomLeft:
		off = world.V(0, -cfg.ProximityThreshold)
	case BottomRight:
		off = world.V(-cfg.ResponderSideOffset, 0)
	default:
		return anchor, false
	}
	return anchor.Add(off), true
}

// arrived compares the one axis that matters for the quadrant after
// rounding.
func arrived(pos, target world.Vec3, q Quadrant) bool {
	switch q {
	case TopLeft, BottomLeft:
		return math.Round(pos.X) == math.Round(target.X)
	default:
		return math.Round(pos.Y) == math.Round(target.Y)
	}
}

// Converge walks every responder one tick toward its rendezvous point. The
// anchor idles facing its partner. A pair whose path is obstructed is
// dissolved once all pairs have been visited, releasing both pets; the
// dissolved keys are returned.
func Converge(l *Ledger, store *agents.Store, obs world.Obstacles, cfg Config) []PairKey {
	var blocked []PairKey

	for _, p := range l.Pairs() {
		anchor, ok := store.Get(p.AnchorID)
		if !ok {
			continue
		}
		anchor.Action = agents.ActionIdle
		if f, ok := p.Quadrant.AnchorFacing(); ok {
			anchor.Facing = f
		}

		resp, ok := store.Get(p.ResponderID)
		if !ok {
			continue
		}
		target, moves := Rendezvous(anchor.Position, p.Quadrant, cfg)
		if !moves {
			continue
		}
		target.Z = resp.Position.Z
		resp.Facing, _ = p.Quadrant.ResponderFacing()

		if arrived(resp.Position, target, p.Quadrant) {
			resp.Action = agents.ActionIdle
			continue
		}

		resp.Action = agents.ActionWalk
		if !world.PathClear(obs, resp.Position, target, cfg.PathStep) {
			resp.Action = agents.ActionIdle
			blocked = append(blocked, p.Key)
			continue
		}

		delta := target.Sub(resp.Position)
		stride := math.Min(resp.Speed, delta.Len())
		resp.Position = resp.Position.Add(delta.Normalize().Scale(stride))
	}

	for _, k := range blocked {
		l.Release(k.A)
	}
	return blocked
}
