// Roaming behavior: a time-boxed state machine that walks a pet around the
// farm, with idle, eating and emoting holds in between legs.
package agents

import (
	"math"

	"github.com/talgya/etherpets/internal/world"
)

// RoamMode is the active roaming sub-state.
type RoamMode uint8

const (
	RoamWalking RoamMode = iota
	RoamIdle
	RoamEating
	RoamEmoting
)

func (m RoamMode) String() string {
	switch m {
	case RoamIdle:
		return "idle"
	case RoamEating:
		return "eating"
	case RoamEmoting:
		return "emoting"
	default:
		return "roaming"
	}
}

// RoamLimits are the maximum durations, in seconds, of each sub-state.
type RoamLimits struct {
	Roam  float64 `json:"roam"`
	Idle  float64 `json:"idle"`
	Eat   float64 `json:"eat"`
	Emote float64 `json:"emote"`
}

func (l RoamLimits) hold(m RoamMode) float64 {
	switch m {
	case RoamIdle:
		return l.Idle
	case RoamEating:
		return l.Eat
	case RoamEmoting:
		return l.Emote
	default:
		return l.Roam
	}
}

// Hold is the timer of an idle, eating or emoting stretch.
type Hold struct {
	Kind    RoamMode `json:"kind"`
	Elapsed float64  `json:"elapsed"`
}

// Roaming is the per-pet roaming state. Leg fields matter while Mode is
// RoamWalking; Hold matters otherwise.
type Roaming struct {
	Mode RoamMode `json:"mode"`

	Direction  world.Vec3 `json:"direction"`
	LegElapsed float64    `json:"leg_elapsed"`
	Hold       Hold       `json:"hold"`
	Limits     RoamLimits `json:"limits"`
}

// NewRoaming returns a roaming state that will pick a direction on its first
// step.
func NewRoaming(limits RoamLimits) Roaming {
	return Roaming{Mode: RoamWalking, Limits: limits}
}

// StartHold switches into a hold sub-state with a fresh timer.
func (r *Roaming) StartHold(kind RoamMode) {
	if kind == RoamWalking {
		r.Mode = RoamWalking
		r.Hold = Hold{}
		return
	}
	r.Mode = kind
	r.Hold = Hold{Kind: kind}
}

// tickHold ages the hold and returns to walking once it runs past its limit.
func (r *Roaming) tickHold(dt float64) {
	r.Hold.Elapsed += dt
	if r.Hold.Elapsed > r.Limits.hold(r.Mode) {
		r.Mode = RoamWalking
		r.Hold = Hold{}
	}
}

// overrun reports an eating or emoting timer left past its limit. Holds are
// reset whenever walking resumes, so this never fires; kept for parity.
func (r *Roaming) overrun() bool {
	switch r.Hold.Kind {
	case RoamEating, RoamEmoting:
		return r.Hold.Elapsed > r.Limits.hold(r.Hold.Kind)
	}
	return false
}

// Rand is the random source used for roaming decisions. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// RoamParams are the shared roaming tunables.
type RoamParams struct {
	TileSize    float64
	HoldChance  float64 // Chance to stand still for a tick instead of turning
	EatChance   float64 // Chance a turn becomes an eating stop
	EmoteChance float64 // Chance a turn becomes an emote
}

// RequestHold queues a hold for the next roaming step. Other systems use it
// instead of writing Roaming directly.
func (a *Agent) RequestHold(kind RoamMode) {
	a.HoldRequest = kind
}

// Roam advances a pet's roaming state by dt seconds. Pets in an active
// conversation are left untouched. A pending hold request is applied first.
func Roam(a *Agent, obs world.Obstacles, dt float64, rng Rand, p RoamParams) {
	if a.Timers.Active {
		return
	}

	r := &a.Roaming
	if a.HoldRequest != RoamWalking {
		r.StartHold(a.HoldRequest)
		a.HoldRequest = RoamWalking
	}

	switch r.Mode {
	case RoamEmoting:
		a.Action = ActionEmote
		r.tickHold(dt)
		return
	case RoamEating:
		a.Action = ActionEat
		r.tickHold(dt)
		return
	case RoamIdle:
		a.Action = ActionIdle
		r.tickHold(dt)
		return
	}

	r.LegElapsed += dt
	target := step(a, dt, p)

	if r.LegElapsed > r.Limits.Roam ||
		r.overrun() ||
		r.Direction.IsZero() ||
		obs.IsBlocked(target) ||
		a.Collided {
		if rng.Float64() < p.HoldChance {
			return
		}

		if p.EatChance+p.EmoteChance > 0 {
			draw := rng.Float64()
			switch {
			case draw < p.EatChance:
				r.StartHold(RoamEating)
				a.Action = ActionEat
				return
			case draw < p.EatChance+p.EmoteChance:
				r.StartHold(RoamEmoting)
				a.Action = ActionEmote
				return
			}
		}

		r.Direction = randomDirection(rng)
		r.LegElapsed = 0
		a.Facing = FacingFor(r.Direction)
		a.Action = ActionWalk
		target = step(a, dt, p)
	}

	if !obs.IsBlocked(target) && !a.Collided {
		a.Position = target
		a.Action = ActionWalk
	} else {
		r.StartHold(RoamIdle)
		a.Action = ActionIdle
	}

	a.Collided = false
}

func step(a *Agent, dt float64, p RoamParams) world.Vec3 {
	return a.Position.Add(a.Roaming.Direction.Scale(a.Speed * p.TileSize * dt))
}

func randomDirection(rng Rand) world.Vec3 {
	d := world.Vec3{
		X: rng.Float64()*2 - 1,
		Y: rng.Float64()*2 - 1,
	}
	return d.Normalize()
}

// FacingFor picks the facing for a movement vector, preferring horizontal
// facing when the horizontal component dominates or ties.
func FacingFor(d world.Vec3) Direction {
	switch {
	case d.X > 0 && math.Abs(d.Y) <= d.X:
		return FacingRight
	case d.X < 0 && math.Abs(d.Y) <= -d.X:
		return FacingLeft
	case d.Y > 0:
		return FacingUp
	default:
		return FacingDown
	}
}
