package social

import (
	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/world"
)

// Quadrant is the bearing of the responder from the anchor.
type Quadrant uint8

const (
	QuadrantNone Quadrant = iota
	TopLeft
	TopRight
	BottomLeft
	BottomRight
)

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "top_left"
	case TopRight:
		return "top_right"
	case BottomLeft:
		return "bottom_left"
	case BottomRight:
		return "bottom_right"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q Quadrant) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// FindQuadrant returns where b sits relative to a. Positions aligned on
// either axis have no quadrant.
func FindQuadrant(a, b world.Vec3) Quadrant {
	switch {
	case b.Y < a.Y && b.X > a.X:
		return BottomRight
	case b.Y < a.Y && b.X < a.X:
		return BottomLeft
	case b.Y > a.Y && b.X > a.X:
		return TopRight
	case b.Y > a.Y && b.X < a.X:
		return TopLeft
	default:
		return QuadrantNone
	}
}

// AnchorFacing is the way the anchor turns to face its partner.
func (q Quadrant) AnchorFacing() (agents.Direction, bool) {
	switch q {
	case TopLeft:
		return agents.FacingUp, true
	case TopRight:
		return agents.FacingRight, true
	case BottomLeft:
		return agents.FacingDown, true
	case BottomRight:
		return agents.FacingLeft, true
	}
	return agents.FacingDown, false
}

// ResponderFacing is the reciprocal of AnchorFacing.
func (q Quadrant) ResponderFacing() (agents.Direction, bool) {
	switch q {
	case TopLeft:
		return agents.FacingDown, true
	case TopRight:
		return agents.FacingLeft, true
	case BottomLeft:
		return agents.FacingUp, true
	case BottomRight:
		return agents.FacingRight, true
	}
	return agents.FacingDown, false
}
