package agents

// InteractionTimers gates conversations for one pet. The cycle is
// ready -> active -> cooldown -> ready:
//
//	ready:    CanInteract && !Active
//	active:   CanInteract && Active
//	cooldown: !CanInteract && !Active
type InteractionTimers struct {
	CooldownElapsed  float64 `json:"cooldown_elapsed"`
	CooldownDuration float64 `json:"cooldown_duration"`
	CanInteract      bool    `json:"can_interact"`

	ActiveElapsed  float64 `json:"active_elapsed"`
	ActiveDuration float64 `json:"active_duration"`
	Active         bool    `json:"active"`
}

// NewInteractionTimers returns timers in the ready state.
func NewInteractionTimers(activeDuration, cooldownDuration float64) InteractionTimers {
	return InteractionTimers{
		CooldownDuration: cooldownDuration,
		CanInteract:      true,
		ActiveDuration:   activeDuration,
	}
}

// Activate starts a conversation if the pet is not cooling down.
func (t *InteractionTimers) Activate() bool {
	if !t.CanInteract {
		return false
	}
	t.Active = true
	return true
}

// Advance ages the timers by dt seconds. It returns true on the tick the
// active period completes; the timers are then in cooldown with both
// elapsed values reset.
func (t *InteractionTimers) Advance(dt float64) bool {
	if !t.CanInteract {
		t.CooldownElapsed = clampAdd(t.CooldownElapsed, dt, t.CooldownDuration)
		if t.CooldownElapsed >= t.CooldownDuration {
			t.CanInteract = true
		}
	}

	if !t.CanInteract || !t.Active {
		return false
	}

	t.ActiveElapsed = clampAdd(t.ActiveElapsed, dt, t.ActiveDuration)
	if t.ActiveElapsed < t.ActiveDuration {
		return false
	}

	t.Active = false
	t.CanInteract = false
	t.ActiveElapsed = 0
	t.CooldownElapsed = 0
	return true
}

// Phase names the current state for observers.
func (t InteractionTimers) Phase() string {
	switch {
	case t.Active:
		return "active"
	case !t.CanInteract:
		return "cooldown"
	default:
		return "ready"
	}
}

func clampAdd(v, dt, limit float64) float64 {
	v += dt
	if v > limit {
		return limit
	}
	return v
}
