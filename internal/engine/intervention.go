package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/world"
)

// ErrUnknownPet is returned by interventions that name a pet not on the farm.
var ErrUnknownPet = errors.New("unknown pet")

// QueueReaction adds a reaction for a pet to the pending queue. It is shown
// when the next conversation ends, like any other reaction.
func (s *Simulation) QueueReaction(id string, kind agents.Emotion) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.Pets.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPet, id)
	}

	s.Reactions.Push(emote.Reaction{TargetID: id, Kind: kind})
	desc := fmt.Sprintf("Someone hopes %s will feel %s", a.Name, kind)
	s.emitEvent(Event{
		Tick:        s.LastTick,
		Description: desc,
		Category:    "intervention",
		Meta: map[string]any{
			"pet":     id,
			"emotion": kind.String(),
		},
	})

	slog.Info("reaction intervention", "pet", id, "emotion", kind)
	return desc, nil
}

// MovePet picks a free pet up and sets it down on a passable position.
func (s *Simulation) MovePet(id string, pos world.Vec3) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.Pets.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPet, id)
	}
	if a.Timers.Active || s.Ledger.InConversation(id) {
		return "", fmt.Errorf("%s is in a conversation", a.Name)
	}
	if s.Obstacles.IsBlocked(pos) {
		return "", fmt.Errorf("position %s is blocked", pos)
	}

	pos.Z = a.Position.Z
	a.Position = pos
	a.RequestHold(agents.RoamIdle)
	a.Action = agents.ActionIdle

	desc := fmt.Sprintf("%s is carried to %s", a.Name, pos)
	s.emitEvent(Event{
		Tick:        s.LastTick,
		Description: desc,
		Category:    "intervention",
		Meta: map[string]any{
			"pet": id,
			"x":   pos.X,
			"y":   pos.Y,
		},
	})

	slog.Info("move intervention", "pet", id, "x", pos.X, "y", pos.Y)
	return desc, nil
}
