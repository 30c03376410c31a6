package engine

import (
	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/social"
)

// ContentPet is what a content source knows about one speaker.
type ContentPet struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Disposition agents.Emotion `json:"disposition"`
}

// ConversationRequest is sent once per newly formed pair.
type ConversationRequest struct {
	Key  social.PairKey `json:"key"`
	Tick uint64         `json:"tick"`
	A    ContentPet     `json:"a"`
	B    ContentPet     `json:"b"`
}

// ContentSource produces reactions for conversations. Submit must not block
// the tick; Drain returns whatever reactions are ready, oldest first.
type ContentSource interface {
	Submit(req ConversationRequest)
	Drain() []emote.Reaction
}

func contentPet(a *agents.Agent) ContentPet {
	return ContentPet{ID: a.ID, Name: a.Name, Disposition: a.Disposition}
}
