package llm

import (
	"sync"

	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/engine"
)

// Dispositions is the offline content source: every pet reacts with its
// own disposition as soon as the conversation is requested.
type Dispositions struct {
	mu    sync.Mutex
	ready []emote.Reaction
}

// NewDispositions returns an empty offline content source.
func NewDispositions() *Dispositions {
	return &Dispositions{}
}

func (d *Dispositions) Submit(req engine.ConversationRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = append(d.ready, fallback(req)...)
}

func (d *Dispositions) Drain() []emote.Reaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.ready
	d.ready = nil
	return out
}

func fallback(req engine.ConversationRequest) []emote.Reaction {
	return []emote.Reaction{
		{TargetID: req.A.ID, Kind: req.A.Disposition},
		{TargetID: req.B.ID, Kind: req.B.Disposition},
	}
}
