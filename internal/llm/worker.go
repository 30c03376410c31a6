package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/engine"
)

// Completer is the part of Client the worker needs.
type Completer interface {
	Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error)
}

// Worker generates conversations on a background goroutine. Submit never
// blocks the tick: when the backlog is full the request is answered
// offline instead. Failed calls fall back to the pets' dispositions.
type Worker struct {
	llm     Completer
	timeout time.Duration

	requests chan engine.ConversationRequest
	results  chan emote.Reaction

	// OnLine is called from the worker goroutine for every generated line.
	OnLine func(req engine.ConversationRequest, l Line)
}

// NewWorker creates a worker with room for backlog pending requests.
func NewWorker(c Completer, backlog int) *Worker {
	if backlog < 1 {
		backlog = 1
	}
	return &Worker{
		llm:      c,
		timeout:  45 * time.Second,
		requests: make(chan engine.ConversationRequest, backlog),
		results:  make(chan emote.Reaction, backlog*4),
	}
}

// Run processes requests until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("conversation worker started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("conversation worker stopped")
			return
		case req := <-w.requests:
			w.deliver(ctx, w.converse(ctx, req))
		}
	}
}

func (w *Worker) converse(ctx context.Context, req engine.ConversationRequest) []emote.Reaction {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.llm.Complete(ctx, buildSystemPrompt(), buildUserPrompt(req), 300)
	if err != nil {
		slog.Warn("conversation generation failed", "pair", req.Key, "error", err)
		return fallback(req)
	}

	reactions, lines, err := parseConversation(resp, req)
	if err != nil {
		slog.Warn("conversation response unusable", "pair", req.Key, "error", err)
		return fallback(req)
	}
	for _, l := range lines {
		slog.Debug("pet says", "pet", l.Pet, "emotion", l.Emotion, "says", l.Says)
		if w.OnLine != nil {
			w.OnLine(req, l)
		}
	}
	return reactions
}

func (w *Worker) deliver(ctx context.Context, rs []emote.Reaction) {
	for _, r := range rs {
		select {
		case w.results <- r:
		case <-ctx.Done():
			return
		}
	}
}

// Submit queues a request for the worker.
func (w *Worker) Submit(req engine.ConversationRequest) {
	select {
	case w.requests <- req:
	default:
		slog.Warn("conversation backlog full, reacting offline", "pair", req.Key)
		for _, r := range fallback(req) {
			select {
			case w.results <- r:
			default:
				slog.Warn("reaction dropped", "pet", r.TargetID)
			}
		}
	}
}

// Drain returns the reactions produced so far without waiting.
func (w *Worker) Drain() []emote.Reaction {
	var out []emote.Reaction
	for {
		select {
		case r := <-w.results:
			out = append(out, r)
		default:
			return out
		}
	}
}
