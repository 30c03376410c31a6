package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/engine"
)

// Line is one pet's part of a generated conversation.
type Line struct {
	Pet     string `json:"pet"`
	Emotion string `json:"emotion"`
	Says    string `json:"says"`
}

func buildSystemPrompt() string {
	var names []string
	for _, e := range agents.Emotions() {
		names = append(names, e.String())
	}
	return fmt.Sprintf(`You write tiny conversations between pets living together on a small farm.
Each pet has a temperament that colors how it talks, but a good chat can change its mood.

Respond ONLY with a JSON array containing exactly one object per pet. Each object has:
- "pet": the pet's id, exactly as given
- "emotion": how the pet feels afterwards, one of %s
- "says": one short line the pet says (under 15 words)`,
		strings.Join(names, ", "))
}

func buildUserPrompt(req engine.ConversationRequest) string {
	var b strings.Builder
	b.WriteString("Two pets meet in the meadow.\n\n")
	for _, p := range []engine.ContentPet{req.A, req.B} {
		fmt.Fprintf(&b, "- id %q: %s, usually feels %s\n", p.ID, p.Name, p.Disposition)
	}
	b.WriteString("\nWhat do they say, and how does each feel afterwards? Respond with the JSON array.")
	return b.String()
}

// parseConversation turns a model response into reactions, one per pet in
// request order. A pet the model left out reacts with its disposition;
// unknown emotion names fall back to Hate.
func parseConversation(response string, req engine.ConversationRequest) ([]emote.Reaction, []Line, error) {
	// Find JSON array in response (the LLM might include explanation text).
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, nil, fmt.Errorf("no JSON array found in response")
	}

	var lines []Line
	if err := json.Unmarshal([]byte(response[start:end+1]), &lines); err != nil {
		return nil, nil, fmt.Errorf("parse conversation: %w", err)
	}

	byPet := make(map[string]Line, len(lines))
	for _, l := range lines {
		if _, seen := byPet[l.Pet]; !seen {
			byPet[l.Pet] = l
		}
	}

	var out []emote.Reaction
	var kept []Line
	for _, p := range []engine.ContentPet{req.A, req.B} {
		l, ok := byPet[p.ID]
		if !ok {
			out = append(out, emote.Reaction{TargetID: p.ID, Kind: p.Disposition})
			continue
		}
		kind, _ := agents.ParseEmotion(l.Emotion)
		out = append(out, emote.Reaction{TargetID: p.ID, Kind: kind})
		kept = append(kept, l)
	}
	return out, kept, nil
}
