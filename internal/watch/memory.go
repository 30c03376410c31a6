package watch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	maxRecords     = 50
	summaryRecords = 5
)

// ConversationRecord is one finished conversation seen by the watcher.
type ConversationRecord struct {
	EndTick  uint64 `json:"end_tick"`
	Anchor   string `json:"anchor"`
	Partner  string `json:"partner"`
	Quadrant string `json:"quadrant"`
	Ticks    uint64 `json:"ticks"`
}

// Memory is a ring of recent conversations persisted between runs.
type Memory struct {
	path    string
	Records []ConversationRecord `json:"records"`
}

// LoadMemory reads the memory file. A missing or corrupted file yields an
// empty memory.
func LoadMemory(path string) *Memory {
	m := &Memory{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, m); err != nil {
		slog.Warn("watch memory corrupted, starting fresh", "error", err)
		return &Memory{path: path}
	}
	return m
}

// Save writes the memory to disk. An empty path disables saving.
func (m *Memory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal watch memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		slog.Error("failed to write watch memory", "error", err)
	}
}

// Record keeps an ended conversation, trimming to the newest maxRecords.
func (m *Memory) Record(c Change) {
	if c.Kind != Ended {
		return
	}
	m.Records = append(m.Records, ConversationRecord{
		EndTick:  c.Tick,
		Anchor:   c.Names[0],
		Partner:  c.Names[1],
		Quadrant: c.Pair.Quadrant,
		Ticks:    c.Ticks,
	})
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Summary lists the last few conversations, newest last.
func (m *Memory) Summary() string {
	if len(m.Records) == 0 {
		return "no conversations recorded yet\n"
	}

	var b strings.Builder
	start := 0
	if len(m.Records) > summaryRecords {
		start = len(m.Records) - summaryRecords
	}
	for _, r := range m.Records[start:] {
		fmt.Fprintf(&b, "- tick %d: %s and %s talked for %d ticks (%s)\n",
			r.EndTick, r.Anchor, r.Partner, r.Ticks, r.Quadrant)
	}
	return b.String()
}
