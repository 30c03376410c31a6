package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/etherpets/internal/engine"
)

const (
	maxStreamConns = 16
	streamBacklog  = 64
	writeTimeout   = 5 * time.Second
)

// StreamMessage is one frame on the stream. Type is "snapshot" or "event".
type StreamMessage struct {
	Type string `json:"type"`
	Tick uint64 `json:"tick"`
	Data any    `json:"data"`
}

// StreamFrame mirrors StreamMessage for decoding on the client side.
type StreamFrame struct {
	Type string          `json:"type"`
	Tick uint64          `json:"tick"`
	Data json.RawMessage `json:"data"`
}

// Hub fans stream frames out to subscribers. Slow subscribers drop frames
// rather than stall the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan []byte
	nextID uint64
	max    int
	closed bool
}

// NewHub returns a hub accepting at most max subscribers.
func NewHub(max int) *Hub {
	return &Hub{subs: make(map[uint64]chan []byte), max: max}
}

// Subscribe registers a subscriber. It returns false when the hub is full
// or closed.
func (h *Hub) Subscribe() (uint64, <-chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || len(h.subs) >= h.max {
		return 0, nil, false
	}
	h.nextID++
	ch := make(chan []byte, streamBacklog)
	h.subs[h.nextID] = ch
	return h.nextID, ch, true
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Len is the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast encodes msg once and queues it for every subscriber.
func (h *Hub) Broadcast(msg StreamMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("stream encode failed", "type", msg.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- b:
		default:
			slog.Debug("stream subscriber lagging, frame dropped", "sub_id", id)
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// PublishSnapshot sends the current farm snapshot to every subscriber.
func (s *Server) PublishSnapshot() {
	if s.Hub == nil || s.Hub.Len() == 0 {
		return
	}
	snap := s.Sim.Snapshot()
	s.Hub.Broadcast(StreamMessage{Type: "snapshot", Tick: snap.Tick, Data: snap})
}

// EventHook returns a Simulation.OnEvent hook that forwards events to the
// stream.
func (s *Server) EventHook() func(engine.Event) {
	return func(e engine.Event) {
		if s.Hub != nil {
			s.Hub.Broadcast(StreamMessage{Type: "event", Tick: e.Tick, Data: e})
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream upgrades to a WebSocket and streams a snapshot followed by
// live frames until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.RelayKey != "" && !bearerMatches(r, s.RelayKey) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, frames, ok := s.Hub.Subscribe()
	if !ok {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.Hub.Unsubscribe(id)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	slog.Info("stream client connected", "sub_id", id)

	snap := s.Sim.Snapshot()
	first, _ := json.Marshal(StreamMessage{Type: "snapshot", Tick: snap.Tick, Data: snap})
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, first); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: the stream is one-way, reads only detect the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stream client disconnected", "sub_id", id)
			return
		case b, ok := <-frames:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}
