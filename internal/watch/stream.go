package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/talgya/etherpets/internal/api"
	"github.com/talgya/etherpets/internal/engine"
)

// PairInfo mirrors a conversation pair in a snapshot.
type PairInfo struct {
	Key struct {
		A string `json:"a"`
		B string `json:"b"`
	} `json:"key"`
	AnchorID    string `json:"anchor_id"`
	ResponderID string `json:"responder_id"`
	Quadrant    string `json:"quadrant"`
	FormedTick  uint64 `json:"formed_tick"`
}

// ID is the pair key in "a+b" form.
func (p PairInfo) ID() string {
	return p.Key.A + "+" + p.Key.B
}

// SnapshotInfo is the part of a streamed snapshot the watcher reads.
type SnapshotInfo struct {
	Tick  uint64     `json:"tick"`
	Clock float64    `json:"clock"`
	Pets  []PetInfo  `json:"pets"`
	Pairs []PairInfo `json:"pairs"`
}

// Handler receives decoded stream frames. Exactly one of snap and ev is
// non-nil.
type Handler func(snap *SnapshotInfo, ev *engine.Event)

// StreamURL turns an http(s) API base URL into the WebSocket stream URL.
func StreamURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/v1/stream"
}

// Stream connects to the farm's WebSocket stream and calls h for every frame
// until ctx is done or the server closes the connection.
func Stream(ctx context.Context, baseURL, relayKey string, h Handler) error {
	header := http.Header{}
	if relayKey != "" {
		header.Set("Authorization", "Bearer "+relayKey)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, StreamURL(baseURL), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial stream: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var frame api.StreamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}

		switch frame.Type {
		case "snapshot":
			var snap SnapshotInfo
			if err := json.Unmarshal(frame.Data, &snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			h(&snap, nil)
		case "event":
			var ev engine.Event
			if err := json.Unmarshal(frame.Data, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			h(nil, &ev)
		}
	}
}
