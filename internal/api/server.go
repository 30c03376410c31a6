// Package api provides the HTTP API for observing the farm.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/engine"
	"github.com/talgya/etherpets/internal/persistence"
	"github.com/talgya/etherpets/internal/world"
)

// Server serves the farm state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; enables snapshots and stored history
	Seed     int64           // Saved with snapshots
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	RelayKey string // Bearer token for the stream. Empty = open stream.

	Hub *Hub

	http *http.Server
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.Hub == nil {
		s.Hub = NewHub(maxStreamConns)
	}
	interventionLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/pets", s.handlePets)
	mux.HandleFunc("/api/v1/pet/", s.handlePet)
	mux.HandleFunc("/api/v1/conversations", s.handleConversations)
	mux.HandleFunc("/api/v1/reactions", s.handleReactions)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/map", s.handleMap)

	// WebSocket stream of snapshots and events.
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/intervention", s.adminOnly(RateLimitMiddleware(interventionLimiter, s.handleIntervention)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.http = &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Close stops the listener and drops every stream subscriber.
func (s *Server) Close() error {
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.http == nil {
		return nil
	}
	return s.http.Close()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerMatches(r *http.Request, key string) bool {
	auth := r.Header.Get("Authorization")
	return key != "" && strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == key
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no PETSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !bearerMatches(r, s.AdminKey) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	tick := s.Sim.CurrentTick()
	stats := s.Sim.CurrentStats()
	writeJSON(w, map[string]any{
		"name":        "Etherpets",
		"tick":        tick,
		"sim_time":    engine.SimTime(tick),
		"speed":       s.Eng.Speed(),
		"running":     s.Eng.Running(),
		"pets":        stats.Pets,
		"conversing":  stats.Conversing,
		"pairs":       stats.Pairs,
		"subscribers": s.Hub.Len(),
	})
}

func (s *Server) handlePets(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	pets := snap.Pets

	// Optional phase filter: ready, active, cooldown.
	if phase := r.URL.Query().Get("phase"); phase != "" {
		filtered := make([]engine.PetView, 0, len(pets))
		for _, p := range pets {
			if p.Phase == phase {
				filtered = append(filtered, p)
			}
		}
		pets = filtered
	}
	writeJSON(w, pets)
}

func (s *Server) handlePet(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/pet/"), "/")
	if id == "" {
		http.Error(w, "pet id required", http.StatusBadRequest)
		return
	}
	pet, ok := s.Sim.Pet(id)
	if !ok {
		http.Error(w, "pet not found", http.StatusNotFound)
		return
	}
	writeJSON(w, pet)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Pairs())
}

func (s *Server) handleReactions(w http.ResponseWriter, r *http.Request) {
	records, pending := s.Sim.ReactionState()
	markers := s.Sim.Snapshot().Markers
	writeJSON(w, map[string]any{
		"records": records,
		"markers": markers,
		"pending": pending,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	// source=db reads the persisted history, newest first.
	if r.URL.Query().Get("source") == "db" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		events, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("event history query failed", "error", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
		return
	}

	events := s.Sim.RecentEvents(0)
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.CurrentStats())
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	m := s.Sim.Map
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, m.Render())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveWorldState(s.Sim, s.Seed); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.Sim.CurrentTick(),
		"message": "snapshot saved",
	})
}

func (s *Server) handleIntervention(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Type        string  `json:"type"`
		Description string  `json:"description,omitempty"`
		Category    string  `json:"category,omitempty"`
		Pet         string  `json:"pet,omitempty"`
		Emotion     string  `json:"emotion,omitempty"`
		X           float64 `json:"x,omitempty"`
		Y           float64 `json:"y,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	switch req.Type {
	case "event":
		if req.Description == "" {
			http.Error(w, "description required for event type", http.StatusBadRequest)
			return
		}
		cat := req.Category
		if cat == "" {
			cat = "intervention"
		}
		s.Sim.EmitEvent(engine.Event{
			Tick:        s.Sim.CurrentTick(),
			Description: req.Description,
			Category:    cat,
		})
		writeJSON(w, map[string]any{"success": true, "details": "event injected"})

	case "reaction":
		if req.Pet == "" || req.Emotion == "" {
			http.Error(w, "pet and emotion required for reaction type", http.StatusBadRequest)
			return
		}
		kind, ok := agents.ParseEmotion(req.Emotion)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown emotion %q", req.Emotion), http.StatusBadRequest)
			return
		}
		desc, err := s.Sim.QueueReaction(req.Pet, kind)
		if err != nil {
			interventionError(w, err)
			return
		}
		writeJSON(w, map[string]any{"success": true, "details": desc})

	case "move":
		if req.Pet == "" {
			http.Error(w, "pet required for move type", http.StatusBadRequest)
			return
		}
		desc, err := s.Sim.MovePet(req.Pet, world.V(req.X, req.Y))
		if err != nil {
			interventionError(w, err)
			return
		}
		writeJSON(w, map[string]any{"success": true, "details": desc})

	default:
		http.Error(w, "unknown intervention type (use: event, reaction, move)", http.StatusBadRequest)
	}
}

func interventionError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrUnknownPet) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusConflict)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
