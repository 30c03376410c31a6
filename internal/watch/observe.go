// Package watch follows a running farm from the outside: it polls and streams
// the observation API, tracks conversations as they start and end, and sends
// admin interventions.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Status mirrors GET /api/v1/status.
type Status struct {
	Name        string  `json:"name"`
	Tick        uint64  `json:"tick"`
	SimTime     string  `json:"sim_time"`
	Speed       float64 `json:"speed"`
	Running     bool    `json:"running"`
	Pets        int     `json:"pets"`
	Conversing  int     `json:"conversing"`
	Pairs       int     `json:"pairs"`
	Subscribers int     `json:"subscribers"`
}

// PetInfo mirrors items from GET /api/v1/pets.
type PetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Disposition string `json:"disposition"`
	Phase       string `json:"phase"`
	Social      string `json:"social"`
	Partner     string `json:"partner,omitempty"`
	Position    struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
}

// Observer fetches farm state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status fetches the farm status.
func (o *Observer) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := o.fetchJSON(ctx, "/api/v1/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Pets fetches every pet.
func (o *Observer) Pets(ctx context.Context) ([]PetInfo, error) {
	var pets []PetInfo
	if err := o.fetchJSON(ctx, "/api/v1/pets", &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

// WaitReady polls the status endpoint with exponential backoff until it
// responds or maxWait passes.
func (o *Observer) WaitReady(ctx context.Context, maxWait time.Duration) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 15 * time.Second
	deadline := time.Now().Add(maxWait)

	for {
		if _, err := o.Status(ctx); err == nil {
			slog.Info("farm API is ready")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("farm API at %s did not become ready within %s", o.BaseURL, maxWait)
		}
		slog.Info("farm API not ready, retrying...", "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
