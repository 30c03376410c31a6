// Package entropy seeds the simulation's random sources. A fixed seed gives a
// reproducible farm; seed 0 draws a fresh one from random.org when a key is
// configured, or from crypto/rand otherwise.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	mrand "math/rand"
	"net/http"
	"time"
)

// DefaultEndpoint is the random.org JSON-RPC endpoint.
const DefaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// maxSeed is the largest integer random.org will generate.
const maxSeed = 1_000_000_000

// Client draws farm seeds from random.org.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// WithEndpoint points the client at another JSON-RPC server.
func (c *Client) WithEndpoint(url string) *Client {
	if c != nil {
		c.endpoint = url
	}
	return c
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Draw asks random.org for a single seed in [1, 1e9].
func (c *Client) Draw(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, errors.New("random.org client not configured")
	}

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      1,
			"min":    1,
			"max":    maxSeed,
		},
		"id": 1,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("random.org: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("random.org: decode: %w", err)
	}
	if result.Error != nil {
		return 0, fmt.Errorf("random.org: %s", result.Error.Message)
	}
	data := result.Result.Random.Data
	if len(data) == 0 || data[0] == 0 {
		return 0, errors.New("random.org: empty result")
	}
	return data[0], nil
}

// Seed returns seed unchanged unless it is zero, in which case a non-zero
// seed is drawn from c, or from crypto/rand when c is nil or the call fails.
func Seed(ctx context.Context, seed int64, c *Client) int64 {
	if seed != 0 {
		return seed
	}
	if c.Enabled() {
		s, err := c.Draw(ctx)
		if err == nil {
			slog.Info("seed drawn from random.org", "seed", s)
			return s
		}
		slog.Warn("random.org seed failed, using crypto/rand", "error", err)
	}
	for seed == 0 {
		seed = cryptoSeed()
	}
	return seed
}

// NewRand returns a pseudo-random source for the simulation, plus the seed it
// was built from so a run can be replayed.
func NewRand(ctx context.Context, seed int64, c *Client) (*mrand.Rand, int64) {
	seed = Seed(ctx, seed, c)
	return mrand.New(mrand.NewSource(seed)), seed
}

func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 11)
}
