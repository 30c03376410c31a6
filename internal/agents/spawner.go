// Pet spawning: places roster entries on the farm's spawn points.
package agents

import (
	"log/slog"

	"github.com/talgya/etherpets/internal/world"
)

// SpawnConfig controls how fresh pets are initialized.
type SpawnConfig struct {
	ConversationDuration float64
	CooldownDuration     float64
	Limits               RoamLimits
}

// DefaultSpawnConfig returns the stock timings.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		ConversationDuration: 10,
		CooldownDuration:     15,
		Limits:               RoamLimits{Roam: 5, Idle: 2, Eat: 3, Emote: 3},
	}
}

// Spawner creates pets for the simulation.
type Spawner struct {
	cfg SpawnConfig
}

// NewSpawner creates a pet spawner.
func NewSpawner(cfg SpawnConfig) *Spawner {
	return &Spawner{cfg: cfg}
}

// NewAgent builds one pet from a roster entry at pos, ready to interact and
// about to pick its first roaming direction.
func (s *Spawner) NewAgent(seed Seed, pos world.Vec3) *Agent {
	return &Agent{
		ID:          seed.ID,
		Name:        seed.Name,
		BaseAttack:  seed.BaseAttack,
		Speed:       seed.BaseSpeed,
		Disposition: seed.Disposition,
		Position:    pos,
		Facing:      FacingDown,
		Action:      ActionIdle,
		Roaming:     NewRoaming(s.cfg.Limits),
		Timers:      NewInteractionTimers(s.cfg.ConversationDuration, s.cfg.CooldownDuration),
	}
}

// Spawn pairs roster entries with spawn points in order. Extra entries or
// extra points are left unused.
func (s *Spawner) Spawn(roster []Seed, points []world.Vec3) []*Agent {
	n := min(len(roster), len(points))
	if len(roster) > len(points) {
		slog.Warn("not enough spawn points for roster", "pets", len(roster), "points", len(points))
	}

	pets := make([]*Agent, 0, n)
	for i := 0; i < n; i++ {
		pets = append(pets, s.NewAgent(roster[i], points[i]))
	}
	return pets
}
