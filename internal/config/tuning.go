// Package config loads the simulation tuning file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/emote"
	"github.com/talgya/etherpets/internal/engine"
	"github.com/talgya/etherpets/internal/social"
	"github.com/talgya/etherpets/internal/world"
)

// ErrInvalidTuning is returned when a tuning file holds impossible values.
var ErrInvalidTuning = errors.New("invalid tuning")

type Tuning struct {
	TileSize float64 `yaml:"tile_size"`

	Conversation Conversation `yaml:"conversation"`
	Roaming      Roaming      `yaml:"roaming"`
	Emote        Emote        `yaml:"emote"`
	Farm         Farm         `yaml:"farm"`
}

type Conversation struct {
	ProximityThreshold  float64 `yaml:"proximity_threshold"`
	MinDistance         float64 `yaml:"min_distance"`
	Duration            float64 `yaml:"duration"`
	Cooldown            float64 `yaml:"cooldown"`
	ResponderSideOffset float64 `yaml:"responder_side_offset"`
}

type Roaming struct {
	RoamMax      float64 `yaml:"roam_max"`
	IdleMax      float64 `yaml:"idle_max"`
	EatMax       float64 `yaml:"eat_max"`
	EmoteMax     float64 `yaml:"emote_max"`
	HoldChance   float64 `yaml:"hold_chance"`
	EatChance    float64 `yaml:"eat_chance"`
	EmoteChance  float64 `yaml:"emote_chance"`
	BumpDistance float64 `yaml:"bump_distance"`
}

type Emote struct {
	OffsetY              float64 `yaml:"offset_y"`
	LifetimeFactor       float64 `yaml:"lifetime_factor"`
	MarkerLifetimeFactor float64 `yaml:"marker_lifetime_factor"`
}

type Farm struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	MeadowR     int     `yaml:"meadow_radius"`
	SpawnStride int     `yaml:"spawn_stride"`
	PondLevel   float64 `yaml:"pond_level"`
	TreeLevel   float64 `yaml:"tree_level"`
	FieldLevel  float64 `yaml:"field_level"`
	SpawnLayer  float64 `yaml:"spawn_layer"`
}

// Default returns the stock tuning.
func Default() Tuning {
	gen := world.DefaultGenConfig()
	return Tuning{
		TileSize: 16,
		Conversation: Conversation{
			ProximityThreshold:  15,
			MinDistance:         10,
			Duration:            10,
			Cooldown:            15,
			ResponderSideOffset: 12,
		},
		Roaming: Roaming{
			RoamMax:     5,
			IdleMax:     2,
			EatMax:      3,
			EmoteMax:    3,
			HoldChance:  0.3,
			EatChance:   0.05,
			EmoteChance: 0.02,
		},
		Emote: Emote{
			OffsetY:              17.5,
			LifetimeFactor:       0.5,
			MarkerLifetimeFactor: 0.9,
		},
		Farm: Farm{
			Width:       gen.Width,
			Height:      gen.Height,
			MeadowR:     gen.MeadowR,
			SpawnStride: gen.SpawnStride,
			PondLevel:   gen.PondLevel,
			TreeLevel:   gen.TreeLevel,
			FieldLevel:  gen.FieldLevel,
			SpawnLayer:  900,
		},
	}
}

// Load reads a tuning file over the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate rejects values the systems cannot run with.
func (t Tuning) Validate() error {
	c := t.Conversation
	r := t.Roaming
	switch {
	case t.TileSize <= 0:
		return fmt.Errorf("%w: tile_size must be positive", ErrInvalidTuning)
	case c.MinDistance < 0 || c.ProximityThreshold <= c.MinDistance:
		return fmt.Errorf("%w: need 0 <= min_distance < proximity_threshold", ErrInvalidTuning)
	case c.Duration <= 0 || c.Cooldown < 0:
		return fmt.Errorf("%w: conversation duration must be positive and cooldown non-negative", ErrInvalidTuning)
	case r.RoamMax <= 0 || r.IdleMax < 0 || r.EatMax < 0 || r.EmoteMax < 0:
		return fmt.Errorf("%w: roaming limits must be non-negative and roam_max positive", ErrInvalidTuning)
	case !isChance(r.HoldChance) || !isChance(r.EatChance) || !isChance(r.EmoteChance):
		return fmt.Errorf("%w: chances must lie in [0, 1]", ErrInvalidTuning)
	case r.EatChance+r.EmoteChance > 1:
		return fmt.Errorf("%w: eat_chance + emote_chance exceeds 1", ErrInvalidTuning)
	case t.Emote.LifetimeFactor <= 0 || t.Emote.MarkerLifetimeFactor <= 0:
		return fmt.Errorf("%w: emote lifetimes must be positive", ErrInvalidTuning)
	case t.Farm.Width < 3 || t.Farm.Height < 3:
		return fmt.Errorf("%w: farm must be at least 3x3 tiles", ErrInvalidTuning)
	}
	return nil
}

func isChance(p float64) bool {
	return p >= 0 && p <= 1
}

// Options builds the per-system tunables for the simulation.
func (t Tuning) Options() engine.Options {
	c := t.Conversation
	return engine.Options{
		Roam: agents.RoamParams{
			TileSize:    t.TileSize,
			HoldChance:  t.Roaming.HoldChance,
			EatChance:   t.Roaming.EatChance,
			EmoteChance: t.Roaming.EmoteChance,
		},
		Social: social.Config{
			ProximityThreshold:  c.ProximityThreshold,
			MinDistance:         c.MinDistance,
			ResponderSideOffset: c.ResponderSideOffset,
			PathStep:            t.TileSize / 4,
		},
		Emote: emote.Config{
			Offset:             world.V(0, t.Emote.OffsetY),
			Lifetime:           c.Duration * t.Emote.LifetimeFactor,
			MarkerLifetime:     c.Duration * t.Emote.MarkerLifetimeFactor,
			ProximityThreshold: c.ProximityThreshold,
		},
		BumpDistance: t.Roaming.BumpDistance,
	}
}

// Spawn builds the spawner settings.
func (t Tuning) Spawn() agents.SpawnConfig {
	return agents.SpawnConfig{
		ConversationDuration: t.Conversation.Duration,
		CooldownDuration:     t.Conversation.Cooldown,
		Limits: agents.RoamLimits{
			Roam:  t.Roaming.RoamMax,
			Idle:  t.Roaming.IdleMax,
			Eat:   t.Roaming.EatMax,
			Emote: t.Roaming.EmoteMax,
		},
	}
}

// Gen builds the farm generator settings for a seed.
func (t Tuning) Gen(seed int64) world.GenConfig {
	return world.GenConfig{
		Width:       t.Farm.Width,
		Height:      t.Farm.Height,
		TileSize:    t.TileSize,
		Seed:        seed,
		PondLevel:   t.Farm.PondLevel,
		TreeLevel:   t.Farm.TreeLevel,
		FieldLevel:  t.Farm.FieldLevel,
		MeadowR:     t.Farm.MeadowR,
		SpawnStride: t.Farm.SpawnStride,
	}
}
