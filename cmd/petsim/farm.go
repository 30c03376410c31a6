package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/config"
	"github.com/talgya/etherpets/internal/world"
)

// loadTuning returns the stock tuning or the file named by --tuning.
func loadTuning(v *viper.Viper) (config.Tuning, error) {
	path := v.GetString("tuning")
	if path == "" {
		return config.Default(), nil
	}
	t, err := config.Load(path)
	if err != nil {
		return t, fmt.Errorf("load tuning: %w", err)
	}
	slog.Info("tuning loaded", "path", path)
	return t, nil
}

// loadRoster returns the built-in roster or the file named by --roster.
func loadRoster(v *viper.Viper) ([]agents.Seed, error) {
	path := v.GetString("roster")
	if path == "" {
		return agents.DefaultRoster(), nil
	}
	roster, err := agents.LoadRoster(path)
	if err != nil {
		return nil, err
	}
	slog.Info("roster loaded", "path", path, "pets", len(roster))
	return roster, nil
}

// loadFarm builds the obstacle map and spawn points. A collision CSV from the
// map editor takes precedence over the generated farm.
func loadFarm(v *viper.Viper, t config.Tuning, seed int64) (*world.Map, []world.Vec3, error) {
	layer := t.Farm.SpawnLayer

	if path := v.GetString("map-csv"); path != "" {
		m, err := world.LoadCollisionLayer(path, v.GetIntSlice("collision"), t.TileSize)
		if err != nil {
			return nil, nil, err
		}
		points := m.SpawnPositions(layer)
		if sp := v.GetString("spawn-csv"); sp != "" {
			if points, err = world.LoadSpawnPoints(sp, t.TileSize, layer); err != nil {
				return nil, nil, err
			}
		}
		slog.Info("farm loaded", "path", path, "map", m.String(), "spawn_points", len(points))
		return m, points, nil
	}

	m := world.Generate(t.Gen(seed))
	points := m.SpawnPositions(layer)
	for terrain, n := range world.TerrainCounts(m) {
		slog.Debug("terrain", "type", world.TerrainName(terrain), "count", n)
	}
	slog.Info("farm generated", "seed", seed, "map", m.String())
	return m, points, nil
}
