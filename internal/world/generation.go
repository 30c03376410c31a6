// Farm generation using layered simplex noise. Produces ponds, scattered
// trees and tilled fields inside a fenced border, plus a central meadow that
// holds the spawn cells.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds farm generation parameters.
type GenConfig struct {
	Width    int     // Columns
	Height   int     // Rows
	TileSize float64 // World units per tile
	Seed     int64   // Random seed (0 = random)

	PondLevel   float64 // Noise threshold above which water forms (0.0-1.0)
	TreeLevel   float64 // Detail-noise threshold above which a tree stands
	FieldLevel  float64 // Noise threshold for tilled soil
	MeadowR     int     // Radius in tiles of the obstacle-free central meadow
	SpawnStride int     // Spacing in tiles between spawn cells
}

// DefaultGenConfig returns a farm that fits one screen at the default tile size.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       48,
		Height:      30,
		TileSize:    16,
		PondLevel:   0.72,
		TreeLevel:   0.80,
		FieldLevel:  0.60,
		MeadowR:     6,
		SpawnStride: 2,
	}
}

// SmallTestConfig returns a tiny farm for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:       16,
		Height:      12,
		TileSize:    16,
		Seed:        42,
		PondLevel:   0.75,
		TreeLevel:   0.85,
		FieldLevel:  0.65,
		MeadowR:     3,
		SpawnStride: 2,
	}
}

// Generate creates a farm map with terrain, obstacles and spawn cells.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.SpawnStride < 1 {
		cfg.SpawnStride = 1
	}

	pondNoise := opensimplex.NewNormalized(seed)
	treeNoise := opensimplex.NewNormalized(seed + 1)
	fieldNoise := opensimplex.NewNormalized(seed + 2)

	m := NewMap(cfg.Width, cfg.Height, cfg.TileSize)
	cx, cy := float64(cfg.Width-1)/2, float64(cfg.Height-1)/2

	for row := 0; row < cfg.Height; row++ {
		for col := 0; col < cfg.Width; col++ {
			c := TileCoord{Col: col, Row: row}
			x, y := float64(col), float64(row)

			if col == 0 || row == 0 || col == cfg.Width-1 || row == cfg.Height-1 {
				m.Set(c, TerrainFence)
				continue
			}

			if math.Hypot(x-cx, y-cy) <= float64(cfg.MeadowR) {
				m.Set(c, TerrainGrass)
				continue
			}

			pond := octaveNoise(pondNoise, x, y, 3, 0.09, 0.5)
			field := octaveNoise(fieldNoise, x, y, 2, 0.12, 0.5)
			tree := treeNoise.Eval2(x*0.9, y*0.9)

			switch {
			case pond > cfg.PondLevel:
				m.Set(c, TerrainWater)
			case tree > cfg.TreeLevel:
				m.Set(c, TerrainTree)
			case field > cfg.FieldLevel:
				m.Set(c, TerrainSoil)
			default:
				m.Set(c, TerrainGrass)
			}
		}
	}

	placeSpawns(m, cfg)
	return m
}

// placeSpawns marks every stride-th passable meadow tile as a spawn cell, in
// row-major order.
func placeSpawns(m *Map, cfg GenConfig) {
	cx, cy := float64(cfg.Width-1)/2, float64(cfg.Height-1)/2
	for row := 0; row < cfg.Height; row += cfg.SpawnStride {
		for col := 0; col < cfg.Width; col += cfg.SpawnStride {
			c := TileCoord{Col: col, Row: row}
			if m.TileBlocked(c) {
				continue
			}
			if math.Hypot(float64(col)-cx, float64(row)-cy) > float64(cfg.MeadowR) {
				continue
			}
			m.Spawns = append(m.Spawns, c)
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
