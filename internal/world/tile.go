// Package world provides the tile grid the pets live on, the obstacle query
// used by movement, and loaders for spawn and collision layers.
package world

// TileCoord addresses a tile by column and row. Row 0 is the top of the map.
type TileCoord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Terrain types for farm tiles.
type Terrain uint8

const (
	TerrainGrass Terrain = iota // Open ground
	TerrainSoil                 // Tilled field, walkable
	TerrainWater                // Pond
	TerrainTree                 // Tree trunk
	TerrainFence                // Border fence
	TerrainWall                 // Generic blocker from a collision layer
)

// Passable reports whether pets may stand on the terrain.
func (t Terrain) Passable() bool {
	switch t {
	case TerrainGrass, TerrainSoil:
		return true
	default:
		return false
	}
}

// Glyph is the single rune used when printing a map.
func (t Terrain) Glyph() rune {
	switch t {
	case TerrainGrass:
		return '.'
	case TerrainSoil:
		return ':'
	case TerrainWater:
		return '~'
	case TerrainTree:
		return 'T'
	case TerrainFence:
		return '#'
	default:
		return 'X'
	}
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainGrass:
		return "Grass"
	case TerrainSoil:
		return "Soil"
	case TerrainWater:
		return "Water"
	case TerrainTree:
		return "Tree"
	case TerrainFence:
		return "Fence"
	case TerrainWall:
		return "Wall"
	default:
		return "Unknown"
	}
}
