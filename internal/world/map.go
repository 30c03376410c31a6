package world

import (
	"fmt"
	"math"
)

// probeFraction is the size of the box tested against obstacle tiles, as a
// fraction of the tile size.
const probeFraction = 0.01

// Obstacles answers whether a world position overlaps static geometry.
type Obstacles interface {
	IsBlocked(pos Vec3) bool
}

// Map holds the tile grid. Tile (col, row) is centered at
// (col*TileSize - W/2, -row*TileSize + H/2) where W and H are the map
// extents in world units.
type Map struct {
	Width    int     `json:"width"`  // Columns
	Height   int     `json:"height"` // Rows
	TileSize float64 `json:"tile_size"`

	Tiles  []Terrain   `json:"-"` // Row-major terrain
	Spawns []TileCoord `json:"-"` // Spawn cells in row-major order

	blocked   []bool
	obstacles int
}

// NewMap creates an all-grass map.
func NewMap(width, height int, tileSize float64) *Map {
	return &Map{
		Width:    width,
		Height:   height,
		TileSize: tileSize,
		Tiles:    make([]Terrain, width*height),
		blocked:  make([]bool, width*height),
	}
}

// InBounds returns true if the coordinate addresses a tile of the map.
func (m *Map) InBounds(c TileCoord) bool {
	return c.Col >= 0 && c.Row >= 0 && c.Col < m.Width && c.Row < m.Height
}

func (m *Map) index(c TileCoord) int {
	return c.Row*m.Width + c.Col
}

// Get returns the terrain at c; out-of-bounds coordinates report a wall.
func (m *Map) Get(c TileCoord) Terrain {
	if !m.InBounds(c) {
		return TerrainWall
	}
	return m.Tiles[m.index(c)]
}

// Set places terrain at c and updates the obstacle set.
func (m *Map) Set(c TileCoord, t Terrain) {
	if !m.InBounds(c) {
		return
	}
	i := m.index(c)
	m.Tiles[i] = t
	m.setBlocked(i, !t.Passable())
}

// Block marks a tile as an obstacle without changing its terrain class.
func (m *Map) Block(c TileCoord) {
	if !m.InBounds(c) {
		return
	}
	i := m.index(c)
	if m.Tiles[i].Passable() {
		m.Tiles[i] = TerrainWall
	}
	m.setBlocked(i, true)
}

func (m *Map) setBlocked(i int, b bool) {
	if m.blocked[i] == b {
		return
	}
	m.blocked[i] = b
	if b {
		m.obstacles++
	} else {
		m.obstacles--
	}
}

// TileBlocked reports whether the tile at c is an obstacle.
func (m *Map) TileBlocked(c TileCoord) bool {
	if !m.InBounds(c) {
		return true
	}
	return m.blocked[m.index(c)]
}

// ObstacleCount is the number of blocked tiles.
func (m *Map) ObstacleCount() int {
	return m.obstacles
}

func (m *Map) halfExtents() (float64, float64) {
	return float64(m.Width) * m.TileSize / 2, float64(m.Height) * m.TileSize / 2
}

// Center returns the world position of a tile center on the given layer.
func (m *Map) Center(c TileCoord, layer float64) Vec3 {
	hw, hh := m.halfExtents()
	return Vec3{
		X: float64(c.Col)*m.TileSize - hw,
		Y: -float64(c.Row)*m.TileSize + hh,
		Z: layer,
	}
}

// CoordOf returns the tile whose box contains pos.
func (m *Map) CoordOf(pos Vec3) TileCoord {
	hw, hh := m.halfExtents()
	return TileCoord{
		Col: int(math.Round((pos.X + hw) / m.TileSize)),
		Row: int(math.Round((hh - pos.Y) / m.TileSize)),
	}
}

// IsBlocked reports whether a small probe box at pos overlaps an obstacle
// tile. Positions outside the map are blocked, which keeps pets inside the
// farm.
func (m *Map) IsBlocked(pos Vec3) bool {
	if !m.InBounds(m.CoordOf(pos)) {
		return true
	}

	hw, hh := m.halfExtents()
	reach := (m.TileSize + m.TileSize*probeFraction) / 2

	col := (pos.X + hw) / m.TileSize
	row := (hh - pos.Y) / m.TileSize
	c0, r0 := int(math.Floor(col)), int(math.Floor(row))

	for r := r0; r <= r0+1; r++ {
		for c := c0; c <= c0+1; c++ {
			tc := TileCoord{Col: c, Row: r}
			if !m.InBounds(tc) || !m.blocked[m.index(tc)] {
				continue
			}
			center := m.Center(tc, 0)
			if math.Abs(pos.X-center.X) < reach && math.Abs(pos.Y-center.Y) < reach {
				return true
			}
		}
	}
	return false
}

// SpawnPositions converts the spawn cells to world positions on a layer.
func (m *Map) SpawnPositions(layer float64) []Vec3 {
	out := make([]Vec3, 0, len(m.Spawns))
	for _, c := range m.Spawns {
		out = append(out, m.Center(c, layer))
	}
	return out
}

// PathClear samples the straight segment from one position to another every
// step units (and at the end point) and reports whether none of the samples
// is blocked.
func PathClear(obs Obstacles, from, to Vec3, step float64) bool {
	d := to.Sub(from)
	length := d.Len()
	if step <= 0 || length == 0 {
		return !obs.IsBlocked(to)
	}
	n := int(math.Ceil(length / step))
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		if obs.IsBlocked(from.Add(d.Scale(t))) {
			return false
		}
	}
	return true
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range m.Tiles {
		counts[t]++
	}
	return counts
}

// Render draws the map as text, one row per line.
func (m *Map) Render() string {
	buf := make([]rune, 0, (m.Width+1)*m.Height)
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			buf = append(buf, m.Tiles[r*m.Width+c].Glyph())
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, tile=%.0f, obstacles=%d, spawns=%d)",
		m.Width, m.Height, m.TileSize, m.obstacles, len(m.Spawns))
}
