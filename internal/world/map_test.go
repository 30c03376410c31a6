package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeByThree() *Map {
	m := NewMap(3, 3, 16)
	m.Set(TileCoord{Col: 1, Row: 1}, TerrainTree)
	return m
}

func TestMapCenterAndCoordOf(t *testing.T) {
	m := threeByThree()

	assert.Equal(t, Vec3{X: -24, Y: 24, Z: 5}, m.Center(TileCoord{}, 5))
	assert.Equal(t, Vec3{X: -8, Y: 8}, m.Center(TileCoord{Col: 1, Row: 1}, 0))
	assert.Equal(t, TileCoord{Col: 2, Row: 0}, m.CoordOf(V(9, 20)))
}

func TestMapIsBlocked(t *testing.T) {
	m := threeByThree()
	require.Equal(t, 1, m.ObstacleCount())

	tests := []struct {
		name string
		pos  Vec3
		want bool
	}{
		{"obstacle center", V(-8, 8), true},
		{"free tile center", V(-24, 24), false},
		{"probe overlaps obstacle edge", V(0, 8), true},
		{"just clear of obstacle", V(0.1, 8), false},
		{"outside map", V(100, 0), true},
		{"far below map", V(-8, -80), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, m.IsBlocked(tc.pos))
		})
	}
}

func TestMapSetUpdatesObstacleCount(t *testing.T) {
	m := threeByThree()
	m.Set(TileCoord{Col: 1, Row: 1}, TerrainGrass)
	assert.Equal(t, 0, m.ObstacleCount())
	assert.False(t, m.IsBlocked(V(-8, 8)))

	m.Block(TileCoord{Col: 0, Row: 0})
	m.Block(TileCoord{Col: 0, Row: 0})
	assert.Equal(t, 1, m.ObstacleCount())
	assert.Equal(t, TerrainWall, m.Get(TileCoord{}))
}

func TestPathClear(t *testing.T) {
	m := threeByThree()

	assert.False(t, PathClear(m, V(-24, 8), V(8, 8), 4), "segment crosses the tree")
	assert.True(t, PathClear(m, V(-24, 24), V(8, 24), 4), "top row is open")
	assert.False(t, PathClear(m, V(-24, 24), V(-8, 8), 4), "target itself is blocked")
	assert.True(t, PathClear(m, V(8, -8), V(8, -8), 4))
}

func TestRender(t *testing.T) {
	m := threeByThree()
	assert.Equal(t, "...\n.T.\n...\n", m.Render())
}
