package world

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadGrid(t *testing.T) {
	g, err := ReadGrid(strings.NewReader("-1,-1,5\n3, -1,-1\n"))
	require.NoError(t, err)

	w, h := g.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, 3, g[1][0])
}

func TestReadGridErrors(t *testing.T) {
	_, err := ReadGrid(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyGrid)

	_, err = ReadGrid(strings.NewReader("1,a\n"))
	assert.Error(t, err)

	_, err = ReadGrid(strings.NewReader("1,2\n3\n"))
	assert.Error(t, err, "ragged rows are rejected")
}

func TestSpawnPointsRowMajor(t *testing.T) {
	g := Grid{
		{-1, -1, 5},
		{3, -1, -1},
	}
	pts := SpawnPoints(g, 16, 900)
	require.Len(t, pts, 2)
	assert.Equal(t, Vec3{X: 8, Y: 16, Z: 900}, pts[0])
	assert.Equal(t, Vec3{X: -24, Y: 0, Z: 900}, pts[1])
}

func TestLoadSpawnPoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spawns.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,-1\n-1,0\n"), 0o644))

	pts, err := LoadSpawnPoints(path, 16, 0)
	require.NoError(t, err)
	assert.Len(t, pts, 2)

	_, err = LoadSpawnPoints(filepath.Join(dir, "missing.csv"), 16, 0)
	assert.Error(t, err)
}

func TestMapFromGrid(t *testing.T) {
	g := Grid{
		{1, 7, 1},
		{-1, 1, 9},
	}
	m := MapFromGrid(g, []int{7, 9}, 16)
	assert.Equal(t, 3, m.Width)
	assert.Equal(t, 2, m.Height)
	assert.Equal(t, 2, m.ObstacleCount())
	assert.True(t, m.TileBlocked(TileCoord{Col: 1, Row: 0}))
	assert.True(t, m.TileBlocked(TileCoord{Col: 2, Row: 1}))
	assert.False(t, m.TileBlocked(TileCoord{Col: 0, Row: 0}))
}
