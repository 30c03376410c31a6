package world

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// NoTile is the cell value that marks an empty cell in a tile layer.
const NoTile = -1

// ErrEmptyGrid is returned when a layer file has no rows.
var ErrEmptyGrid = errors.New("empty tile grid")

// Grid is a tile-index layer exported from the map editor, row-major.
type Grid [][]int

// Size returns the column and row count of the grid.
func (g Grid) Size() (int, int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g[0]), len(g)
}

// ReadGrid parses a CSV tile layer. Every row must have the same width.
func ReadGrid(r io.Reader) (Grid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyGrid
	}

	grid := make(Grid, len(records))
	for y, rec := range records {
		row := make([]int, len(rec))
		for x, cell := range rec {
			v, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, fmt.Errorf("cell %d,%d: %w", x, y, err)
			}
			row[x] = v
		}
		grid[y] = row
	}
	return grid, nil
}

// LoadGrid reads a CSV tile layer from disk.
func LoadGrid(path string) (Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layer: %w", err)
	}
	defer f.Close()

	g, err := ReadGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// SpawnPoints converts every non-empty cell of a spawn layer into a world
// position, scanning rows top to bottom and columns left to right.
func SpawnPoints(g Grid, tileSize, layer float64) []Vec3 {
	w, h := g.Size()
	hw := float64(w) * tileSize / 2
	hh := float64(h) * tileSize / 2

	var out []Vec3
	for y, row := range g {
		for x, cell := range row {
			if cell == NoTile {
				continue
			}
			out = append(out, Vec3{
				X: float64(x)*tileSize - hw,
				Y: -float64(y)*tileSize + hh,
				Z: layer,
			})
		}
	}
	return out
}

// LoadSpawnPoints reads a spawn layer and returns its spawn positions.
// A missing or malformed file is returned as an error; the caller cannot
// place pets without it.
func LoadSpawnPoints(path string, tileSize, layer float64) ([]Vec3, error) {
	g, err := LoadGrid(path)
	if err != nil {
		return nil, err
	}
	return SpawnPoints(g, tileSize, layer), nil
}

// MapFromGrid builds a map the size of g whose obstacle tiles are the cells
// holding one of the collision indices.
func MapFromGrid(g Grid, collision []int, tileSize float64) *Map {
	w, h := g.Size()
	m := NewMap(w, h, tileSize)

	solid := make(map[int]bool, len(collision))
	for _, idx := range collision {
		solid[idx] = true
	}

	for y, row := range g {
		for x, cell := range row {
			if cell != NoTile && solid[cell] {
				m.Block(TileCoord{Col: x, Row: y})
			}
		}
	}
	return m
}

// LoadCollisionLayer reads a tile layer and builds the obstacle map from it.
func LoadCollisionLayer(path string, collision []int, tileSize float64) (*Map, error) {
	g, err := LoadGrid(path)
	if err != nil {
		return nil, err
	}
	return MapFromGrid(g, collision, tileSize), nil
}
