// Package world turns a normalized height map into a grid of tiles.
package world

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/webworld/internal/perlin"
)

var (
	// ErrUnknownQuantity indicates a Quantity without a tile accessor.
	ErrUnknownQuantity = errors.New("world: unknown quantity")
	// ErrWaterLevel indicates a water level outside the open height range of the world.
	ErrWaterLevel = errors.New("world: water level must lie strictly between min and max height")
	// ErrEmptyWorld indicates a height map without cells.
	ErrEmptyWorld = errors.New("world: height map is empty")
)

// Quantity selects a per-tile value.
type Quantity int

const (
	Height Quantity = iota
	Food
)

func (q Quantity) String() string {
	switch q {
	case Height:
		return "height"
	case Food:
		return "food"
	default:
		return fmt.Sprintf("quantity(%d)", int(q))
	}
}

// Tile is one cell of the world.
type Tile struct {
	Height float64
	Food   float64
}

// World is a rectangular grid of tiles, indexed [row][column].
type World struct {
	Tiles      [][]Tile
	WaterLevel float64
}

// FromHeightMap creates one tile per cell. Food starts equal to height.
func FromHeightMap(heights *perlin.Field, waterLevel float64) (*World, error) {
	if heights == nil || heights.Width == 0 || heights.Height == 0 {
		return nil, ErrEmptyWorld
	}
	tiles := make([][]Tile, heights.Height)
	for y := range tiles {
		tiles[y] = make([]Tile, heights.Width)
		for x := range tiles[y] {
			h := heights.At(x, y)
			tiles[y][x] = Tile{Height: h, Food: h}
		}
	}
	return &World{Tiles: tiles, WaterLevel: waterLevel}, nil
}

// FromShape generates a default height map of the given size and builds a world from it.
func FromShape(height, width int, waterLevel float64, opts perlin.Options) (*World, error) {
	heights, err := perlin.NoiseMap(perlin.DefaultParams(height, width), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate height map: %w", err)
	}
	return FromHeightMap(heights, waterLevel)
}

// Rows returns the number of tile rows.
func (w *World) Rows() int { return len(w.Tiles) }

// Cols returns the number of tile columns.
func (w *World) Cols() int {
	if len(w.Tiles) == 0 {
		return 0
	}
	return len(w.Tiles[0])
}

// Map extracts one quantity of every tile into a field.
func (w *World) Map(q Quantity) (*perlin.Field, error) {
	var get func(Tile) float64
	switch q {
	case Height:
		get = func(t Tile) float64 { return t.Height }
	case Food:
		get = func(t Tile) float64 { return t.Food }
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuantity, q)
	}

	f := perlin.NewField(w.Cols(), w.Rows())
	for y, row := range w.Tiles {
		for x, t := range row {
			f.Set(x, y, get(t))
		}
	}
	return f, nil
}

// LandFraction returns the share of tiles above the water level.
func (w *World) LandFraction() float64 {
	total, land := 0, 0
	for _, row := range w.Tiles {
		for _, t := range row {
			total++
			if t.Height > w.WaterLevel {
				land++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(land) / float64(total)
}
