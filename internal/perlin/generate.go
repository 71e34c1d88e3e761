package perlin

import (
	"fmt"
	"log/slog"
)

// Defaults match the parameters the world builder uses.
const (
	DefaultOctaves     = 9
	DefaultMinGridSize = 3
	DefaultSeed        = 0
)

// Params selects the size and octave structure of a map.
type Params struct {
	Height      int
	Width       int
	Octaves     int
	MinGridSize int
}

// DefaultParams returns params for a height x width map with default octaves.
func DefaultParams(height, width int) Params {
	return Params{
		Height:      height,
		Width:       width,
		Octaves:     DefaultOctaves,
		MinGridSize: DefaultMinGridSize,
	}
}

// Validate checks that all parameters are positive and that every derived
// lattice has at least one interior cell.
func (p Params) Validate() error {
	if p.Height <= 0 {
		return invalidf("height must be positive, got %d", p.Height)
	}
	if p.Width <= 0 {
		return invalidf("width must be positive, got %d", p.Width)
	}
	if p.Octaves <= 0 {
		return invalidf("octave count must be positive, got %d", p.Octaves)
	}
	if p.MinGridSize <= 0 {
		return invalidf("min grid size must be positive, got %d", p.MinGridSize)
	}
	for _, size := range p.GridSizes() {
		if size < 2 {
			return invalidf("grid size %d has no interior cell (min grid size %d, map %dx%d)",
				size, p.MinGridSize, p.Width, p.Height)
		}
	}
	return nil
}

// GridSizes returns the lattice size of every octave.
func (p Params) GridSizes() []int {
	return GridSizes(p.Octaves, p.MinGridSize, max(p.Height, p.Width))
}

// Options tune how a map is computed without changing its parameters.
type Options struct {
	Logger  *slog.Logger
	Seed    int64
	Workers int
}

// Result is a normalized map plus the contributions it was summed from.
type Result struct {
	Map     *Field
	Raw     *Field
	Octaves []Octave
}

// Generate computes a normalized gradient-noise map. The random stream is
// seeded once per call from opts.Seed.
func Generate(p Params, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sizes := p.GridSizes()
	combiner := NewCombiner(NewSource(opts.Seed), opts.Workers)
	raw, octaves, err := combiner.Combine(p.Height, p.Width, sizes)
	if err != nil {
		return nil, fmt.Errorf("failed to combine octaves: %w", err)
	}
	for _, o := range octaves {
		logger.Debug("Sampled octave", "grid_size", o.GridSize, "weight", o.Weight)
	}

	scaled, err := Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %dx%d map: %w", p.Width, p.Height, err)
	}

	logger.Info("Created perlin noise map",
		"width", p.Width,
		"height", p.Height,
		"octaves", p.Octaves,
		"min_grid_size", p.MinGridSize,
		"seed", opts.Seed,
	)
	return &Result{Map: scaled, Raw: raw, Octaves: octaves}, nil
}

// NoiseMap is Generate without the per-octave contributions.
func NoiseMap(p Params, opts Options) (*Field, error) {
	res, err := Generate(p, opts)
	if err != nil {
		return nil, err
	}
	return res.Map, nil
}
