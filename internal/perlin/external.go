package perlin

import (
	"fmt"
	"log/slog"

	goperlin "github.com/aquilax/go-perlin"
)

// Backend names a noise implementation.
type Backend string

const (
	// BackendDirect is the lattice implementation in this package.
	BackendDirect Backend = "direct"
	// BackendExternal samples github.com/aquilax/go-perlin.
	BackendExternal Backend = "external"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendDirect, BackendExternal:
		return Backend(s), nil
	case "":
		return BackendDirect, nil
	default:
		return "", invalidf("unknown backend %q (want %q or %q)", s, BackendDirect, BackendExternal)
	}
}

// ExternalParams configures the go-perlin backend.
type ExternalParams struct {
	Octaves     int
	Lacunarity  float64
	Persistence float64
}

// DefaultExternalParams returns the settings the exploration tooling starts from.
func DefaultExternalParams() ExternalParams {
	return ExternalParams{Octaves: 2, Lacunarity: 0.15, Persistence: 5}
}

// ExternalNoise samples go-perlin at the centre of every cell, row index on
// the first axis, and normalizes the result.
func ExternalNoise(height, width int, ep ExternalParams, opts Options) (*Field, error) {
	if height <= 0 || width <= 0 {
		return nil, invalidf("map size must be positive, got %dx%d", width, height)
	}
	if ep.Octaves <= 0 {
		return nil, invalidf("octave count must be positive, got %d", ep.Octaves)
	}
	if ep.Persistence <= 0 {
		return nil, invalidf("persistence must be positive, got %g", ep.Persistence)
	}

	// go-perlin divides each octave by alpha, so alpha is the inverse persistence.
	p := goperlin.NewPerlin(1/ep.Persistence, ep.Lacunarity, int32(ep.Octaves), opts.Seed)

	raw := NewField(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			raw.Set(col, row, p.Noise2D(float64(row)+0.5, float64(col)+0.5))
		}
	}

	scaled, err := Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize external map: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Created perlin noise map using external module", "width", width, "height", height)
	return scaled, nil
}

// Build produces a normalized map with the selected backend. The external
// backend takes its size from p and ignores p's octave structure.
func Build(b Backend, p Params, ep ExternalParams, opts Options) (*Field, error) {
	switch b {
	case BackendDirect, "":
		return NoiseMap(p, opts)
	case BackendExternal:
		return ExternalNoise(p.Height, p.Width, ep, opts)
	default:
		return nil, invalidf("unknown backend %q", b)
	}
}
