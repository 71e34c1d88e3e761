// Package perlin builds 2D gradient-noise height maps for the world generator.
//
// A map is the weighted sum of several octaves. Each octave samples its own
// lattice of random unit gradients (a Grid) over the full output resolution;
// lattice sizes are spaced log-uniformly between the minimum grid size and the
// larger output dimension and each octave is weighted by 1/sqrt(size), so fine
// lattices dominate. The sum is rescaled linearly into [0,1].
//
// Interpolation inside a lattice cell is plain bilinear: there is no fade
// curve, so octave boundaries show visible creases. This differs from
// canonical Perlin noise and is intentional for the maps this tool produces.
//
// All lattices of one call are drawn from a single PCG stream (math/rand/v2)
// in octave order. Identical parameters give bit-identical output, and
// changing the octave count changes every lattice, not only the added ones.
//
// Errors:
//
//   - ErrInvalidParameter: non-positive dimensions or octave parameters, or a
//     derived lattice too small to have an interior cell.
//   - ErrOutOfBounds: a query point outside a lattice's interior (*BoundsError).
//   - ErrDegenerateField: the combined field is perfectly flat and cannot be
//     normalized.
package perlin
