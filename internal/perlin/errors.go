package perlin

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indicates a non-positive size or octave parameter.
	ErrInvalidParameter = errors.New("perlin: invalid parameter")
	// ErrOutOfBounds indicates a query point outside the interior of a lattice.
	ErrOutOfBounds = errors.New("perlin: query point outside lattice interior")
	// ErrDegenerateField indicates a flat field that cannot be rescaled to [0,1].
	ErrDegenerateField = errors.New("perlin: field is flat, cannot normalize")
)

// BoundsError reports the first query point that fell outside a lattice.
type BoundsError struct {
	X, Y         float64
	SizeX, SizeY int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("perlin: query point (%g, %g) outside interior of %dx%d lattice", e.X, e.Y, e.SizeX, e.SizeY)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
