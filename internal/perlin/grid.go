package perlin

import (
	"math"
	"math/rand/v2"
)

// NewSource returns the random stream used for lattice construction.
// It is PCG-DXSM seeded with (seed, 0).
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// Grid is an immutable lattice of unit gradient vectors.
type Grid struct {
	vx    []float64
	vy    []float64
	sizeX int
	sizeY int
}

// NewGrid draws sizeX*sizeY gradient angles from r, row by row, and stores
// their unit vectors.
func NewGrid(sizeX, sizeY int, r *rand.Rand) *Grid {
	g := &Grid{
		sizeX: sizeX,
		sizeY: sizeY,
		vx:    make([]float64, sizeX*sizeY),
		vy:    make([]float64, sizeX*sizeY),
	}
	for i := range g.vx {
		angle := 2 * math.Pi * r.Float64()
		g.vx[i] = math.Cos(angle)
		g.vy[i] = math.Sin(angle)
	}
	return g
}

// Size returns the lattice dimensions.
func (g *Grid) Size() (sizeX, sizeY int) { return g.sizeX, g.sizeY }

// Gradient returns the unit vector stored at lattice column x, row y.
func (g *Grid) Gradient(x, y int) (float64, float64) {
	i := y*g.sizeX + x
	return g.vx[i], g.vy[i]
}

// At samples the noise at a single point. The enclosing cell must lie fully
// inside the lattice, otherwise a *BoundsError is returned.
func (g *Grid) At(x, y float64) (float64, error) {
	left := int(math.Floor(x))
	top := int(math.Floor(y))
	right, bottom := left+1, top+1
	if left < 0 || right >= g.sizeX || top < 0 || bottom >= g.sizeY {
		return 0, &BoundsError{X: x, Y: y, SizeX: g.sizeX, SizeY: g.sizeY}
	}

	fx := x - float64(left)
	fy := y - float64(top)

	tlx, tly := g.Gradient(left, top)
	trx, try := g.Gradient(right, top)
	blx, bly := g.Gradient(left, bottom)
	brx, bry := g.Gradient(right, bottom)

	tl := tlx*fx + tly*fy
	tr := trx*(fx-1) + try*fy
	bl := blx*fx + bly*(fy-1)
	br := brx*(fx-1) + bry*(fy-1)

	// Linear blend, no fade curve.
	upper := (1-fx)*tl + fx*tr
	lower := (1-fx)*bl + fx*br
	return (1-fy)*upper + fy*lower, nil
}

// Sample evaluates the noise at every (qx, qy) pair. Both fields must have the
// same shape; the result has that shape too.
func (g *Grid) Sample(qx, qy *Field) (*Field, error) {
	if qx.Width != qy.Width || qx.Height != qy.Height {
		return nil, invalidf("query shapes differ: %dx%d vs %dx%d", qx.Width, qx.Height, qy.Width, qy.Height)
	}
	out := NewField(qx.Width, qx.Height)
	for i := range out.Values {
		v, err := g.At(qx.Values[i], qy.Values[i])
		if err != nil {
			return nil, err
		}
		out.Values[i] = v
	}
	return out, nil
}

// SampleMesh evaluates the noise on the mesh spanned by xs (columns) and ys (rows).
func (g *Grid) SampleMesh(xs, ys []float64) (*Field, error) {
	qx, qy := Meshgrid(xs, ys)
	return g.Sample(qx, qy)
}

// Meshgrid expands coordinate vectors into matching query matrices.
func Meshgrid(xs, ys []float64) (qx, qy *Field) {
	qx = NewField(len(xs), len(ys))
	qy = NewField(len(xs), len(ys))
	for y, vy := range ys {
		for x, vx := range xs {
			qx.Set(x, y, vx)
			qy.Set(x, y, vy)
		}
	}
	return qx, qy
}
