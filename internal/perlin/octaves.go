package perlin

import (
	"math"
	"math/rand/v2"

	"github.com/sourcegraph/conc/iter"
)

// Offsets that keep query coordinates off integer lattice points.
const (
	QueryDeltaStart = 0.13
	QueryDeltaEnd   = 0.38
)

// Octave is one weighted contribution to a combined map.
type Octave struct {
	Contribution *Field
	GridSize     int
	Weight       float64
}

// Linspace returns n evenly spaced values over [start, stop]. The last value is
// exactly stop; for n == 1 the only value is start.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = float64(i)*step + start
	}
	out[n-1] = stop
	return out
}

// GridSizes returns count lattice sizes spaced log-uniformly between start and
// maxDim, truncated to integers. The endpoints are exactly start and maxDim.
// Truncation may produce repeated sizes; they are kept.
func GridSizes(count, start, maxDim int) []int {
	if count <= 0 {
		return nil
	}
	exps := Linspace(math.Log10(float64(start)), math.Log10(float64(maxDim)), count)
	sizes := make([]int, count)
	for i, e := range exps {
		sizes[i] = int(math.Pow(10, e))
	}
	// Pin the endpoints; truncating 10^log10(n) can land one below n.
	sizes[0] = start
	if count > 1 {
		sizes[count-1] = maxDim
	}
	return sizes
}

// Weight returns the octave weight for a lattice size.
func Weight(gridSize int) float64 {
	return 1 / math.Sqrt(float64(gridSize))
}

// QueryAxis returns the n query coordinates along one axis of a lattice of the
// given size.
func QueryAxis(gridSize, n int) []float64 {
	return Linspace(QueryDeltaStart, float64(gridSize)-1-QueryDeltaEnd, n)
}

// Combiner builds one lattice per grid size and sums their weighted samples.
type Combiner struct {
	rng     *rand.Rand
	workers int
}

// NewCombiner returns a combiner drawing lattices from r. With workers > 1 the
// octaves are sampled concurrently once all lattices are built.
func NewCombiner(r *rand.Rand, workers int) *Combiner {
	if workers <= 0 {
		workers = 1
	}
	return &Combiner{rng: r, workers: workers}
}

// Combine samples every grid size at height x width and returns the raw sum
// together with the per-octave contributions in grid-size order.
func (c *Combiner) Combine(height, width int, sizes []int) (*Field, []Octave, error) {
	// Lattices are drawn sequentially so the stream order never depends on
	// the worker count.
	grids := make([]*Grid, len(sizes))
	for i, size := range sizes {
		grids[i] = NewGrid(size, size, c.rng)
	}

	type sampled struct {
		field *Field
		err   error
	}
	sampleOne := func(i int) sampled {
		size := sizes[i]
		raw, err := grids[i].SampleMesh(QueryAxis(size, width), QueryAxis(size, height))
		if err != nil {
			return sampled{err: err}
		}
		return sampled{field: raw.Scaled(Weight(size))}
	}

	indices := make([]int, len(sizes))
	for i := range indices {
		indices[i] = i
	}

	var results []sampled
	if c.workers > 1 {
		mapper := iter.Mapper[int, sampled]{MaxGoroutines: c.workers}
		results = mapper.Map(indices, func(i *int) sampled { return sampleOne(*i) })
	} else {
		results = make([]sampled, len(indices))
		for i := range indices {
			results[i] = sampleOne(i)
		}
	}

	combined := NewField(width, height)
	octaves := make([]Octave, 0, len(sizes))
	for i, res := range results {
		if res.err != nil {
			return nil, nil, res.err
		}
		combined.Add(res.field)
		octaves = append(octaves, Octave{
			GridSize:     sizes[i],
			Weight:       Weight(sizes[i]),
			Contribution: res.field,
		})
	}
	return combined, octaves, nil
}
