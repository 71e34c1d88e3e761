package perlin

import "math"

// Field is a row-major 2D array of float64 values.
type Field struct {
	Values []float64
	Width  int
	Height int
}

// NewField allocates a zeroed width x height field.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

func (f *Field) idx(x, y int) int { return y*f.Width + x }

// At returns the value at column x, row y.
func (f *Field) At(x, y int) float64 { return f.Values[f.idx(x, y)] }

// Set stores v at column x, row y.
func (f *Field) Set(x, y int, v float64) { f.Values[f.idx(x, y)] = v }

// Rows returns a copy of the field as a slice of rows.
func (f *Field) Rows() [][]float64 {
	rows := make([][]float64, f.Height)
	for y := range rows {
		rows[y] = append([]float64(nil), f.Values[y*f.Width:(y+1)*f.Width]...)
	}
	return rows
}

// MinMax returns the smallest and largest value of the field.
func (f *Field) MinMax() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Add accumulates other into f element-wise. Both fields must have the same shape.
func (f *Field) Add(other *Field) {
	for i, v := range other.Values {
		f.Values[i] += v
	}
}

// Scaled returns a copy of f with every value multiplied by k.
func (f *Field) Scaled(k float64) *Field {
	out := NewField(f.Width, f.Height)
	for i, v := range f.Values {
		out.Values[i] = k * v
	}
	return out
}
