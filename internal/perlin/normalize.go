package perlin

// Normalize rescales f linearly so its minimum maps to 0 and its maximum to 1.
// A flat field returns ErrDegenerateField instead of NaNs.
func Normalize(f *Field) (*Field, error) {
	lo, hi := f.MinMax()
	if len(f.Values) == 0 || lo == hi {
		return nil, ErrDegenerateField
	}
	out := NewField(f.Width, f.Height)
	span := hi - lo
	for i, v := range f.Values {
		out.Values[i] = (v - lo) / span
	}
	return out, nil
}
