package ocean

// Field is an N×N real spatial field stored as normalized samples in [0, 1] plus the affine
// decode: value = A + B·encoded.
type Field struct {
	Samples []float32
	Size    int
	A       float32
	B       float32
}

// Decode returns the original value of sample i.
func (f Field) Decode(i int) float32 {
	return f.A + f.B*f.Samples[i]
}

// Normalize maps values into dst.Samples so that every encoded sample lies in [0, 1] and sets
// dst.A and dst.B so Decode reproduces the input. A constant field encodes as all zeros with
// A = the constant and B = 0. Empty values leave dst with no samples. dst.Samples may alias values.
//
// Parameters:
//   - dst: the field receiving the encoded samples and decode parameters
//   - values: the raw spatial samples
func Normalize(dst *Field, values []float32) {
	if len(values) == 0 {
		dst.Samples = dst.Samples[:0]
		dst.A, dst.B = 0, 0
		return
	}
	if len(dst.Samples) != len(values) {
		dst.Samples = make([]float32, len(values))
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	span := hi - lo
	dst.A = lo
	if span == 0 {
		dst.B = 0
		clear(dst.Samples)
		return
	}
	dst.B = span

	inv := 1 / float64(span)
	for i, v := range values {
		e := float32(float64(v-lo) * inv)
		dst.Samples[i] = min(max(e, 0), 1)
	}
}
