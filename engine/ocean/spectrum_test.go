package ocean

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(n int) SpectrumParams {
	return SpectrumParams{
		N:         n,
		L:         32,
		Wind:      [2]float64{6, 4},
		Gravity:   DefaultGravity,
		Amplitude: 4e-4,
		Damping:   0.05,
		Seed:      42,
	}
}

func TestNewSpectrum_RejectsBadSize(t *testing.T) {
	for _, n := range []int{0, 1, 3, 12, 100} {
		_, err := NewSpectrum(testParams(n))
		require.Error(t, err, "n=%d", n)
		assert.ErrorIs(t, err, ErrInvalidGridSize)
	}

	p := testParams(16)
	p.L = 0
	_, err := NewSpectrum(p)
	assert.Error(t, err)
}

func TestNewSpectrum_Deterministic(t *testing.T) {
	a, err := NewSpectrum(testParams(32))
	require.NoError(t, err)
	b, err := NewSpectrum(testParams(32))
	require.NoError(t, err)
	assert.Equal(t, a.h0, b.h0)

	p := testParams(32)
	p.Seed = 7
	c, err := NewSpectrum(p)
	require.NoError(t, err)
	assert.NotEqual(t, a.h0, c.h0)
}

func TestNewSpectrum_ZeroTerms(t *testing.T) {
	s, err := NewSpectrum(testParams(16))
	require.NoError(t, err)

	half := s.N() / 2
	assert.Zero(t, s.H0(half, half), "DC term")
	for a := 0; a < s.N(); a++ {
		assert.Zero(t, s.H0(0, a), "nyquist column at row %d", a)
		assert.Zero(t, s.H0(a, 0), "nyquist row at column %d", a)
	}

	nonZero := 0
	for _, v := range s.h0 {
		if v != 0 {
			nonZero++
		}
	}
	assert.Positive(t, nonZero)
}

func TestPhillips(t *testing.T) {
	p := testParams(16)
	assert.Zero(t, Phillips(0, 0, p))

	// waves perpendicular to the wind carry no energy
	assert.InDelta(t, 0, Phillips(-4, 6, p), 1e-15)
	assert.Positive(t, Phillips(0.6, 0.4, p))

	p.Wind = [2]float64{0, 0}
	v := Phillips(0.6, 0.4, p)
	assert.Zero(t, v)
	assert.False(t, math.IsNaN(v))
}

func TestZeroWind_FlatSpectrum(t *testing.T) {
	p := testParams(16)
	p.Wind = [2]float64{0, 0}
	s, err := NewSpectrum(p)
	require.NoError(t, err)

	for i, v := range s.h0 {
		require.Zero(t, v, "h0[%d]", i)
	}
}

func TestMirror(t *testing.T) {
	s, err := NewSpectrum(testParams(8))
	require.NoError(t, err)

	mx, mz := s.Mirror(4, 4)
	assert.Equal(t, 4, mx)
	assert.Equal(t, 4, mz)

	mx, mz = s.Mirror(5, 2)
	assert.Equal(t, 3, mx)
	assert.Equal(t, 6, mz)

	kx, kz := s.WaveVector(5, 2)
	mkx, mkz := s.WaveVector(mx, mz)
	assert.InDelta(t, -kx, mkx, 1e-12)
	assert.InDelta(t, -kz, mkz, 1e-12)
}

func TestEvolve_ConjugateSymmetry(t *testing.T) {
	s, err := NewSpectrum(testParams(32))
	require.NoError(t, err)

	n := s.N()
	h, gx, gz := make(Grid, n*n), make(Grid, n*n), make(Grid, n*n)
	for _, tm := range []float64{0, 0.37, 12.5} {
		Evolve(s, tm, h, gx, gz)
		for az := 0; az < n; az++ {
			for ax := 0; ax < n; ax++ {
				mx, mz := s.Mirror(ax, az)
				i, j := az*n+ax, mz*n+mx
				for _, g := range []Grid{h, gx, gz} {
					require.InDelta(t, 0, cmplx.Abs(g[j]-cmplx.Conj(g[i])), 1e-12, "t=%g a=(%d,%d)", tm, ax, az)
				}
			}
		}
	}
}

func TestPhaseFactor_Unit(t *testing.T) {
	for _, k := range [][2]float64{{0, 0}, {0.2, 0}, {-3, 4}, {40, -12}} {
		for _, tm := range []float64{0, 0.016, 1, 1000} {
			assert.InDelta(t, 1, cmplx.Abs(PhaseFactor(k[0], k[1], DefaultGravity, tm)), 1e-12)
		}
	}
}

func TestEvolve_AtZero(t *testing.T) {
	s, err := NewSpectrum(testParams(8))
	require.NoError(t, err)

	n := s.N()
	h, gx, gz := make(Grid, n*n), make(Grid, n*n), make(Grid, n*n)
	Evolve(s, 0, h, gx, gz)

	for az := 0; az < n; az++ {
		for ax := 0; ax < n; ax++ {
			mx, mz := s.Mirror(ax, az)
			want := s.H0(ax, az) + cmplx.Conj(s.H0(mx, mz))
			assert.InDelta(t, 0, cmplx.Abs(h[az*n+ax]-want), 1e-15)
		}
	}
}
