package ocean

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// DefaultGravity is the gravitational acceleration used for the dispersion relation in m/s².
const DefaultGravity = 9.81

// ErrInvalidGridSize is returned when the grid resolution is not a power of two of at least 2.
var ErrInvalidGridSize = errors.New("ocean: grid size must be a power of two >= 2")

// Grid is an N×N row-major array of complex amplitudes. Row index is the z wave number and
// column index is the x wave number; array index a maps to wave number n = a - N/2.
type Grid []complex128

// SpectrumParams describes the inputs of the Phillips spectrum.
type SpectrumParams struct {
	N         int        // grid resolution, power of two
	L         float64    // patch size in world units
	Wind      [2]float64 // wind velocity on the xz plane
	Gravity   float64    // gravitational acceleration
	Amplitude float64    // Phillips amplitude constant
	Damping   float64    // suppression length for small waves
	Seed      int64      // random seed for the gaussian draws
}

// Spectrum holds the initial amplitudes h0(k) generated from a SpectrumParams.
// It is immutable after construction and may be shared between evolvers.
type Spectrum struct {
	params SpectrumParams
	h0     Grid
}

// NewSpectrum builds the initial amplitude grid h0(k) = (ξr + iξi)·sqrt(P(k)/2).
// The DC term and the Nyquist row and column are zero.
//
// Parameters:
//   - p: the spectrum parameters
//
// Returns:
//   - *Spectrum: the generated spectrum
//   - error: ErrInvalidGridSize or a parameter error
func NewSpectrum(p SpectrumParams) (*Spectrum, error) {
	if p.N < 2 || p.N&(p.N-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGridSize, p.N)
	}
	if p.L <= 0 {
		return nil, fmt.Errorf("ocean: patch size must be positive, got %g", p.L)
	}
	if p.Gravity == 0 {
		p.Gravity = DefaultGravity
	}

	s := &Spectrum{
		params: p,
		h0:     make(Grid, p.N*p.N),
	}

	rng := rand.New(rand.NewSource(p.Seed))
	for az := 0; az < p.N; az++ {
		for ax := 0; ax < p.N; ax++ {
			// draws are consumed for every cell so the sequence does not depend on which cells are zero
			xr, xi := rng.NormFloat64(), rng.NormFloat64()
			if ax == 0 || az == 0 {
				continue
			}
			kx, kz := s.WaveVector(ax, az)
			amp := math.Sqrt(Phillips(kx, kz, p) / 2)
			s.h0[az*p.N+ax] = complex(xr*amp, xi*amp)
		}
	}
	return s, nil
}

// Phillips evaluates the Phillips spectrum density at wave vector (kx, kz).
// Returns 0 at k = 0 and when the wind speed is 0.
//
// Parameters:
//   - kx: x component of the wave vector
//   - kz: z component of the wave vector
//   - p: the spectrum parameters
//
// Returns:
//   - float64: the spectral density P(k)
func Phillips(kx, kz float64, p SpectrumParams) float64 {
	k2 := kx*kx + kz*kz
	if k2 == 0 {
		return 0
	}
	windSpeed2 := p.Wind[0]*p.Wind[0] + p.Wind[1]*p.Wind[1]
	if windSpeed2 == 0 {
		return 0
	}
	g := p.Gravity
	if g == 0 {
		g = DefaultGravity
	}

	lw := windSpeed2 / g
	k := math.Sqrt(k2)
	windSpeed := math.Sqrt(windSpeed2)
	cosFactor := (kx*p.Wind[0] + kz*p.Wind[1]) / (k * windSpeed)

	return p.Amplitude *
		math.Exp(-1/(k2*lw*lw)) / (k2 * k2) *
		cosFactor * cosFactor *
		math.Exp(-k2*p.Damping*p.Damping)
}

// N returns the grid resolution.
func (s *Spectrum) N() int { return s.params.N }

// Params returns the parameters the spectrum was generated from.
func (s *Spectrum) Params() SpectrumParams { return s.params }

// H0 returns the initial amplitude at array position (ax, az).
func (s *Spectrum) H0(ax, az int) complex128 { return s.h0[az*s.params.N+ax] }

// WaveVector returns k = 2π(n/L, m/L) for array position (ax, az).
//
// Parameters:
//   - ax: column index
//   - az: row index
//
// Returns:
//   - float64: kx
//   - float64: kz
func (s *Spectrum) WaveVector(ax, az int) (float64, float64) {
	half := s.params.N / 2
	return 2 * math.Pi * float64(ax-half) / s.params.L,
		2 * math.Pi * float64(az-half) / s.params.L
}

// Mirror returns the array position of -k for the array position of k.
// The Nyquist index maps onto itself.
func (s *Spectrum) Mirror(ax, az int) (int, int) {
	n := s.params.N
	return (n - ax) % n, (n - az) % n
}
