package ocean

import (
	"math"
	"math/cmplx"
)

// PhaseFactor returns e^{iω(k)t} with the deep water dispersion ω(k) = sqrt(g|k|).
//
// Parameters:
//   - kx: x component of the wave vector
//   - kz: z component of the wave vector
//   - g: gravitational acceleration
//   - t: time in seconds
//
// Returns:
//   - complex128: the unit phase factor
func PhaseFactor(kx, kz, g, t float64) complex128 {
	omega := math.Sqrt(g * math.Hypot(kx, kz))
	return cmplx.Rect(1, omega*t)
}

// Evolve writes the height spectrum H(k,t) and the gradient spectra i·kx·H and i·kz·H at time t
// into the given grids. Each grid must have length N². Evolve is a pure function of the spectrum
// and t; the output grids carry no state between calls.
//
// Parameters:
//   - s: the initial spectrum
//   - t: time in seconds
//   - height: output height spectrum
//   - gradX: output x gradient spectrum
//   - gradZ: output z gradient spectrum
func Evolve(s *Spectrum, t float64, height, gradX, gradZ Grid) {
	n := s.N()
	g := s.params.Gravity

	for az := 0; az < n; az++ {
		for ax := 0; ax < n; ax++ {
			i := az*n + ax
			kx, kz := s.WaveVector(ax, az)

			mx, mz := s.Mirror(ax, az)
			phase := PhaseFactor(kx, kz, g, t)
			h := s.h0[i]*phase + cmplx.Conj(s.h0[mz*n+mx])*cmplx.Conj(phase)

			height[i] = h
			gradX[i] = complex(0, kx) * h
			gradZ[i] = complex(0, kz) * h
		}
	}
}
