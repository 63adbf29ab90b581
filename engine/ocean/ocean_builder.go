package ocean

import "github.com/rs/zerolog"

// Simulation defaults.
const (
	DefaultResolution = 128
	DefaultPatchSize  = 32.0
	DefaultWindX      = 6.0
	DefaultWindZ      = 4.0
	DefaultAmplitude  = 4e-4
	DefaultDamping    = 0.05
)

// OceanBuilderOption is a functional option for configuring an Ocean.
type OceanBuilderOption func(o *oceanImpl)

// WithResolution sets the grid resolution N. Must be a power of two.
//
// Parameters:
//   - n: the grid resolution
//
// Returns:
//   - OceanBuilderOption: option function to apply
func WithResolution(n int) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.params.N = n
	}
}

// WithPatchSize sets the side length L of the simulated patch.
//
// Parameters:
//   - l: patch size in world units
//
// Returns:
//   - OceanBuilderOption: option function to apply
func WithPatchSize(l float64) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.params.L = l
	}
}

// WithWind sets the wind velocity on the xz plane. A zero vector yields a flat ocean.
//
// Parameters:
//   - x: x component
//   - z: z component
//
// Returns:
//   - OceanBuilderOption: option function to apply
func WithWind(x, z float64) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.params.Wind = [2]float64{x, z}
	}
}

// WithAmplitude sets the Phillips amplitude constant.
func WithAmplitude(a float64) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.params.Amplitude = a
	}
}

// WithDamping sets the suppression length for waves much smaller than the patch.
func WithDamping(l float64) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.params.Damping = l
	}
}

// WithGravity overrides the gravitational acceleration.
func WithGravity(g float64) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.params.Gravity = g
	}
}

// WithSeed fixes the random seed so the spectrum is reproducible.
func WithSeed(seed int64) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.params.Seed = seed
	}
}

// WithWorkers sets how many goroutines the inverse transforms fan out to.
// Defaults to 1 which keeps the whole tick on the caller's goroutine.
func WithWorkers(n int) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.workers = max(n, 1)
	}
}

// WithMeshResolution sets the cell count per side of the drawn patch. Defaults to N.
func WithMeshResolution(res int) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.meshRes = res
	}
}

// WithLogger sets the logger used for spectrum and residue diagnostics.
func WithLogger(logger zerolog.Logger) OceanBuilderOption {
	return func(o *oceanImpl) {
		o.logger = logger
	}
}
