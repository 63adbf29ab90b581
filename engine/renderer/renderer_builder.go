package renderer

import "github.com/rs/zerolog"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithShadingMode sets the initial shading mode. The default is ShadingDeferred.
//
// Parameters:
//   - mode: the shading mode
//
// Returns:
//   - RendererBuilderOption: a function that applies the shading mode option to a renderer
func WithShadingMode(mode ShadingMode) RendererBuilderOption {
	return func(r *renderer) {
		r.mode = mode
	}
}

// WithSettings replaces the default pass settings.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - RendererBuilderOption: a function that applies the settings option to a renderer
func WithSettings(s Settings) RendererBuilderOption {
	return func(r *renderer) {
		r.settings = s.clone()
	}
}

// WithLogger sets the logger used by the renderer and its backend.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger zerolog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = logger
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
