package renderer

import (
	"fmt"
	"math"
	"slices"

	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadingMode selects how a frame is shaded.
type ShadingMode int

const (
	// ShadingFlat draws every mesh with its base colour directly to the surface.
	ShadingFlat ShadingMode = iota

	// ShadingForward draws every mesh lit by a single point light and the ambient term directly to the surface.
	ShadingForward

	// ShadingDeferred renders the full shadow, G-buffer, lighting, bloom and merge sequence.
	ShadingDeferred
)

func (m ShadingMode) String() string {
	switch m {
	case ShadingFlat:
		return "flat"
	case ShadingForward:
		return "forward"
	case ShadingDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("shading_mode_%d", int(m))
	}
}

// ParseShadingMode is the inverse of ShadingMode.String.
//
// Parameters:
//   - s: "flat", "forward" or "deferred"
//
// Returns:
//   - ShadingMode: the parsed mode
//   - error: an error if s names no mode
func ParseShadingMode(s string) (ShadingMode, error) {
	for _, m := range []ShadingMode{ShadingFlat, ShadingForward, ShadingDeferred} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown shading mode %q", s)
}

// TextureFilter selects how material textures are sampled.
type TextureFilter int

const (
	// TextureFilterNearest samples the closest texel.
	TextureFilterNearest TextureFilter = iota

	// TextureFilterLinear blends the four closest texels.
	TextureFilterLinear
)

func (f TextureFilter) String() string {
	switch f {
	case TextureFilterNearest:
		return "nearest"
	case TextureFilterLinear:
		return "linear"
	default:
		return fmt.Sprintf("texture_filter_%d", int(f))
	}
}

// ParseTextureFilter is the inverse of TextureFilter.String.
//
// Parameters:
//   - s: "nearest" or "linear"
//
// Returns:
//   - TextureFilter: the parsed filter
//   - error: an error if s names no filter
func ParseTextureFilter(s string) (TextureFilter, error) {
	for _, f := range []TextureFilter{TextureFilterNearest, TextureFilterLinear} {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown texture filter %q", s)
}

// Settings are the per-frame toggles and parameters of the pass sequence.
type Settings struct {
	PointLights   bool
	AmbientLights bool
	Sky           bool
	Bloom         bool

	// Exposure scales radiance before tone mapping in the merge pass.
	Exposure float32

	// ThetaSun is the sun's angle from the zenith in radians.
	ThetaSun float32
	// Turbidity is the haze parameter of the sky model.
	Turbidity float32

	// Background is the linear clear colour of flat and forward frames.
	Background mgl32.Vec3

	// TextureFilter applies to every material texture in every shading mode.
	TextureFilter TextureFilter

	Shadow      light.ShadowSettings
	BloomLevels []BloomLevel
}

// DefaultSettings returns settings with point and ambient lights and bloom on and the sky off.
//
// Returns:
//   - Settings: the defaults
func DefaultSettings() Settings {
	return Settings{
		PointLights:   true,
		AmbientLights: true,
		Sky:           false,
		Bloom:         true,
		Exposure:      1,
		ThetaSun:      math.Pi / 3,
		Turbidity:     4,
		Background:    mgl32.Vec3{0.1, 0.1, 0.1},
		TextureFilter: TextureFilterLinear,
		Shadow:        light.DefaultShadowSettings(),
		BloomLevels:   DefaultBloomLevels(),
	}
}

// clone returns a copy of s that shares no slices with it.
func (s Settings) clone() Settings {
	s.BloomLevels = slices.Clone(s.BloomLevels)
	return s
}
