package light

import (
	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// Shadow projection defaults.
const (
	// DefaultShadowMapResolution is the width and height in texels of each point light's
	// depth-only shadow target.
	DefaultShadowMapResolution = 1024

	// DefaultShadowBias is the constant depth bias applied to shadow comparisons.
	DefaultShadowBias float32 = 1e-2

	// DefaultShadowNear is the near plane of the shadow camera.
	DefaultShadowNear float32 = 1

	// DefaultShadowFar is the far plane of the shadow camera.
	DefaultShadowFar float32 = 100

	// DefaultShadowFov is the vertical field of view of the shadow camera in radians.
	DefaultShadowFov float32 = 1
)

// ShadowSettings holds the projection used for every point light's shadow camera.
type ShadowSettings struct {
	Resolution int
	Bias       float32
	Near       float32
	Far        float32
	Fov        float32

	// PCF enables 3x3 percentage-closer filtering of shadow lookups.
	PCF bool
}

// DefaultShadowSettings returns the default shadow projection.
func DefaultShadowSettings() ShadowSettings {
	return ShadowSettings{
		Resolution: DefaultShadowMapResolution,
		Bias:       DefaultShadowBias,
		Near:       DefaultShadowNear,
		Far:        DefaultShadowFar,
		Fov:        DefaultShadowFov,
		PCF:        true,
	}
}

func (l *lightImpl) ShadowCamera(s ShadowSettings) camera.Camera {
	eye := l.WorldPosition()

	// LookAt degenerates when the view direction is parallel to up
	up := mgl32.Vec3{0, 1, 0}
	if eye.Len() == 0 || mgl32.Abs(eye.Normalize().Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}

	return camera.NewCamera(
		camera.WithEye(eye),
		camera.WithTarget(mgl32.Vec3{}),
		camera.WithUp(up),
		camera.WithAspect(1),
		camera.WithNear(s.Near),
		camera.WithFar(s.Far),
		camera.WithFov(s.Fov),
	)
}
