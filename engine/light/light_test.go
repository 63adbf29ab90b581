package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewLight_Defaults(t *testing.T) {
	p := NewLight(LightTypePoint, WithPosition(3, 4, 5), WithPower(1000))
	assert.True(t, p.CastsShadows())
	assert.True(t, p.Enabled())
	assert.Equal(t, mgl32.Vec3{1000, 1000, 1000}, p.Radiance())

	a := NewLight(LightTypeAmbient, WithCastsShadows(true), WithColor(0.1, 0.2, 0.3))
	assert.False(t, a.CastsShadows())
	assert.Equal(t, "ambient", a.Type().String())
}

func TestLight_WorldPosition(t *testing.T) {
	l := NewLight(LightTypePoint,
		WithPosition(1, 0, 0),
		WithNodeToWorld(mgl32.Translate3D(0, 2, 0)),
	)
	assert.Equal(t, mgl32.Vec3{1, 2, 0}, l.WorldPosition())

	l.SetNodeToWorld(mgl32.Ident4())
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, l.WorldPosition())
}

func TestLight_ShadowCameraLooksAtOrigin(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(3, 4, 5))
	cam := l.ShadowCamera(DefaultShadowSettings())

	assert.Equal(t, mgl32.Vec3{3, 4, 5}, cam.Eye())
	assert.Equal(t, mgl32.Vec3{}, cam.Target())
	assert.Equal(t, DefaultShadowFov, cam.Fov())
	assert.Equal(t, float32(1), cam.Aspect())

	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, cam.ViewProjectionMatrix())
	assert.InDelta(t, 0, origin.X(), 1e-5)
	assert.InDelta(t, 0, origin.Y(), 1e-5)
	assert.True(t, origin.Z() > 0 && origin.Z() < 1)
}

func TestLight_ShadowCameraStraightAbove(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(0, 10, 0))
	cam := l.ShadowCamera(DefaultShadowSettings())
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, cam.Up())

	vp := cam.ViewProjectionMatrix()
	for _, v := range vp {
		assert.False(t, v != v, "NaN in shadow matrix")
	}
}

func TestGPULight_Marshal(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(3, 4, 5))
	g := NewGPULight(l, DefaultShadowSettings())
	assert.Equal(t, 96, g.Size())
	assert.Len(t, g.Marshal(), 96)
	assert.Equal(t, DefaultShadowBias, g.ShadowBias)
	assert.NotEqual(t, [16]float32{}, g.ShadowViewProj)

	amb := NewGPULight(NewLight(LightTypeAmbient), DefaultShadowSettings())
	assert.Equal(t, [16]float32{}, amb.ShadowViewProj)
	assert.Equal(t, uint32(1), amb.LightType)
}
