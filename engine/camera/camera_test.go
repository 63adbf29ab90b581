package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewCamera_Defaults(t *testing.T) {
	c := NewCamera()

	assert.Equal(t, mgl32.Vec3{3, 4, 5}, c.Eye())
	assert.Equal(t, mgl32.Vec3{}, c.Target())
	assert.Equal(t, float32(1), c.Aspect())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(1000), c.Far())
}

func TestCamera_ProjectsToWebGPUDepth(t *testing.T) {
	c := NewCamera(
		WithEye(mgl32.Vec3{0, 0, 5}),
		WithNear(1),
		WithFar(10),
	)
	vp := c.ViewProjectionMatrix()

	near := mgl32.TransformCoordinate(mgl32.Vec3{0, 0, 4}, vp)
	far := mgl32.TransformCoordinate(mgl32.Vec3{0, 0, -5}, vp)
	assert.InDelta(t, 0, near.Z(), 1e-5)
	assert.InDelta(t, 1, far.Z(), 1e-5)

	center := mgl32.TransformCoordinate(mgl32.Vec3{}, vp)
	assert.InDelta(t, 0, center.X(), 1e-6)
	assert.InDelta(t, 0, center.Y(), 1e-6)
}

func TestCamera_SettersRecompute(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()

	c.SetAspect(2)
	after := c.ProjectionMatrix()
	assert.NotEqual(t, before, after)
	assert.InDelta(t, before[0]/2, after[0], 1e-6)
}

func TestGPUCameraUniform_Marshal(t *testing.T) {
	u := NewGPUCameraUniform(NewCamera())
	assert.Equal(t, 144, u.Size())
	assert.Len(t, u.Marshal(), 144)
	assert.Equal(t, [3]float32{3, 4, 5}, u.Eye)
}

func TestOrbitController(t *testing.T) {
	c := NewCamera(WithEye(mgl32.Vec3{0, 0, 10}))
	cc := NewOrbitController(c, WithOrbitSpeed(0.1), WithZoomSpeed(1), WithRadiusLimits(2, 20))
	assert.InDelta(t, 10, cc.Radius(), 1e-5)

	cc.OrbitRight()
	eye := c.Eye()
	assert.InDelta(t, 10, eye.Len(), 1e-4)
	assert.Positive(t, eye.X())

	cc.Zoom(100)
	assert.Equal(t, float32(2), cc.Radius())
	assert.InDelta(t, 2, c.Eye().Len(), 1e-4)

	for range 100 {
		cc.OrbitUp()
	}
	assert.Less(t, c.Eye().Y(), float32(2))
}
