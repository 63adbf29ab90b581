package flock

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func birdAt(x, y, z float32) *scene.Node {
	return scene.NewNode("Bird", mgl32.Translate3D(x, y, z))
}

func worldPos(n *scene.Node) mgl32.Vec3 {
	return n.World().Col(3).Vec3()
}

func TestFlock_ReflectsOffWall(t *testing.T) {
	b := birdAt(9.9, 5, 0)
	f := NewFlock([]*scene.Node{b},
		WithWalls(Wall{Point: mgl32.Vec3{10, 0, 0}, Normal: mgl32.Vec3{-1, 0, 0}}),
		WithInitialVelocity(mgl32.Vec3{1, 0, 0}),
	)

	f.Update(1)
	assert.InDelta(t, 9.1, worldPos(b).X(), 1e-5)

	// The velocity was reflected: the bird keeps moving away from the wall.
	f.Update(1)
	assert.InDelta(t, 8.1, worldPos(b).X(), 1e-5)
}

func TestFlock_StaysInsideDefaultBox(t *testing.T) {
	birds := []*scene.Node{birdAt(0, 5, 0), birdAt(3, 2, -4), birdAt(-7, 9, 7)}
	f := NewFlock(birds, WithSpeed(5), WithSeed(7))
	require.Equal(t, 3, f.Len())

	for range 500 {
		f.Update(0.1)
	}
	for _, b := range birds {
		p := worldPos(b)
		assert.LessOrEqual(t, p.X(), float32(20))
		assert.GreaterOrEqual(t, p.X(), float32(-20))
		assert.GreaterOrEqual(t, p.Y(), float32(1))
		assert.LessOrEqual(t, p.Z(), float32(20))
	}
}

func TestFlock_KeepsRotationAndParentSpace(t *testing.T) {
	parent := scene.NewNode("flock", mgl32.Translate3D(0, 10, 0))
	b := parent.AddChild(scene.NewNode("Bird_a", mgl32.Scale3D(2, 2, 2)))

	f := NewFlock([]*scene.Node{b}, WithWalls(), WithInitialVelocity(mgl32.Vec3{0, 0, 1}))
	f.Update(2)

	assert.True(t, worldPos(b).ApproxEqual(mgl32.Vec3{0, 10, 2}))
	assert.InDelta(t, 2.0, b.Local.At(0, 0), 1e-6)
	assert.InDelta(t, 0.0, b.Local.Col(3).Y(), 1e-5)
}

func TestFlock_Walls(t *testing.T) {
	f := NewFlock(nil, WithWalls(Wall{Normal: mgl32.Vec3{0, 0, 0}}))
	assert.Empty(t, f.Walls())

	f.AddWall(Wall{Point: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 3, 0}})
	walls := f.Walls()
	require.Len(t, walls, 1)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, walls[0].Normal)

	walls[0].Point = mgl32.Vec3{9, 9, 9}
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, f.Walls()[0].Point)

	// Two flocks never share walls.
	other := NewFlock(nil)
	assert.Len(t, other.Walls(), 6)
}
