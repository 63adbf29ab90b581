package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *Node {
	root := NewNode("root", mgl32.Ident4())

	ground := root.AddChild(NewNode("ground", mgl32.Ident4()))
	ground.Meshes = []*Mesh{{Name: "plane"}, {Name: "rock"}}

	flock := root.AddChild(NewNode("flock", mgl32.Translate3D(0, 5, 0)))
	for _, name := range []string{"Bird.001", "Bird.002"} {
		b := flock.AddChild(NewNode(name, mgl32.Translate3D(1, 0, 0)))
		b.Meshes = []*Mesh{{Name: "bird"}}
	}

	lamp := root.AddChild(NewNode("lamp", mgl32.Translate3D(0, 2, 0)))
	lamp.Light = light.NewLight(light.LightTypePoint, light.WithPosition(1, 1, 1))

	sky := root.AddChild(NewNode("sky", mgl32.Ident4()))
	sky.Light = light.NewLight(light.LightTypeAmbient)
	return root
}

func TestWalk_ParentsBeforeChildren(t *testing.T) {
	var names []string
	Walk(testTree(), func(n *Node, _ mgl32.Mat4) {
		names = append(names, n.Name)
	})
	assert.Equal(t, []string{"root", "ground", "flock", "Bird.001", "Bird.002", "lamp", "sky"}, names)
}

func TestCollect_Generic(t *testing.T) {
	depths := Collect(testTree(), func(n *Node, world mgl32.Mat4) (float32, bool) {
		return world.Col(3).Y(), n.Parent() != nil && n.Parent().Name == "flock"
	})
	assert.Equal(t, []float32{5, 5}, depths)
}

func TestNewScene_Collections(t *testing.T) {
	s := NewScene("test", testTree())
	c := s.Collections()

	require.Len(t, c.Meshes, 4)
	assert.Equal(t, "plane", c.Meshes[0].Mesh.Name)
	assert.Equal(t, mgl32.Vec3{1, 5, 0}, c.Meshes[2].Model.Col(3).Vec3())

	require.Len(t, c.PointLights, 1)
	assert.Equal(t, mgl32.Vec3{1, 3, 1}, c.PointLights[0].WorldPosition())
	assert.Len(t, c.AmbientLights, 1)

	require.Len(t, c.Birds, 2)
	assert.Equal(t, "Bird.001", c.Birds[0].Name)
	assert.NotNil(t, s.Camera())
}

func TestScene_Refresh(t *testing.T) {
	root := testTree()
	s := NewScene("test", root)

	bird := s.Collections().Birds[0]
	bird.Local = mgl32.Translate3D(4, 0, 0)
	lamp := root.Children()[2]
	lamp.Local = mgl32.Translate3D(0, 10, 0)
	s.Refresh()

	c := s.Collections()
	assert.Equal(t, mgl32.Vec3{4, 5, 0}, c.Meshes[2].Model.Col(3).Vec3())
	assert.Equal(t, mgl32.Vec3{1, 11, 1}, c.PointLights[0].WorldPosition())
}

func TestScene_AddLight(t *testing.T) {
	s := NewScene("empty", NewNode("root", mgl32.Ident4()))
	assert.Empty(t, s.Collections().PointLights)

	s.AddLight(light.NewLight(light.LightTypePoint, light.WithPosition(3, 4, 5), light.WithPower(1000)))
	require.Len(t, s.Collections().PointLights, 1)
	assert.Equal(t, "point_light", s.Root().Children()[0].Name)
}

func TestNode_Reparent(t *testing.T) {
	a := NewNode("a", mgl32.Ident4())
	b := NewNode("b", mgl32.Ident4())
	c := a.AddChild(NewNode("c", mgl32.Translate3D(1, 0, 0)))

	b.AddChild(c)
	assert.Empty(t, a.Children())
	assert.Same(t, b, c.Parent())
}

func TestNewScene_PanicsOnNilRoot(t *testing.T) {
	assert.Panics(t, func() { NewScene("x", nil) })
}
