package scene

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// BirdNameMarker is the substring that marks a node as a flock member.
const BirdNameMarker = "Bird"

// Walk visits root and all descendants depth first, parents before children, passing each
// node's accumulated world transform.
//
// Parameters:
//   - root: the first node visited
//   - visit: called once per node
func Walk(root *Node, visit func(n *Node, world mgl32.Mat4)) {
	walk(root, mgl32.Ident4(), visit)
}

func walk(n *Node, parent mgl32.Mat4, visit func(*Node, mgl32.Mat4)) {
	world := parent.Mul4(n.Local)
	visit(n, world)
	for _, c := range n.children {
		walk(c, world, visit)
	}
}

// Collect walks the tree and gathers every value pick accepts, in walk order.
//
// Parameters:
//   - root: the tree to walk
//   - pick: returns the value for a node and whether to keep it
//
// Returns:
//   - []T: the collected values
func Collect[T any](root *Node, pick func(n *Node, world mgl32.Mat4) (T, bool)) []T {
	var out []T
	Walk(root, func(n *Node, world mgl32.Mat4) {
		if v, ok := pick(n, world); ok {
			out = append(out, v)
		}
	})
	return out
}

// MeshInstance is a mesh placed in the world by its owning node.
type MeshInstance struct {
	Mesh  *Mesh
	Node  *Node
	Model mgl32.Mat4
}

// Collections are the typed views of a scene tree consumed by the renderer and the flock.
type Collections struct {
	Meshes        []MeshInstance
	PointLights   []light.Light
	AmbientLights []light.Light
	Birds         []*Node

	lightNodes map[light.Light]*Node
}

// collect builds every collection in one pass per kind and stores each light's node transform.
func collect(root *Node) *Collections {
	c := &Collections{lightNodes: make(map[light.Light]*Node)}

	perNode := Collect(root, func(n *Node, world mgl32.Mat4) ([]MeshInstance, bool) {
		out := make([]MeshInstance, len(n.Meshes))
		for i, m := range n.Meshes {
			out[i] = MeshInstance{Mesh: m, Node: n, Model: world}
		}
		return out, len(out) > 0
	})
	for _, instances := range perNode {
		c.Meshes = append(c.Meshes, instances...)
	}

	lights := func(kind light.LightType) func(*Node, mgl32.Mat4) (light.Light, bool) {
		return func(n *Node, world mgl32.Mat4) (light.Light, bool) {
			if n.Light == nil || n.Light.Type() != kind {
				return nil, false
			}
			n.Light.SetNodeToWorld(world)
			c.lightNodes[n.Light] = n
			return n.Light, true
		}
	}
	c.PointLights = Collect(root, lights(light.LightTypePoint))
	c.AmbientLights = Collect(root, lights(light.LightTypeAmbient))

	c.Birds = Collect(root, func(n *Node, _ mgl32.Mat4) (*Node, bool) {
		return n, strings.Contains(n.Name, BirdNameMarker)
	})
	return c
}
