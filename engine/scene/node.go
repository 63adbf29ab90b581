package scene

import (
	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Texture is a decoded 8-bit sRGB image, 4 bytes per pixel, rows top to bottom.
type Texture struct {
	Name   string
	Width  int
	Height int
	Pixels []byte
}

// Material holds the surface parameters written into the G-buffer. When BaseColorTexture is set
// its samples are multiplied by BaseColor.
type Material struct {
	BaseColor        mgl32.Vec4
	BaseColorTexture *Texture
	Roughness        float32
	Metallic         float32
}

// DefaultMaterial is a mid grey dielectric.
func DefaultMaterial() Material {
	return Material{
		BaseColor: mgl32.Vec4{0.8, 0.8, 0.8, 1},
		Roughness: 0.5,
	}
}

// Mesh is an indexed triangle list in the node's local space.
// Normals and UVs are either empty or the same length as Positions.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
	Material  Material
}

// Node is one element of the scene tree. A node carries a local transform and optionally meshes
// and a light; its world transform is the product of its ancestors' local transforms.
type Node struct {
	Name   string
	Local  mgl32.Mat4
	Meshes []*Mesh
	Light  light.Light

	parent   *Node
	children []*Node
}

// NewNode creates a detached node.
//
// Parameters:
//   - name: the node name
//   - local: the local transform
//
// Returns:
//   - *Node: the node
func NewNode(name string, local mgl32.Mat4) *Node {
	return &Node{Name: name, Local: local}
}

// AddChild reparents c under n and returns c.
func (n *Node) AddChild(c *Node) *Node {
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
	return c
}

// Parent returns the parent node, nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children in insertion order.
func (n *Node) Children() []*Node { return n.children }

// World returns the node-to-world transform.
func (n *Node) World() mgl32.Mat4 {
	m := n.Local
	for p := n.parent; p != nil; p = p.parent {
		m = p.Local.Mul4(m)
	}
	return m
}

func (n *Node) removeChild(c *Node) {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}
