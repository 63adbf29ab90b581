package ocean

import (
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// NewMesh builds a flat res×res cell grid on the xz plane centered at the origin with side length
// size. UVs run from 0 to 1 across the patch so the vertex stage can address the published
// textures; triangles wind counter-clockwise seen from +y.
//
// Parameters:
//   - res: cells per side (minimum 1)
//   - size: side length in world units
//
// Returns:
//   - *scene.Mesh: the patch mesh
func NewMesh(res int, size float32) *scene.Mesh {
	res = max(res, 1)
	verts := (res + 1) * (res + 1)

	m := &scene.Mesh{
		Name:      "ocean",
		Positions: make([]mgl32.Vec3, 0, verts),
		Normals:   make([]mgl32.Vec3, 0, verts),
		UVs:       make([]mgl32.Vec2, 0, verts),
		Indices:   make([]uint32, 0, res*res*6),
		Material: scene.Material{
			BaseColor: mgl32.Vec4{0.02, 0.12, 0.22, 1},
			Roughness: 0.15,
		},
	}

	step := size / float32(res)
	half := size / 2
	for j := 0; j <= res; j++ {
		for i := 0; i <= res; i++ {
			m.Positions = append(m.Positions, mgl32.Vec3{-half + float32(i)*step, 0, -half + float32(j)*step})
			m.Normals = append(m.Normals, mgl32.Vec3{0, 1, 0})
			m.UVs = append(m.UVs, mgl32.Vec2{float32(i) / float32(res), float32(j) / float32(res)})
		}
	}

	stride := uint32(res + 1)
	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			v00 := uint32(j)*stride + uint32(i)
			v10 := v00 + 1
			v01 := v00 + stride
			v11 := v01 + 1
			m.Indices = append(m.Indices, v00, v01, v10, v10, v01, v11)
		}
	}
	return m
}
