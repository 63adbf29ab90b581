package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// extractMeshes converts every glTF mesh into one scene.Mesh per triangle primitive.
// The result is indexed like doc.Meshes so nodes can share meshes.
//
// Parameters:
//   - p: a parser holding a loaded document
//   - materials: the converted materials, indexed like doc.Materials
//
// Returns:
//   - [][]*scene.Mesh: the converted primitives per glTF mesh
//   - error: error if an accessor cannot be read
func extractMeshes(p gltfParser, materials []scene.Material) ([][]*scene.Mesh, error) {
	doc := p.Document()
	out := make([][]*scene.Mesh, len(doc.Meshes))

	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
				continue
			}
			name := gm.Name
			if name == "" {
				name = fmt.Sprintf("mesh_%d", mi)
			}
			if len(gm.Primitives) > 1 {
				name = fmt.Sprintf("%s_%d", name, pi)
			}

			m, err := extractPrimitive(p, prim, name)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
			}
			m.Material = scene.DefaultMaterial()
			if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(materials) {
				m.Material = materials[*prim.Material]
			}
			out[mi] = append(out[mi], m)
		}
	}
	return out, nil
}

func extractPrimitive(p gltfParser, prim gltfPrimitive, name string) (*scene.Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}

	m := &scene.Mesh{Name: name}
	var err error
	if m.Positions, err = p.ReadVec3Accessor(posIdx); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	if prim.Indices != nil {
		if m.Indices, err = p.ReadIndicesAccessor(*prim.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		m.Indices = make([]uint32, len(m.Positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return nil, fmt.Errorf("index %d out of range for %d vertices", idx, len(m.Positions))
		}
	}

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if m.Normals, err = p.ReadVec3Accessor(idx); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if len(m.Normals) != len(m.Positions) {
		m.Normals = generateNormals(m.Positions, m.Indices)
	}

	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if m.UVs, err = p.ReadVec2Accessor(idx); err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
		if len(m.UVs) != len(m.Positions) {
			m.UVs = nil
		}
	}
	return m, nil
}

// generateNormals returns area-weighted smooth vertex normals.
func generateNormals(positions []mgl32.Vec3, indices []uint32) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		n := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		} else {
			normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
	return normals
}
