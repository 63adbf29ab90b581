package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangleBuffer holds three float32 positions followed by three uint16 indices.
func triangleBuffer(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 0, -1}
	indices := []uint16{0, 1, 2}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, positions))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, indices))
	return buf.Bytes()
}

const triangleDocument = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"name": "tri", "nodes": [0, 2, 3]}],
  "nodes": [
    {"name": "Ground", "mesh": 0, "translation": [0, 2, 0], "children": [1]},
    {"name": "Bird_1", "translation": [1, 0, 0]},
    {"name": "Lamp", "translation": [0, 5, 0], "extensions": {"KHR_lights_punctual": {"light": 0}}},
    {"name": "Sky", "extensions": {"KHR_lights_punctual": {"light": 1}}}
  ],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "materials": [{"pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "roughnessFactor": 0.25, "metallicFactor": 0}}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [{%s"byteLength": 42}],
  "extensions": {"KHR_lights_punctual": {"lights": [
    {"type": "point", "color": [1, 0.5, 0.25], "intensity": 100},
    {"name": "fill", "type": "ambient", "intensity": 0.2}
  ]}}
}`

func embeddedTriangle(t *testing.T) string {
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(triangleBuffer(t))
	return fmt.Sprintf(triangleDocument, `"uri": "`+uri+`", `)
}

func pad4(b []byte, fill byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, fill)
	}
	return b
}

func glbContainer(t *testing.T, version uint32) []byte {
	t.Helper()
	jsonChunk := pad4([]byte(fmt.Sprintf(triangleDocument, "")), ' ')
	binChunk := pad4(triangleBuffer(t), 0)

	var out bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: version, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON}))
	out.Write(jsonChunk)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(binChunk)), ChunkType: gltfGLBChunkBIN}))
	out.Write(binChunk)
	return out.Bytes()
}

func TestLoadReader_EmbeddedTriangle(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	s, err := l.LoadReader("tri", strings.NewReader(embeddedTriangle(t)), false)
	require.NoError(t, err)
	assert.Equal(t, "tri", s.Name())

	c := s.Collections()
	require.Len(t, c.Meshes, 1)
	m := c.Meshes[0]
	assert.Equal(t, []uint32{0, 1, 2}, m.Mesh.Indices)
	require.Len(t, m.Mesh.Positions, 3)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, m.Mesh.Positions[1])
	require.Len(t, m.Mesh.Normals, 3)
	assert.InDelta(t, 1.0, m.Mesh.Normals[0].Y(), 1e-6)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, m.Mesh.Material.BaseColor)
	assert.InDelta(t, 0.25, m.Mesh.Material.Roughness, 1e-6)
	assert.InDelta(t, 2.0, m.Model.Col(3).Y(), 1e-6)

	require.Len(t, c.PointLights, 1)
	assert.InDelta(t, 100.0, c.PointLights[0].Power(), 1e-6)
	assert.InDelta(t, 5.0, c.PointLights[0].WorldPosition().Y(), 1e-6)
	require.Len(t, c.AmbientLights, 1)
	assert.Equal(t, "fill", c.AmbientLights[0].Name())

	require.Len(t, c.Birds, 1)
	assert.Equal(t, "Bird_1", c.Birds[0].Name)

	// No camera node: the default camera is used.
	assert.Equal(t, mgl32.Vec3{3, 4, 5}, s.Camera().Eye())

	assert.Same(t, s, l.Get("tri"))
}

func TestLoadReader_GLB(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	s, err := l.LoadReader("tri.glb", bytes.NewReader(glbContainer(t, 2)), true)
	require.NoError(t, err)
	require.Len(t, s.Collections().Meshes, 1)
	assert.Len(t, s.Collections().Meshes[0].Mesh.Positions, 3)
}

func TestLoadReader_BadGLBVersion(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.LoadReader("bad.glb", bytes.NewReader(glbContainer(t, 1)), true)
	require.Error(t, err)

	var ie *ImportError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "bad.glb", ie.Path)
	assert.ErrorIs(t, err, errInvalidGLBVersion)
	assert.Nil(t, l.Get("bad.glb"))
}

func TestLoad_FileWithExternalBuffer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), triangleBuffer(t), 0o644))
	doc := fmt.Sprintf(triangleDocument, `"uri": "tri.bin", `)
	path := filepath.Join(dir, "tri.gltf")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	l := NewLoader(BackendTypeGLTF)
	s, err := l.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Collections().Meshes, 1)

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestLoad_Errors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load("scene.obj")
	var ie *ImportError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, err.Error(), "unsupported scene format")

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.gltf"))
	require.True(t, errors.As(err, &ie))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = l.LoadReader("v1", strings.NewReader(`{"asset": {"version": "1.0"}}`), false)
	assert.ErrorIs(t, err, errInvalidGLTFVersion)
}

func TestImport_CameraNode(t *testing.T) {
	doc := `{
	  "asset": {"version": "2.0"},
	  "nodes": [{"name": "cam", "camera": 0, "translation": [0, 1, 10]}],
	  "cameras": [{"type": "perspective", "perspective": {"yfov": 0.5, "znear": 0.5, "zfar": 50}}]
	}`
	s, err := NewLoader(BackendTypeGLTF).LoadReader("cam", strings.NewReader(doc), false)
	require.NoError(t, err)

	cam := s.Camera()
	assert.Equal(t, mgl32.Vec3{0, 1, 10}, cam.Eye())
	assert.True(t, cam.Target().ApproxEqual(mgl32.Vec3{0, 1, 9}))
	assert.InDelta(t, 0.5, cam.Fov(), 1e-6)
	assert.InDelta(t, 50.0, cam.Far(), 1e-6)
}

func TestGenerateNormals_Degenerate(t *testing.T) {
	n := generateNormals([]mgl32.Vec3{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}, []uint32{0, 1, 2})
	for _, v := range n {
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, v)
	}
}

// stripePNG encodes a 2x1 image: a red texel followed by a blue one.
func stripePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// texturedBuffer holds three positions, three UVs and three uint16 indices.
func texturedBuffer(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 0, 1, 0, 0, 0, 0, -1}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []float32{0, 0, 1, 0, 0, 1}))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 2}))
	return buf.Bytes()
}

const texturedDocument = `{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "Ground", "mesh": 0}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0, "TEXCOORD_0": 1}, "indices": 2, "material": 0}]}],
  "materials": [{"name": "stripes", "pbrMetallicRoughness": {"baseColorFactor": [1, 1, 1, 0.5], "baseColorTexture": {"index": 0}}}],
  "textures": [{"source": 0}],
  "images": [{"name": "stripes", "uri": "%s"}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC2"},
    {"bufferView": 2, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 24},
    {"buffer": 0, "byteOffset": 60, "byteLength": 6}
  ],
  "buffers": [{"uri": "%s", "byteLength": 66}]
}`

func texturedTriangle(t *testing.T, img []byte) string {
	t.Helper()
	imageURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
	bufferURI := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(texturedBuffer(t))
	return fmt.Sprintf(texturedDocument, imageURI, bufferURI)
}

func TestLoadReader_EmbeddedImageTexture(t *testing.T) {
	s, err := NewLoader(BackendTypeGLTF).LoadReader("textured", strings.NewReader(texturedTriangle(t, stripePNG(t))), false)
	require.NoError(t, err)

	c := s.Collections()
	require.Len(t, c.Meshes, 1)
	m := c.Meshes[0].Mesh
	require.Len(t, m.UVs, 3)
	assert.Equal(t, mgl32.Vec2{1, 0}, m.UVs[1])
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 0.5}, m.Material.BaseColor)

	tex := m.Material.BaseColorTexture
	require.NotNil(t, tex)
	assert.Equal(t, "stripes", tex.Name)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 1, tex.Height)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, tex.Pixels)
}

func TestLoadReader_UndecodableImage(t *testing.T) {
	_, err := NewLoader(BackendTypeGLTF).LoadReader("broken", strings.NewReader(texturedTriangle(t, []byte("not an image"))), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode image")
}

func TestExtractMaterials_BufferViewImageIsShared(t *testing.T) {
	img := stripePNG(t)
	doc := fmt.Sprintf(`{
	  "asset": {"version": "2.0"},
	  "materials": [
	    {"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}},
	    {"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}},
	    {}
	  ],
	  "textures": [{"name": "shared", "source": 0}],
	  "images": [{"bufferView": 0, "mimeType": "image/png"}],
	  "bufferViews": [{"buffer": 0, "byteLength": %d}],
	  "buffers": [{"uri": "data:application/octet-stream;base64,%s", "byteLength": %d}]
	}`, len(img), base64.StdEncoding.EncodeToString(img), len(img))

	p := newGLTFParser()
	require.NoError(t, p.ParseReader(strings.NewReader(doc), false))
	materials, err := extractMaterials(p)
	require.NoError(t, err)
	require.Len(t, materials, 3)

	require.NotNil(t, materials[0].BaseColorTexture)
	assert.Same(t, materials[0].BaseColorTexture, materials[1].BaseColorTexture)
	assert.Equal(t, "shared", materials[0].BaseColorTexture.Name)
	assert.Nil(t, materials[2].BaseColorTexture)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, materials[2].BaseColor)
}
