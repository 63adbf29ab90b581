// gltf_types.go contains the subset of the glTF 2.0 schema the importer reads: the node tree,
// triangle meshes, metallic-roughness factors with base colour textures, perspective cameras and
// KHR_lights_punctual.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

// GLB container constants.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
const (
	gltfGLBMagic     uint32 = 0x46546C67 // "glTF"
	gltfGLBVersion   uint32 = 2
	gltfGLBChunkJSON uint32 = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  uint32 = 0x004E4942 // "BIN\0"
)

// Accessor component types.
const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126
)

// Accessor element types.
const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec2   = "VEC2"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
	gltfAccessorTypeMat4   = "MAT4"
)

// gltfPrimitiveModeTriangles is the only primitive mode the importer keeps.
const gltfPrimitiveModeTriangles = 4

// gltfGLBHeader is the 12-byte GLB file header.
type gltfGLBHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// gltfGLBChunkHeader precedes each GLB chunk.
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

// gltfDocument represents the root of a glTF JSON document.
type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       *int             `json:"scene,omitempty"`
	Scenes      []gltfScene      `json:"scenes,omitempty"`
	Nodes       []gltfNode       `json:"nodes,omitempty"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
	Materials   []gltfMaterial   `json:"materials,omitempty"`
	Textures    []gltfTexture    `json:"textures,omitempty"`
	Images      []gltfImage      `json:"images,omitempty"`
	Cameras     []gltfCamera     `json:"cameras,omitempty"`
	Extensions  *gltfDocumentExt `json:"extensions,omitempty"`
}

type gltfAsset struct {
	// Version is the glTF version (required, must be "2.0").
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is a node in the node hierarchy. A node has either Matrix or any of
// Translation/Rotation/Scale.
type gltfNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Camera      *int         `json:"camera,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"`
	Scale       *[3]float32  `json:"scale,omitempty"`
	Extensions  *gltfNodeExt `json:"extensions,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive maps attribute semantics (POSITION, NORMAL, TEXCOORD_0) to accessor indices.
type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       *int           `json:"mode,omitempty"`
}

type gltfAccessor struct {
	BufferView    *int   `json:"bufferView,omitempty"`
	ByteOffset    int    `json:"byteOffset,omitempty"`
	ComponentType int    `json:"componentType"`
	Normalized    bool   `json:"normalized,omitempty"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
	Sparse        *struct {
		Count int `json:"count"`
	} `json:"sparse,omitempty"`
}

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	// Data is filled by the parser from the URI or the GLB binary chunk.
	Data []byte `json:"-"`
}

type gltfMaterial struct {
	Name string `json:"name,omitempty"`
	PBR  *struct {
		BaseColorFactor  *[4]float32      `json:"baseColorFactor,omitempty"`
		BaseColorTexture *gltfTextureInfo `json:"baseColorTexture,omitempty"`
		MetallicFactor   *float32         `json:"metallicFactor,omitempty"`
		RoughnessFactor  *float32         `json:"roughnessFactor,omitempty"`
	} `json:"pbrMetallicRoughness,omitempty"`
}

// gltfTextureInfo references a texture. Only TEXCOORD_0 is imported.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-textureinfo
type gltfTextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

// gltfTexture points at an image. Sampler settings are ignored; filtering is a renderer setting.
type gltfTexture struct {
	Name   string `json:"name,omitempty"`
	Source *int   `json:"source,omitempty"`
}

// gltfImage is a texture image held in a bufferView, a data URI or an external file.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-image
type gltfImage struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

type gltfCamera struct {
	Type        string `json:"type"`
	Perspective *struct {
		AspectRatio *float32 `json:"aspectRatio,omitempty"`
		Yfov        float32  `json:"yfov"`
		Zfar        *float32 `json:"zfar,omitempty"`
		Znear       float32  `json:"znear"`
	} `json:"perspective,omitempty"`
}

// KHR_lights_punctual.
// Reference: https://github.com/KhronosGroup/glTF/tree/main/extensions/2.0/Khronos/KHR_lights_punctual
type gltfDocumentExt struct {
	LightsPunctual *struct {
		Lights []gltfLight `json:"lights"`
	} `json:"KHR_lights_punctual,omitempty"`
}

type gltfNodeExt struct {
	LightsPunctual *struct {
		Light int `json:"light"`
	} `json:"KHR_lights_punctual,omitempty"`
}

// gltfLight is a punctual light. Type is "point", "spot" or "directional"; the importer also
// accepts "ambient".
type gltfLight struct {
	Name      string      `json:"name,omitempty"`
	Type      string      `json:"type"`
	Color     *[3]float32 `json:"color,omitempty"`
	Intensity *float32    `json:"intensity,omitempty"`
}
