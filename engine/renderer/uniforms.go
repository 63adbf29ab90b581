package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// PassUniformSize is the WGSL size of the Pass uniform struct.
const PassUniformSize = 448

// PassUniformStride is the distance between consecutive pass uniforms in the per-frame buffer.
const PassUniformStride = 512

// DrawUniformSize is the WGSL size of the Draw uniform struct.
const DrawUniformSize = 160

// DrawUniformStride is the distance between consecutive draw uniforms in the per-frame buffer.
const DrawUniformStride = 256

// Pass flag bits.
const (
	FlagPCF uint32 = 1 << iota
	FlagOcean
	FlagShadows
	// FlagNearest samples material textures with the nearest texel instead of bilinear filtering.
	FlagNearest
)

// GPUPassUniform is the per-pass uniform block shared by every pass shader.
// Matches the WGSL Pass struct in assets/common.wgsl.
//
// Layout:
//
//	Camera        camera       (144 bytes, offset   0)
//	Light         light        ( 96 bytes, offset 144)
//	vec4<f32>     ocean_a      ( 16 bytes, offset 240) decode offsets + patch size
//	vec4<f32>     ocean_b      ( 16 bytes, offset 256) decode scales + grid size
//	f32 u32 u32 u32            ( 16 bytes, offset 272) exposure, level, radius, direction
//	vec4<f32>[4]  weights      ( 64 bytes, offset 288)
//	vec3<f32> u32              ( 16 bytes, offset 352) ambient, bloom count
//	vec4<u32>     bloom_levels ( 16 bytes, offset 368)
//	vec4<f32>     bloom_weights( 16 bytes, offset 384)
//	vec3<f32> f32              ( 16 bytes, offset 400) sun direction, turbidity
//	vec3<f32> u32              ( 16 bytes, offset 416) background, flags
//	vec2<f32> vec2<f32>        ( 16 bytes, offset 432) viewport, texel size
type GPUPassUniform struct {
	Camera       camera.GPUCameraUniform
	Light        light.GPULight
	OceanA       [4]float32
	OceanB       [4]float32
	Exposure     float32
	Level        uint32
	Radius       uint32
	Direction    uint32
	Weights      [16]float32
	Ambient      [3]float32
	BloomCount   uint32
	BloomLevels  [4]uint32
	BloomWeights [4]float32
	SunDir       [3]float32
	Turbidity    float32
	Background   [3]float32
	Flags        uint32
	Viewport     [2]float32
	TexelSize    [2]float32
}

// Marshal writes the uniform into dst, which must be at least PassUniformSize bytes.
//
// Parameters:
//   - dst: destination buffer
func (u *GPUPassUniform) Marshal(dst []byte) {
	copy(dst[0:144], u.Camera.Marshal())
	copy(dst[144:240], u.Light.Marshal())
	putFloats(dst[240:], u.OceanA[:])
	putFloats(dst[256:], u.OceanB[:])
	putFloats(dst[272:], []float32{u.Exposure})
	binary.LittleEndian.PutUint32(dst[276:], u.Level)
	binary.LittleEndian.PutUint32(dst[280:], u.Radius)
	binary.LittleEndian.PutUint32(dst[284:], u.Direction)
	putFloats(dst[288:], u.Weights[:])
	putFloats(dst[352:], u.Ambient[:])
	binary.LittleEndian.PutUint32(dst[364:], u.BloomCount)
	for i, l := range u.BloomLevels {
		binary.LittleEndian.PutUint32(dst[368+i*4:], l)
	}
	putFloats(dst[384:], u.BloomWeights[:])
	putFloats(dst[400:], u.SunDir[:])
	putFloats(dst[412:], []float32{u.Turbidity})
	putFloats(dst[416:], u.Background[:])
	binary.LittleEndian.PutUint32(dst[428:], u.Flags)
	putFloats(dst[432:], u.Viewport[:])
	putFloats(dst[440:], u.TexelSize[:])
}

// GPUDrawUniform is the per-draw uniform block.
// Matches the WGSL Draw struct in assets/common.wgsl.
//
// Layout:
//
//	mat4x4<f32> model      (64 bytes, offset   0)
//	mat4x4<f32> normal     (64 bytes, offset  64) inverse transpose of model
//	vec4<f32>   base_color (16 bytes, offset 128)
//	f32 f32 vec2<f32>      (16 bytes, offset 144) roughness, metallic, padding
type GPUDrawUniform struct {
	Model     [16]float32
	Normal    [16]float32
	BaseColor [4]float32
	Roughness float32
	Metallic  float32
}

// NewGPUDrawUniform builds the draw block for a model matrix and material.
func NewGPUDrawUniform(model mgl32.Mat4, m scene.Material) GPUDrawUniform {
	return GPUDrawUniform{
		Model:     model,
		Normal:    model.Inv().Transpose(),
		BaseColor: m.BaseColor,
		Roughness: m.Roughness,
		Metallic:  m.Metallic,
	}
}

// Marshal writes the uniform into dst, which must be at least DrawUniformSize bytes.
func (u *GPUDrawUniform) Marshal(dst []byte) {
	putFloats(dst[0:], u.Model[:])
	putFloats(dst[64:], u.Normal[:])
	putFloats(dst[128:], u.BaseColor[:])
	putFloats(dst[144:], []float32{u.Roughness, u.Metallic, 0, 0})
}

func putFloats(dst []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}
