package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULight is the GPU-aligned representation of the light a lighting or ambient pass evaluates.
// Matches the WGSL Light struct in the renderer's shader assets.
// Size: 96 bytes (WGSL uniform aligned).
type GPULight struct {
	ShadowViewProj [16]float32 // offset  0: shadow camera view-projection (point lights)
	Position       [3]float32  // offset 64: world-space position
	LightType      uint32      // offset 76: 0 = point, 1 = ambient
	Radiance       [3]float32  // offset 80: colour * power
	ShadowBias     float32     // offset 92: depth comparison bias
}

// NewGPULight snapshots a light into its GPU layout. The shadow matrix is only filled for
// shadow-casting lights.
//
// Parameters:
//   - l: the light
//   - s: the shadow settings used to build the shadow camera
//
// Returns:
//   - GPULight: the uniform block
func NewGPULight(l Light, s ShadowSettings) GPULight {
	g := GPULight{
		Position:   l.WorldPosition(),
		LightType:  uint32(l.Type()),
		Radiance:   l.Radiance(),
		ShadowBias: s.Bias,
	}
	if l.CastsShadows() {
		g.ShadowViewProj = l.ShadowCamera(s).ViewProjectionMatrix()
	}
	return g
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ShadowViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(buf[80+i*4:], math.Float32bits(g.Radiance[i]))
	}
	binary.LittleEndian.PutUint32(buf[76:], g.LightType)
	binary.LittleEndian.PutUint32(buf[92:], math.Float32bits(g.ShadowBias))
	return buf
}
