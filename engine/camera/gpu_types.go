package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform is the GPU-aligned camera block shared by every pass shader.
// Matches the WGSL Camera struct in the renderer's shader assets.
// Size: 144 bytes (WGSL uniform aligned).
type GPUCameraUniform struct {
	ViewProj    [16]float32 // offset   0: combined view-projection matrix
	InvViewProj [16]float32 // offset  64: inverse view-projection, used to rebuild rays in the sky pass
	Eye         [3]float32  // offset 128: world-space eye position
	_pad        float32     // offset 140
}

// NewGPUCameraUniform snapshots a camera into its GPU layout.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - GPUCameraUniform: the uniform block
func NewGPUCameraUniform(c Camera) GPUCameraUniform {
	vp := c.ViewProjectionMatrix()
	return GPUCameraUniform{
		ViewProj:    vp,
		InvViewProj: vp.Inv(),
		Eye:         c.Eye(),
	}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.InvViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.Eye[i]))
	}
	binary.LittleEndian.PutUint32(buf[140:], 0) // _pad
	return buf
}
