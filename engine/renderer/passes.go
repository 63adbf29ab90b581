package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// PassKind selects the pipeline a Pass is executed with.
type PassKind int

const (
	// PassShadow renders scene meshes into a light's depth-only target.
	PassShadow PassKind = iota

	// PassOceanShadow renders the ocean mesh into a light's depth-only target.
	PassOceanShadow

	// PassGeometry writes positions, normals and material data into the G-buffer.
	PassGeometry

	// PassOceanGeometry writes the displaced ocean surface into the G-buffer.
	PassOceanGeometry

	// PassLighting accumulates one point light's contribution from the G-buffer.
	PassLighting

	// PassAmbient accumulates one ambient light's contribution from the G-buffer.
	PassAmbient

	// PassSky fills pixels with no geometry using the analytic sky model.
	PassSky

	// PassClear clears the accumulation target when nothing else writes it.
	PassClear

	// PassDownsample builds one mip level of the accumulation target from the level above.
	PassDownsample

	// PassBlurHorizontal is the horizontal half of a separable Gaussian blur.
	PassBlurHorizontal

	// PassBlurVertical is the vertical half of a separable Gaussian blur.
	PassBlurVertical

	// PassMerge combines the accumulation target with the bloom levels and tone-maps to the surface.
	PassMerge

	// PassFlat draws scene meshes unlit to the surface.
	PassFlat

	// PassOceanFlat draws the ocean mesh unlit to the surface.
	PassOceanFlat

	// PassForward draws scene meshes lit by one point light and the ambient term to the surface.
	PassForward

	// PassOceanForward draws the ocean mesh lit by one point light and the ambient term to the surface.
	PassOceanForward

	passKindCount
)

var passKindNames = [passKindCount]string{
	PassShadow:         "shadow",
	PassOceanShadow:    "ocean_shadow",
	PassGeometry:       "geometry",
	PassOceanGeometry:  "ocean_geometry",
	PassLighting:       "lighting",
	PassAmbient:        "ambient",
	PassSky:            "sky",
	PassClear:          "clear",
	PassDownsample:     "downsample",
	PassBlurHorizontal: "blur_horizontal",
	PassBlurVertical:   "blur_vertical",
	PassMerge:          "merge",
	PassFlat:           "flat",
	PassOceanFlat:      "ocean_flat",
	PassForward:        "forward",
	PassOceanForward:   "ocean_forward",
}

func (k PassKind) String() string {
	if k >= 0 && k < passKindCount {
		return passKindNames[k]
	}
	return fmt.Sprintf("pass_%d", int(k))
}

// Ocean reports whether the pass draws the ocean mesh and reads the published ocean fields.
func (k PassKind) Ocean() bool {
	switch k {
	case PassOceanShadow, PassOceanGeometry, PassOceanFlat, PassOceanForward:
		return true
	}
	return false
}

// Mesh is a backend-owned GPU copy of a scene.Mesh.
type Mesh interface {
	// Label returns the name of the mesh the buffers were created from.
	Label() string

	// IndexCount returns the number of indices drawn for the mesh.
	IndexCount() int
}

// Attachment references one attachment of a Target as a pass input.
type Attachment struct {
	Target Target

	// Index selects a colour attachment, or DepthIndex for the depth attachment.
	Index int

	// Level selects a single mip level, or AllLevels for the whole chain.
	Level int
}

// Draw is one mesh drawn by a pass.
type Draw struct {
	Mesh     Mesh
	Model    mgl32.Mat4
	Material scene.Material
}

// Pass is a single render pass: one output, its inputs and its draws. Passes are the only unit
// of work the backend executes, and they are executed in the order they are issued.
type Pass struct {
	Kind  PassKind
	Label string

	// Output is the target written by the pass, or nil for the presentation surface.
	Output      Target
	OutputLevel int

	// Clear clears every output attachment before drawing; otherwise the previous contents are
	// loaded. Additive blends fragment output onto the loaded contents.
	Clear    bool
	Additive bool

	Inputs   []Attachment
	Draws    []Draw
	Uniforms GPUPassUniform
}

// Reads reports whether the pass reads any attachment of t.
func (p *Pass) Reads(t Target) bool {
	for _, in := range p.Inputs {
		if in.Target == t {
			return true
		}
	}
	return false
}
