package renderer

import (
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend executes passes built by the Renderer on a GPU API. The Renderer decides what
// is drawn, into which target and in which order; the backend owns every GPU object.
type RendererBackend interface {
	// ConfigureSurface (re)configures the presentation surface and its depth attachment.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// CreateTarget allocates the textures described by desc.
	//
	// Parameters:
	//   - desc: the target descriptor
	//
	// Returns:
	//   - Target: the created target
	//   - error: an error if any attachment could not be allocated
	CreateTarget(desc TargetDesc) (Target, error)

	// ReleaseTarget frees every GPU object held by t. t must not be used afterwards.
	//
	// Parameters:
	//   - t: a target returned by CreateTarget
	ReleaseTarget(t Target)

	// CreateMesh uploads vertex and index data for m.
	//
	// Parameters:
	//   - m: the CPU-side mesh
	//
	// Returns:
	//   - Mesh: a handle usable in Draw
	//   - error: an error if buffer creation fails
	CreateMesh(m *scene.Mesh) (Mesh, error)

	// WriteOceanField uploads one normalized ocean field into its texture slot, creating or
	// resizing the texture as needed.
	//
	// Parameters:
	//   - slot: the field slot
	//   - size: the field width and height in samples
	//   - samples: size*size normalized samples, row-major
	//
	// Returns:
	//   - error: an error if the texture could not be created
	WriteOceanField(slot ocean.Slot, size int, samples []float32) error

	// BeginFrame acquires the next surface texture and opens the frame's command encoder.
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	BeginFrame() error

	// Encode records one pass into the open frame.
	//
	// Parameters:
	//   - p: the pass to record
	//
	// Returns:
	//   - error: an error if the pass cannot be recorded
	Encode(p *Pass) error

	// EndFrame submits the recorded passes and presents the surface.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// AbortFrame drops the open frame without submitting it.
	AbortFrame()
}
