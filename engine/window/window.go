package window

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the viewer window. It owns the surface the renderer presents to and forwards the few
// input events the viewer reacts to: framebuffer resizes, key presses, scroll and left-button drags.
type Window interface {
	// SetUpdateCallback sets the function run once per loop iteration after events are polled.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function run when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the function run on vertical scroll.
	//
	// Parameters:
	//   - callback: function receiving the vertical offset, positive away from the user
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the function run on key press and repeat. Escape never reaches it;
	// Escape closes the window.
	//
	// Parameters:
	//   - callback: function receiving the pressed key
	SetKeyDownCallback(callback func(key Key))

	// SetDragCallback sets the function run when the cursor moves with the left button held.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta in pixels since the previous event
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns the platform surface descriptor for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window. Closing twice is an error.
	Close() error

	// ProcessMessages polls events and runs the update callback until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// settings is what the builder options configure before the platform window exists.
type settings struct {
	title string

	width, height int

	minWidth, minHeight int
	maxWidth, maxHeight int
}

func defaultSettings() settings {
	return settings{
		title:     "oxy-ocean",
		width:     700,
		height:    700,
		minWidth:  200,
		minHeight: 200,
		maxWidth:  3840,
		maxHeight: 2160,
	}
}

// NewWindow opens a window with the given options applied over a 700x700 default.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	s := defaultSettings()
	for _, opt := range options {
		opt(&s)
	}
	return openGLFWWindow(s)
}
