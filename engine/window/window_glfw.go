package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow implements Window on GLFW. All methods must run on the thread that opened it.
type glfwWindow struct {
	win *glfw.Window

	width, height int
	closed        bool

	dragging     bool
	lastX, lastY float64

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(key Key)
	onDrag    func(dx, dy float32)
}

var _ Window = &glfwWindow{}

// openGLFWWindow creates the GLFW window without a client API, since WebGPU owns presentation.
func openGLFWWindow(s settings) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initializing glfw: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(s.width, s.height, s.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating glfw window: %w", err)
	}
	win.SetSizeLimits(s.minWidth, s.minHeight, s.maxWidth, s.maxHeight)

	w := &glfwWindow{win: win}
	// The framebuffer can differ from the requested size on high-DPI displays.
	w.width, w.height = win.GetFramebufferSize()

	win.SetKeyCallback(w.handleKey)
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})
	win.SetMouseButtonCallback(w.handleButton)
	win.SetCursorPosCallback(w.handleCursor)
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	return w, nil
}

func (w *glfwWindow) handleKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.win.SetShouldClose(true)
		return
	}
	if action == glfw.Release || w.onKeyDown == nil {
		return
	}
	if k := keyFromGLFW(key); k != KeyUnknown {
		w.onKeyDown(k)
	}
}

func (w *glfwWindow) handleButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	w.dragging = action == glfw.Press
	w.lastX, w.lastY = w.win.GetCursorPos()
}

// handleCursor reports deltas from the previous cursor event while dragging.
func (w *glfwWindow) handleCursor(_ *glfw.Window, x, y float64) {
	if w.dragging && w.onDrag != nil {
		w.onDrag(float32(x-w.lastX), float32(y-w.lastY))
	}
	w.lastX, w.lastY = x, y
}

func (w *glfwWindow) SetUpdateCallback(callback func()) { w.onUpdate = callback }

func (w *glfwWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }

func (w *glfwWindow) SetScrollCallback(callback func(delta float32)) { w.onScroll = callback }

func (w *glfwWindow) SetKeyDownCallback(callback func(key Key)) { w.onKeyDown = callback }

func (w *glfwWindow) SetDragCallback(callback func(dx, dy float32)) { w.onDrag = callback }

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.closed {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.win)
}

func (w *glfwWindow) IsRunning() bool {
	return !w.closed && !w.win.ShouldClose()
}

func (w *glfwWindow) Close() error {
	if w.closed {
		return errors.New("window already closed")
	}
	w.closed = true
	w.win.Destroy()
	glfw.Terminate()
	return nil
}

func (w *glfwWindow) ProcessMessages() {
	for w.IsRunning() {
		glfw.PollEvents()
		if !w.IsRunning() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *glfwWindow) Width() int { return w.width }

func (w *glfwWindow) Height() int { return w.height }
