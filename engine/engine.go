package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/Carmen-Shannon/oxy-ocean/engine/flock"
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/Carmen-Shannon/oxy-ocean/engine/window"
	"github.com/rs/zerolog"
)

// dragStep is the cursor travel in pixels that makes one orbit step.
const dragStep = 8

// engine implements the Engine interface.
type engine struct {
	mu     sync.Mutex
	logger zerolog.Logger
	now    func() time.Time

	window     window.Window
	renderer   renderer.Renderer
	scene      scene.Scene
	ocean      ocean.Ocean
	flock      flock.Flock
	controller camera.CameraController

	profiler         *profiler.Profiler
	profilingEnabled bool

	updateCallback   func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	started   time.Time
	lastFrame time.Time
	dragX     float32
	dragY     float32

	err      error
	quitOnce sync.Once
}

// Engine drives the viewer one frame at a time on the window's thread. Each frame runs, in order:
// the flock, the ocean simulation and upload, the renderer's passes, then the profiler.
type Engine interface {
	// Window returns the underlying window, nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Scene returns the scene being drawn.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// EnableProfiler enables periodic profiler output.
	EnableProfiler()

	// DisableProfiler disables periodic profiler output.
	DisableProfiler()

	// SetUpdateCallback registers a function called at the start of every frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetUpdateCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// HandleKey applies the viewer key bindings: 1, 2 and 3 select flat, forward and deferred
	// shading; B, P, A and S toggle bloom, point lights, ambient lights and the sky.
	//
	// Parameters:
	//   - key: the pressed key
	HandleKey(key window.Key)

	// Step runs one frame.
	//
	// Returns:
	//   - error: the first stage error; rendering errors wrap the renderer's error
	Step() error

	// Run steps a frame every window message loop iteration until the window closes or a frame
	// fails. The window is closed when Run returns.
	//
	// Returns:
	//   - error: the error that stopped the loop, nil when the window was closed
	Run() error

	// Quit closes the window, ending Run after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine. A renderer and a scene are required; the window, ocean and
// flock are optional. The scene is uploaded to the renderer here.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if a required collaborator is missing or the scene upload fails
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		return nil, errors.New("engine: a renderer is required")
	}
	if e.scene == nil {
		return nil, errors.New("engine: a scene is required")
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	if err := e.renderer.LoadScene(e.scene); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if e.ocean != nil {
		if err := e.renderer.SetOcean(e.ocean); err != nil {
			return nil, fmt.Errorf("set ocean: %w", err)
		}
	}
	e.controller = camera.NewOrbitController(e.scene.Camera())

	if e.window != nil {
		e.window.SetResizeCallback(e.renderer.Resize)
		e.window.SetKeyDownCallback(e.HandleKey)
		e.window.SetScrollCallback(e.controller.Zoom)
		e.window.SetDragCallback(e.drag)
	}

	e.started = e.now()
	e.lastFrame = e.started
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = true
	e.mu.Unlock()
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	e.profilingEnabled = false
	e.mu.Unlock()
}

func (e *engine) SetUpdateCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	e.updateCallback = callback
	e.mu.Unlock()
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) HandleKey(key window.Key) {
	r := e.renderer
	switch key {
	case window.Key1:
		r.SetShadingMode(renderer.ShadingFlat)
	case window.Key2:
		r.SetShadingMode(renderer.ShadingForward)
	case window.Key3:
		r.SetShadingMode(renderer.ShadingDeferred)
	case window.KeyB, window.KeyP, window.KeyA, window.KeyS:
		s := r.Settings()
		switch key {
		case window.KeyB:
			s.Bloom = !s.Bloom
		case window.KeyP:
			s.PointLights = !s.PointLights
		case window.KeyA:
			s.AmbientLights = !s.AmbientLights
		case window.KeyS:
			s.Sky = !s.Sky
		}
		r.SetSettings(s)
	default:
		return
	}
	e.logger.Debug().Stringer("mode", r.ShadingMode()).Msg("view changed")
}

// drag turns accumulated cursor travel into orbit steps.
func (e *engine) drag(dx, dy float32) {
	e.dragX += dx
	e.dragY += dy
	for ; e.dragX >= dragStep; e.dragX -= dragStep {
		e.controller.OrbitLeft()
	}
	for ; e.dragX <= -dragStep; e.dragX += dragStep {
		e.controller.OrbitRight()
	}
	for ; e.dragY >= dragStep; e.dragY -= dragStep {
		e.controller.OrbitUp()
	}
	for ; e.dragY <= -dragStep; e.dragY += dragStep {
		e.controller.OrbitDown()
	}
}

func (e *engine) Step() error {
	e.mu.Lock()
	callback := e.updateCallback
	profiling := e.profilingEnabled
	e.mu.Unlock()

	now := e.now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now
	t := now.Sub(e.started).Seconds()

	if callback != nil {
		callback(dt)
	}

	if e.flock != nil {
		stop := e.profiler.Time(profiler.StageFlock)
		e.flock.Update(dt)
		e.scene.Refresh()
		stop()
	}

	if e.ocean != nil {
		stop := e.profiler.Time(profiler.StageOcean)
		err := e.ocean.Publish(t, e.renderer)
		stop()
		if err != nil {
			return fmt.Errorf("ocean: %w", err)
		}
	}

	stop := e.profiler.Time(profiler.StageRender)
	err := e.renderer.Frame()
	stop()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if profiling {
		if _, err := e.profiler.Tick(); err != nil {
			e.logger.Warn().Err(err).Msg("profiler sink failed")
		}
	}
	return nil
}

func (e *engine) Run() error {
	if e.window == nil {
		return errors.New("engine: Run requires a window")
	}

	e.window.SetUpdateCallback(func() {
		frameStart := e.now()
		if err := e.Step(); err != nil {
			e.err = err
			e.Quit()
			return
		}

		e.mu.Lock()
		limit := e.renderFrameLimit
		e.mu.Unlock()
		if limit > 0 {
			if remaining := limit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})
	e.window.ProcessMessages()
	e.Quit()
	return e.err
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		if e.window == nil {
			return
		}
		if err := e.window.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("window close failed")
		}
	})
}
