package renderer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// ErrNoScene is returned by Frame when no scene has been loaded.
var ErrNoScene = errors.New("no scene loaded")

// oceanMaterial is the surface material of the ocean mesh.
var oceanMaterial = scene.Material{
	BaseColor: mgl32.Vec4{0.02, 0.12, 0.22, 1},
	Roughness: 0.15,
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	logger      zerolog.Logger

	mode     ShadingMode
	settings Settings

	// width and height are the requested viewport; surfaceWidth and surfaceHeight are what the
	// backend surface was last configured with.
	width, height               int
	surfaceWidth, surfaceHeight int

	targets targetSet

	scene  scene.Scene
	meshes map[*scene.Mesh]Mesh

	ocean       ocean.Ocean
	oceanMesh   Mesh
	oceanDecode [2][4]float32

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer sequences the render passes of a frame and hands them to a backend.
//
// A frame is a flat list of passes built by one function per shading mode. In deferred mode the
// renderer owns a G-buffer, an accumulation target, two bloom targets and one shadow target per
// point light; they are created the first time deferred mode renders, reused across frames and
// mode switches, and rebuilt only when the viewport changes.
//
// The Renderer is also the ocean.Publisher that uploads the simulated ocean fields.
type Renderer interface {
	ocean.Publisher

	// Backend returns the backend passes are executed on.
	//
	// Returns:
	//   - RendererBackend: the backend
	Backend() RendererBackend

	// ShadingMode returns the current shading mode.
	//
	// Returns:
	//   - ShadingMode: the shading mode
	ShadingMode() ShadingMode

	// SetShadingMode switches the shading mode from the next frame on. Switching never
	// allocates targets by itself.
	//
	// Parameters:
	//   - mode: the new shading mode
	SetShadingMode(mode ShadingMode)

	// Settings returns a copy of the current pass settings.
	//
	// Returns:
	//   - Settings: the settings
	Settings() Settings

	// SetSettings replaces the pass settings from the next frame on.
	//
	// Parameters:
	//   - s: the new settings
	SetSettings(s Settings)

	// Resize records a new viewport size. The surface and every viewport-sized target are
	// rebuilt at the start of the next frame, before any pass runs.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Viewport returns the requested viewport size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Viewport() (int, int)

	// LoadScene uploads every mesh of s and makes it the scene drawn by Frame.
	//
	// Parameters:
	//   - s: the scene
	//
	// Returns:
	//   - error: an error if a mesh upload fails
	LoadScene(s scene.Scene) error

	// SetOcean enables the ocean passes for o, or disables them when o is nil.
	//
	// Parameters:
	//   - o: the ocean simulation, or nil
	//
	// Returns:
	//   - error: an error if the ocean mesh upload fails
	SetOcean(o ocean.Ocean) error

	// Frame builds and executes every pass of one frame, then presents it. If a render target
	// cannot be allocated the frame is abandoned before any pass runs and the returned error
	// wraps ErrTargetAllocation.
	//
	// Returns:
	//   - error: an error if the frame could not be rendered
	Frame() error
}

var _ Renderer = &renderer{}

// Surface is what the renderer needs from a window: a platform surface to present to and its
// framebuffer size. window.Window satisfies it.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// NewRenderer creates a new Renderer on a GPU backend bound to the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the surface to present to, providing its initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, win Surface, options ...RendererBuilderOption) Renderer {
	r := newRenderer(win.Width(), win.Height(), options...)
	r.backendType = backendType

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, r.logger)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	return r
}

// NewRendererWithBackend creates a Renderer that executes its passes on an existing backend.
//
// Parameters:
//   - backend: the backend to use
//   - width: initial viewport width in pixels
//   - height: initial viewport height in pixels
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
func NewRendererWithBackend(backend RendererBackend, width, height int, options ...RendererBuilderOption) Renderer {
	r := newRenderer(width, height, options...)
	r.backend = backend
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	return r
}

func newRenderer(width, height int, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:       &sync.Mutex{},
		logger:   zerolog.Nop(),
		mode:     ShadingDeferred,
		settings: DefaultSettings(),
		width:    width,
		height:   height,
		meshes:   make(map[*scene.Mesh]Mesh),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) ShadingMode() ShadingMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *renderer) SetShadingMode(mode ShadingMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode != r.mode {
		r.logger.Info().Stringer("mode", mode).Msg("shading mode changed")
	}
	r.mode = mode
}

func (r *renderer) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings.clone()
}

func (r *renderer) SetSettings(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = s.clone()
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
}

func (r *renderer) Viewport() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) LoadScene(s scene.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inst := range s.Collections().Meshes {
		if _, ok := r.meshes[inst.Mesh]; ok {
			continue
		}
		m, err := r.backend.CreateMesh(inst.Mesh)
		if err != nil {
			return fmt.Errorf("upload mesh %q: %w", inst.Mesh.Name, err)
		}
		r.meshes[inst.Mesh] = m
	}
	r.scene = s

	c := s.Collections()
	r.logger.Info().
		Str("scene", s.Name()).
		Int("meshes", len(c.Meshes)).
		Int("point_lights", len(c.PointLights)).
		Int("ambient_lights", len(c.AmbientLights)).
		Msg("scene loaded")
	return nil
}

func (r *renderer) SetOcean(o ocean.Ocean) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o == nil {
		r.ocean, r.oceanMesh = nil, nil
		return nil
	}
	m, err := r.backend.CreateMesh(o.Mesh())
	if err != nil {
		return fmt.Errorf("upload ocean mesh: %w", err)
	}
	r.ocean, r.oceanMesh = o, m
	return nil
}

func (r *renderer) PublishOcean(f *ocean.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for s := range ocean.SlotCount {
		field := f.Field(s)
		if err := r.backend.WriteOceanField(s, field.Size, field.Samples); err != nil {
			return fmt.Errorf("write %s: %w", s, err)
		}
	}

	patch := float32(0)
	if r.ocean != nil {
		patch = r.ocean.PatchSize()
	}
	r.oceanDecode = [2][4]float32{
		{f.Displacement.A, f.GradX.A, f.GradZ.A, patch},
		{f.Displacement.B, f.GradX.B, f.GradZ.B, float32(f.Displacement.Size)},
	}
	return nil
}

func (r *renderer) Frame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scene == nil {
		return ErrNoScene
	}
	if r.width <= 0 || r.height <= 0 {
		return nil
	}
	if r.surfaceWidth != r.width || r.surfaceHeight != r.height {
		r.backend.ConfigureSurface(r.width, r.height)
		r.surfaceWidth, r.surfaceHeight = r.width, r.height
		r.scene.Camera().SetAspect(float32(r.width) / float32(r.height))
	}

	var (
		passes []Pass
		err    error
	)
	switch r.mode {
	case ShadingFlat:
		passes = r.flatPasses()
	case ShadingForward:
		passes = r.forwardPasses()
	default:
		passes, err = r.deferredPasses()
	}
	if err != nil {
		return err
	}

	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	for i := range passes {
		if err := r.backend.Encode(&passes[i]); err != nil {
			r.backend.AbortFrame()
			return fmt.Errorf("encode %s: %w", passes[i].Label, err)
		}
	}
	if err := r.backend.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

// flatPasses draws every mesh unlit to the surface.
func (r *renderer) flatPasses() []Pass {
	base := r.baseUniform(r.scene.Camera())
	passes := []Pass{{
		Kind:     PassFlat,
		Label:    "flat",
		Clear:    true,
		Draws:    r.sceneDraws(),
		Uniforms: base,
	}}
	if r.ocean != nil {
		passes = append(passes, Pass{
			Kind:     PassOceanFlat,
			Label:    "ocean_flat",
			Draws:    r.oceanDraws(),
			Uniforms: base,
		})
	}
	return passes
}

// forwardPasses draws every mesh lit by the first enabled point light and the summed ambient
// lights to the surface.
func (r *renderer) forwardPasses() []Pass {
	base := r.baseUniform(r.scene.Camera())
	c := r.scene.Collections()

	if r.settings.PointLights {
		for _, l := range c.PointLights {
			if l.Enabled() {
				base.Light = light.NewGPULight(l, r.settings.Shadow)
				break
			}
		}
	}
	base.Ambient = r.ambientSum(c.AmbientLights)

	passes := []Pass{{
		Kind:     PassForward,
		Label:    "forward",
		Clear:    true,
		Draws:    r.sceneDraws(),
		Uniforms: base,
	}}
	if r.ocean != nil {
		passes = append(passes, Pass{
			Kind:     PassOceanForward,
			Label:    "ocean_forward",
			Draws:    r.oceanDraws(),
			Uniforms: base,
		})
	}
	return passes
}

// deferredPasses makes sure every target matches the viewport, then returns the shadow,
// geometry, lighting, ambient, sky, bloom and merge passes in execution order.
func (r *renderer) deferredPasses() ([]Pass, error) {
	c := r.scene.Collections()
	if err := r.ensureTargets(len(c.PointLights)); err != nil {
		return nil, err
	}
	ts := &r.targets
	cam := r.scene.Camera()
	base := r.baseUniform(cam)
	draws := r.sceneDraws()

	var passes []Pass

	// Shadows
	if r.settings.PointLights {
		for i, l := range c.PointLights {
			if !l.Enabled() || !l.CastsShadows() {
				continue
			}
			u := r.baseUniform(l.ShadowCamera(r.settings.Shadow))
			u.Light = light.NewGPULight(l, r.settings.Shadow)
			passes = append(passes, Pass{
				Kind:     PassShadow,
				Label:    fmt.Sprintf("shadow_%d", i),
				Output:   ts.shadows[i],
				Clear:    true,
				Draws:    draws,
				Uniforms: u,
			})
			if r.ocean != nil {
				passes = append(passes, Pass{
					Kind:     PassOceanShadow,
					Label:    fmt.Sprintf("ocean_shadow_%d", i),
					Output:   ts.shadows[i],
					Draws:    r.oceanDraws(),
					Uniforms: u,
				})
			}
		}
	}

	// Geometry
	passes = append(passes, Pass{
		Kind:     PassGeometry,
		Label:    "geometry",
		Output:   ts.gbuffer,
		Clear:    true,
		Draws:    draws,
		Uniforms: base,
	})
	if r.ocean != nil {
		passes = append(passes, Pass{
			Kind:     PassOceanGeometry,
			Label:    "ocean_geometry",
			Output:   ts.gbuffer,
			Draws:    r.oceanDraws(),
			Uniforms: base,
		})
	}

	gbuffer := []Attachment{
		{Target: ts.gbuffer, Index: 0},
		{Target: ts.gbuffer, Index: 1},
		{Target: ts.gbuffer, Index: 2},
	}

	// The first pass to write the accumulation target clears it; later ones add to it.
	accWritten := false
	accumulate := func(p Pass) {
		p.Output = ts.acc
		p.Clear = !accWritten
		p.Additive = accWritten
		accWritten = true
		passes = append(passes, p)
	}

	// Lighting
	if r.settings.PointLights {
		for i, l := range c.PointLights {
			if !l.Enabled() {
				continue
			}
			u := base
			u.Light = light.NewGPULight(l, r.settings.Shadow)
			if r.settings.Shadow.PCF {
				u.Flags |= FlagPCF
			}
			if l.CastsShadows() {
				u.Flags |= FlagShadows
			}
			accumulate(Pass{
				Kind:     PassLighting,
				Label:    fmt.Sprintf("lighting_%d", i),
				Inputs:   append(gbuffer[:len(gbuffer):len(gbuffer)], Attachment{Target: ts.shadows[i], Index: DepthIndex}),
				Uniforms: u,
			})
		}
	}

	// Ambient
	if r.settings.AmbientLights {
		for i, l := range c.AmbientLights {
			if !l.Enabled() {
				continue
			}
			u := base
			u.Ambient = l.Radiance()
			accumulate(Pass{
				Kind:     PassAmbient,
				Label:    fmt.Sprintf("ambient_%d", i),
				Inputs:   gbuffer,
				Uniforms: u,
			})
		}
	}

	// Sky
	if r.settings.Sky {
		u := base
		u.SunDir = sunDirection(r.settings.ThetaSun)
		u.Turbidity = r.settings.Turbidity
		accumulate(Pass{
			Kind:     PassSky,
			Label:    "sky",
			Inputs:   []Attachment{{Target: ts.gbuffer, Index: DepthIndex}},
			Uniforms: u,
		})
	}

	if !accWritten {
		accumulate(Pass{Kind: PassClear, Label: "clear_accumulation", Uniforms: base})
	}

	// Bloom
	var plan []BloomLevel
	if r.settings.Bloom {
		plan = bloomPlan(r.settings.BloomLevels, ts.acc.Levels())
		passes = append(passes, r.bloomPasses(plan)...)
	}

	// Merge
	merge := Pass{
		Kind:  PassMerge,
		Label: "merge",
		Clear: true,
		Inputs: []Attachment{
			{Target: ts.acc, Index: 0, Level: 0},
			{Target: ts.temp2, Index: 0, Level: AllLevels},
		},
		Uniforms: base,
	}
	merge.Uniforms.BloomCount = uint32(len(plan))
	for i, l := range plan {
		merge.Uniforms.BloomLevels[i] = uint32(l.Level)
		merge.Uniforms.BloomWeights[i] = l.Weight
	}
	passes = append(passes, merge)

	return passes, nil
}

// baseUniform fills the fields shared by every pass viewed through cam.
func (r *renderer) baseUniform(cam camera.Camera) GPUPassUniform {
	u := GPUPassUniform{
		Camera:     camera.NewGPUCameraUniform(cam),
		Exposure:   r.settings.Exposure,
		Background: r.settings.Background,
		Viewport:   [2]float32{float32(r.width), float32(r.height)},
		TexelSize:  [2]float32{1 / float32(r.width), 1 / float32(r.height)},
	}
	if r.ocean != nil {
		u.OceanA = r.oceanDecode[0]
		u.OceanB = r.oceanDecode[1]
		u.Flags |= FlagOcean
	}
	if r.settings.TextureFilter == TextureFilterNearest {
		u.Flags |= FlagNearest
	}
	return u
}

// sceneDraws lists one draw per mesh instance at its node's current world transform.
func (r *renderer) sceneDraws() []Draw {
	instances := r.scene.Collections().Meshes
	draws := make([]Draw, 0, len(instances))
	for _, inst := range instances {
		m, ok := r.meshes[inst.Mesh]
		if !ok {
			continue
		}
		model := inst.Model
		if inst.Node != nil {
			model = inst.Node.World()
		}
		draws = append(draws, Draw{Mesh: m, Model: model, Material: inst.Mesh.Material})
	}
	return draws
}

func (r *renderer) oceanDraws() []Draw {
	return []Draw{{Mesh: r.oceanMesh, Model: mgl32.Ident4(), Material: oceanMaterial}}
}

// ambientSum adds the radiance of every enabled ambient light.
func (r *renderer) ambientSum(lights []light.Light) mgl32.Vec3 {
	var sum mgl32.Vec3
	if !r.settings.AmbientLights {
		return sum
	}
	for _, l := range lights {
		if l.Enabled() {
			sum = sum.Add(l.Radiance())
		}
	}
	return sum
}

// sunDirection converts a zenith angle into a unit vector towards the sun.
func sunDirection(theta float32) [3]float32 {
	t := float64(theta)
	return [3]float32{float32(math.Sin(t)), float32(math.Cos(t)), 0}
}
