package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
)

const (
	initialPassSlots = 64
	initialDrawSlots = 1024
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	logger zerolog.Logger

	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	// surfaceDepth is the depth attachment of flat and forward frames drawn straight to the
	// surface. It is recreated with the surface.
	surfaceDepth     *wgpu.Texture
	surfaceDepthView *wgpu.TextureView

	// Layouts shared by every pipeline, and the bind groups built against them.
	passLayout     *wgpu.BindGroupLayout
	drawLayout     *wgpu.BindGroupLayout
	emptyLayout    *wgpu.BindGroupLayout
	oceanLayout    *wgpu.BindGroupLayout
	materialLayout *wgpu.BindGroupLayout
	emptyGroup     *wgpu.BindGroup

	// whiteTexture is bound by meshes whose material has no base colour texture.
	whiteTexture bind_group_provider.BindGroupProvider

	pipelines   map[PassKind]pipeline.Pipeline
	inputGroups map[string]*wgpu.BindGroup

	// samplers holds one sampler per samplerKind, keyed by kind.
	samplers bind_group_provider.BindGroupProvider

	oceanFields  bind_group_provider.BindGroupProvider
	oceanSizes   [ocean.SlotCount]int
	oceanScratch []byte

	passUniforms *uniformRing
	drawUniforms *uniformRing

	// Frame state for batching every pass of a frame into one submission.
	frameEncoder *wgpu.CommandEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend creates the instance, surface, adapter and device, then the layouts and
// samplers shared by every pass. Adapter or device failure panics.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, logger zerolog.Logger) RendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:           &sync.Mutex{},
		logger:       logger.With().Str("component", "wgpu").Logger(),
		instance:     wgpu.CreateInstance(nil),
		presentMode:  wgpu.PresentModeImmediate,
		pipelines:    map[PassKind]pipeline.Pipeline{},
		inputGroups:  map[string]*wgpu.BindGroup{},
		oceanFields:  bind_group_provider.NewBindGroupProvider("ocean fields"),
		passUniforms: newUniformRing("pass uniforms", PassUniformSize, PassUniformStride, initialPassSlots),
		drawUniforms: newUniformRing("draw uniforms", DrawUniformSize, DrawUniformStride, initialDrawSlots),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	if err := w.initShared(); err != nil {
		panic(err)
	}
	return w
}

func (b *wgpuRendererBackendImpl) initShared() error {
	for _, l := range []struct {
		dst  **wgpu.BindGroupLayout
		desc wgpu.BindGroupLayoutDescriptor
	}{
		{&b.passLayout, passGroupLayout},
		{&b.drawLayout, drawGroupLayout},
		{&b.emptyLayout, emptyGroupLayout},
		{&b.oceanLayout, oceanGroupLayout},
		{&b.materialLayout, materialGroupLayout},
	} {
		layout, err := b.device.CreateBindGroupLayout(&l.desc)
		if err != nil {
			return fmt.Errorf("failed to create %s layout: %w", l.desc.Label, err)
		}
		*l.dst = layout
	}

	empty, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "empty Bind Group",
		Layout: b.emptyLayout,
	})
	if err != nil {
		return err
	}
	b.emptyGroup = empty

	comparison, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create comparison sampler: %w", err)
	}
	linear, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Linear Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		comparison.Release()
		return fmt.Errorf("failed to create linear sampler: %w", err)
	}
	samplers := []bind_group_provider.BindGroupProviderOption{
		bind_group_provider.WithSampler(int(comparisonSampler), comparison),
		bind_group_provider.WithSampler(int(linearSampler), linear),
	}

	// Material textures repeat, as glTF samplers do by default.
	for _, m := range []struct {
		kind   samplerKind
		label  string
		filter wgpu.FilterMode
	}{
		{materialLinearSampler, "Material Linear Sampler", wgpu.FilterModeLinear},
		{materialNearestSampler, "Material Nearest Sampler", wgpu.FilterModeNearest},
	} {
		sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
			Label:         m.label,
			AddressModeU:  wgpu.AddressModeRepeat,
			AddressModeV:  wgpu.AddressModeRepeat,
			AddressModeW:  wgpu.AddressModeRepeat,
			MagFilter:     m.filter,
			MinFilter:     m.filter,
			MipmapFilter:  wgpu.MipmapFilterModeNearest,
			LodMaxClamp:   32,
			MaxAnisotropy: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", m.label, err)
		}
		samplers = append(samplers, bind_group_provider.WithSampler(int(m.kind), sampler))
	}
	b.samplers = bind_group_provider.NewBindGroupProvider("samplers", samplers...)

	white, whiteView, err := b.uploadTexture(&scene.Texture{Name: "white", Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}})
	if err != nil {
		return fmt.Errorf("failed to create white texture: %w", err)
	}
	b.whiteTexture = bind_group_provider.NewBindGroupProvider("white texel")
	b.whiteTexture.SetTexture(0, white, whiteView)
	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	// Merge, flat and forward shaders encode sRGB themselves.
	b.surfaceFormat = capabilities.Formats[0]
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			b.surfaceFormat = f
			break
		}
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.surfaceDepth != nil {
		b.surfaceDepthView.Release()
		b.surfaceDepth.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.surfaceDepth = depthTexture
	b.surfaceDepthView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// Surface pipelines depend on the surface format.
	for kind, p := range b.pipelines {
		if pipelineSpecs[kind].surface {
			p.Release()
			delete(b.pipelines, kind)
		}
	}

	b.logger.Debug().Int("width", width).Int("height", height).Uint32("format", uint32(b.surfaceFormat)).Msg("surface configured")
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A surface texture still held means the previous frame was never presented; acquiring
	// another one would fail validation.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) Encode(p *Pass) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}

	if p.Kind == PassClear {
		desc, err := b.renderPassDescriptor(p, pipelineSpec{colors: hdrFormat})
		if err != nil {
			return err
		}
		b.frameEncoder.BeginRenderPass(desc).End()
		return nil
	}

	pl, spec, err := b.pipelineFor(p.Kind)
	if err != nil {
		return err
	}
	desc, err := b.renderPassDescriptor(p, spec)
	if err != nil {
		return err
	}

	passGroup, passOffset, err := b.passUniforms.push(b, b.passLayout, p.Uniforms.Marshal)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Label, err)
	}

	var inputs, oceanFields *wgpu.BindGroup
	if spec.oceanTexture {
		if oceanFields, err = b.oceanGroup(); err != nil {
			return fmt.Errorf("%s: %w", p.Label, err)
		}
	}
	if !spec.mesh {
		if inputs, err = b.inputGroup(p, spec, pl); err != nil {
			return fmt.Errorf("%s: %w", p.Label, err)
		}
	}

	// Draw uniforms are written before the pass begins.
	drawGroups := make([]*wgpu.BindGroup, len(p.Draws))
	drawOffsets := make([]uint32, len(p.Draws))
	for i := range p.Draws {
		d := &p.Draws[i]
		u := NewGPUDrawUniform(d.Model, d.Material)
		if drawGroups[i], drawOffsets[i], err = b.drawUniforms.push(b, b.drawLayout, u.Marshal); err != nil {
			return fmt.Errorf("%s: %w", p.Label, err)
		}
	}

	pass := b.frameEncoder.BeginRenderPass(desc)
	pass.SetPipeline(pl.RenderPipeline())
	pass.SetBindGroup(0, passGroup, []uint32{passOffset})

	if spec.mesh {
		if oceanFields != nil {
			pass.SetBindGroup(2, oceanFields, nil)
		}
		for i, d := range p.Draws {
			mesh, ok := d.Mesh.(bind_group_provider.BindGroupProvider)
			if !ok {
				pass.End()
				return fmt.Errorf("%s: mesh %s was not created by this backend", p.Label, d.Mesh.Label())
			}
			pass.SetBindGroup(1, drawGroups[i], []uint32{drawOffsets[i]})
			if spec.material {
				pass.SetBindGroup(2, mesh.BindGroup(), nil)
			}
			pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
			pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			pass.DrawIndexed(uint32(mesh.IndexCount()), 1, 0, 0, 0)
		}
	} else {
		pass.SetBindGroup(1, b.emptyGroup, nil)
		pass.SetBindGroup(2, inputs, nil)
		pass.Draw(3, 1, 0, 0)
	}

	pass.End()
	return nil
}

// renderPassDescriptor builds the attachments of p. A nil output renders to the surface, with
// the backend-owned depth texture when the pipeline tests depth.
func (b *wgpuRendererBackendImpl) renderPassDescriptor(p *Pass, spec pipelineSpec) (*wgpu.RenderPassDescriptor, error) {
	loadOp := wgpu.LoadOpLoad
	if p.Clear {
		loadOp = wgpu.LoadOpClear
	}
	desc := &wgpu.RenderPassDescriptor{Label: p.Label}

	if p.Output == nil {
		bg := p.Uniforms.Background
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:       b.frameView,
			LoadOp:     loadOp,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(bg[0]), G: float64(bg[1]), B: float64(bg[2]), A: 1},
		}}
		if spec.depth {
			desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
				View:            b.surfaceDepthView,
				DepthLoadOp:     loadOp,
				DepthStoreOp:    wgpu.StoreOpStore,
				DepthClearValue: 1.0,
			}
		}
		return desc, nil
	}

	t, ok := p.Output.(*wgpuTarget)
	if !ok {
		return nil, fmt.Errorf("%s: target %s was not created by this backend", p.Label, p.Output.Label())
	}
	if spec.fragment != "" || p.Kind == PassClear {
		for i := range t.colors {
			view, err := t.view(i, p.OutputLevel)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Label, err)
			}
			desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
				View:       view,
				LoadOp:     loadOp,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			})
		}
	}
	if spec.depth {
		view, err := t.view(DepthIndex, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Label, err)
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}
	return desc, nil
}

// inputGroup returns the group 2 bind group of a fullscreen pass. Groups are cached by kind and
// input views until a target is released.
func (b *wgpuRendererBackendImpl) inputGroup(p *Pass, spec pipelineSpec, pl pipeline.Pipeline) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(spec.inputSlots))
	key := p.Kind.String()
	for i, slot := range spec.inputSlots {
		entry := wgpu.BindGroupEntry{Binding: uint32(i)}
		if slot.sampler != noSampler {
			entry.Sampler = b.samplers.Sampler(int(slot.sampler))
			entries = append(entries, entry)
			continue
		}
		if slot.input >= len(p.Inputs) {
			return nil, fmt.Errorf("missing input %d", slot.input)
		}
		in := p.Inputs[slot.input]
		t, ok := in.Target.(*wgpuTarget)
		if !ok {
			return nil, fmt.Errorf("input %d was not created by this backend", slot.input)
		}
		view, err := t.view(in.Index, in.Level)
		if err != nil {
			return nil, err
		}
		entry.TextureView = view
		entries = append(entries, entry)
		key += fmt.Sprintf("|%p", view)
	}

	if bg, ok := b.inputGroups[key]; ok {
		return bg, nil
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.Label + " Bind Group",
		Layout:  pl.Layout(2),
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.inputGroups[key] = bg
	return bg, nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.dropFrame()
		return err
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil

	// Present the acquired surface image and release local references.
	b.surface.Present()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameView = nil
	b.frameSurface = nil

	b.passUniforms.reset()
	b.drawUniforms.reset()
	return nil
}

func (b *wgpuRendererBackendImpl) AbortFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropFrame()
}

func (b *wgpuRendererBackendImpl) dropFrame() {
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	b.passUniforms.reset()
	b.drawUniforms.reset()
}
