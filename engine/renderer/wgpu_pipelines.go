package renderer

import (
	"embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/*.wgsl
var assets embed.FS

// shaderModule returns common.wgsl followed by the named module.
func shaderModule(name string) string {
	common, err := assets.ReadFile("assets/common.wgsl")
	if err != nil {
		panic(err)
	}
	body, err := assets.ReadFile("assets/" + name + ".wgsl")
	if err != nil {
		panic(err)
	}
	return string(common) + "\n" + string(body)
}

// meshVertexLayout is the interleaved position, normal, uv layout written by CreateMesh.
var meshVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: meshVertexStride,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

const meshVertexStride = 32

var (
	passGroupLayout = wgpu.BindGroupLayoutDescriptor{
		Label: "pass uniform",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   PassUniformSize,
			},
		}},
	}
	drawGroupLayout = wgpu.BindGroupLayoutDescriptor{
		Label: "draw uniform",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   DrawUniformSize,
			},
		}},
	}
	emptyGroupLayout = wgpu.BindGroupLayoutDescriptor{Label: "empty"}
)

func textureEntry(binding uint32, stage wgpu.ShaderStage, sample wgpu.TextureSampleType) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: stage,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    sample,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
}

func samplerEntry(binding uint32, kind wgpu.SamplerBindingType) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageFragment,
		Sampler:    wgpu.SamplerBindingLayout{Type: kind},
	}
}

// inputSlot maps one entry of group 2 to a pass input or a backend sampler.
type inputSlot struct {
	input   int
	sampler samplerKind
}

type samplerKind int

const (
	noSampler samplerKind = iota
	comparisonSampler
	linearSampler
	materialLinearSampler
	materialNearestSampler
)

// pipelineSpec describes the pipeline of one pass kind.
type pipelineSpec struct {
	module   string
	vertex   string
	fragment string

	colors  []wgpu.TextureFormat
	surface bool
	depth   bool
	mesh    bool
	blend   bool
	shadow  bool

	inputs       []wgpu.BindGroupLayoutEntry
	inputSlots   []inputSlot
	oceanTexture bool
	material     bool
}

var (
	gbufferFormats = []wgpu.TextureFormat{
		wgpu.TextureFormatRGBA32Float,
		wgpu.TextureFormatRGBA16Float,
		wgpu.TextureFormatRGBA8Unorm,
	}
	hdrFormat = []wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}

	frag = wgpu.ShaderStageFragment
)

func gbufferEntries() []wgpu.BindGroupLayoutEntry {
	return []wgpu.BindGroupLayoutEntry{
		textureEntry(0, frag, wgpu.TextureSampleTypeUnfilterableFloat),
		textureEntry(1, frag, wgpu.TextureSampleTypeUnfilterableFloat),
		textureEntry(2, frag, wgpu.TextureSampleTypeUnfilterableFloat),
	}
}

func inputsOf(n int) []inputSlot {
	out := make([]inputSlot, n)
	for i := range out {
		out[i].input = i
	}
	return out
}

// pipelineSpecs lists every pass kind that draws. PassClear has no pipeline.
var pipelineSpecs = map[PassKind]pipelineSpec{
	PassShadow: {module: "mesh", vertex: "vs_shadow", depth: true, mesh: true, shadow: true},
	PassOceanShadow: {
		module: "ocean", vertex: "vs_ocean_shadow", depth: true, mesh: true, shadow: true, oceanTexture: true,
	},
	PassGeometry: {
		module: "mesh", vertex: "vs_mesh", fragment: "fs_geometry", colors: gbufferFormats, depth: true, mesh: true, material: true,
	},
	PassOceanGeometry: {
		module: "ocean", vertex: "vs_ocean", fragment: "fs_ocean_geometry",
		colors: gbufferFormats, depth: true, mesh: true, oceanTexture: true,
	},
	PassLighting: {
		module: "lighting", vertex: "vs_fullscreen", fragment: "fs_lighting", colors: hdrFormat, blend: true,
		inputs: append(gbufferEntries(),
			textureEntry(3, frag, wgpu.TextureSampleTypeDepth),
			samplerEntry(4, wgpu.SamplerBindingTypeComparison),
		),
		inputSlots: append(inputsOf(4), inputSlot{sampler: comparisonSampler}),
	},
	PassAmbient: {
		module: "lighting", vertex: "vs_fullscreen", fragment: "fs_ambient", colors: hdrFormat, blend: true,
		inputs: gbufferEntries(), inputSlots: inputsOf(3),
	},
	PassSky: {
		module: "sky", vertex: "vs_fullscreen", fragment: "fs_sky", colors: hdrFormat, blend: true,
		inputs:     []wgpu.BindGroupLayoutEntry{textureEntry(0, frag, wgpu.TextureSampleTypeDepth)},
		inputSlots: inputsOf(1),
	},
	PassDownsample: {
		module: "post", vertex: "vs_fullscreen", fragment: "fs_downsample", colors: hdrFormat,
		inputs: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, frag, wgpu.TextureSampleTypeFloat),
			samplerEntry(1, wgpu.SamplerBindingTypeFiltering),
		},
		inputSlots: []inputSlot{{input: 0}, {sampler: linearSampler}},
	},
	PassBlurHorizontal: {
		module: "post", vertex: "vs_fullscreen", fragment: "fs_blur", colors: hdrFormat,
		inputs:     []wgpu.BindGroupLayoutEntry{textureEntry(0, frag, wgpu.TextureSampleTypeFloat)},
		inputSlots: inputsOf(1),
	},
	PassBlurVertical: {
		module: "post", vertex: "vs_fullscreen", fragment: "fs_blur", colors: hdrFormat,
		inputs:     []wgpu.BindGroupLayoutEntry{textureEntry(0, frag, wgpu.TextureSampleTypeFloat)},
		inputSlots: inputsOf(1),
	},
	PassMerge: {
		module: "post", vertex: "vs_fullscreen", fragment: "fs_merge", surface: true,
		inputs: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, frag, wgpu.TextureSampleTypeFloat),
			samplerEntry(1, wgpu.SamplerBindingTypeFiltering),
			textureEntry(2, frag, wgpu.TextureSampleTypeFloat),
		},
		inputSlots: []inputSlot{{input: 0}, {sampler: linearSampler}, {input: 1}},
	},
	PassFlat: {
		module: "mesh", vertex: "vs_mesh", fragment: "fs_flat", surface: true, depth: true, mesh: true, material: true,
	},
	PassForward: {
		module: "mesh", vertex: "vs_mesh", fragment: "fs_forward", surface: true, depth: true, mesh: true, material: true,
	},
	PassOceanFlat: {
		module: "ocean", vertex: "vs_ocean", fragment: "fs_ocean_flat", surface: true, depth: true, mesh: true, oceanTexture: true,
	},
	PassOceanForward: {
		module: "ocean", vertex: "vs_ocean", fragment: "fs_ocean_forward", surface: true, depth: true, mesh: true, oceanTexture: true,
	},
}

var oceanGroupLayout = wgpu.BindGroupLayoutDescriptor{
	Label: "ocean fields",
	Entries: []wgpu.BindGroupLayoutEntry{
		textureEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, wgpu.TextureSampleTypeUnfilterableFloat),
		textureEntry(1, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, wgpu.TextureSampleTypeUnfilterableFloat),
		textureEntry(2, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, wgpu.TextureSampleTypeUnfilterableFloat),
	},
}

// materialGroupLayout is group 2 of the textured mesh passes: the base colour texture and one
// sampler per TextureFilter.
var materialGroupLayout = wgpu.BindGroupLayoutDescriptor{
	Label: "material",
	Entries: []wgpu.BindGroupLayoutEntry{
		textureEntry(0, frag, wgpu.TextureSampleTypeFloat),
		samplerEntry(1, wgpu.SamplerBindingTypeFiltering),
		samplerEntry(2, wgpu.SamplerBindingTypeFiltering),
	},
}

// describePipeline turns a spec into a pipeline description. Surface formats are only known
// after ConfigureSurface, so pipelines are described and created on first use.
func (b *wgpuRendererBackendImpl) describePipeline(kind PassKind, spec pipelineSpec) pipeline.Pipeline {
	groups := []wgpu.BindGroupLayoutDescriptor{passGroupLayout}
	switch {
	case spec.mesh:
		groups = append(groups, drawGroupLayout)
		if spec.oceanTexture {
			groups = append(groups, oceanGroupLayout)
		}
		if spec.material {
			groups = append(groups, materialGroupLayout)
		}
	default:
		groups = append(groups, emptyGroupLayout, wgpu.BindGroupLayoutDescriptor{
			Label:   kind.String() + " inputs",
			Entries: spec.inputs,
		})
	}

	colors := spec.colors
	if spec.surface {
		colors = []wgpu.TextureFormat{b.surfaceFormat}
	}

	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithEntryPoints(spec.vertex, spec.fragment),
		pipeline.WithColorFormats(colors...),
		pipeline.WithBindGroupLayouts(groups...),
		pipeline.WithBlendEnabled(spec.blend),
	}
	if spec.mesh {
		opts = append(opts, pipeline.WithVertexLayouts(meshVertexLayout))
	}
	if spec.depth {
		opts = append(opts, pipeline.WithDepthFormat(wgpu.TextureFormatDepth32Float))
	} else {
		opts = append(opts, pipeline.WithDepthTestEnabled(false), pipeline.WithDepthWriteEnabled(false))
	}
	if spec.shadow {
		opts = append(opts, pipeline.WithDepthBias(2, 2))
	}
	return pipeline.NewPipeline(kind.String(), shaderModule(spec.module), opts...)
}

// pipelineFor returns the created pipeline for kind, creating it on first use.
func (b *wgpuRendererBackendImpl) pipelineFor(kind PassKind) (pipeline.Pipeline, pipelineSpec, error) {
	spec, ok := pipelineSpecs[kind]
	if !ok {
		return nil, spec, fmt.Errorf("no pipeline for pass kind %s", kind)
	}
	if p := b.pipelines[kind]; p != nil {
		return p, spec, nil
	}
	p := b.describePipeline(kind, spec)
	if err := b.registerRenderPipeline(p); err != nil {
		return nil, spec, fmt.Errorf("failed to create %s pipeline: %w", kind, err)
	}
	b.pipelines[kind] = p
	b.logger.Debug().Str("pipeline", p.PipelineKey()).Msg("pipeline created")
	return p, spec, nil
}

// registerRenderPipeline creates the shader module, bind group layouts, pipeline layout and
// render pipeline for p and stores them on p.
func (b *wgpuRendererBackendImpl) registerRenderPipeline(p pipeline.Pipeline) error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.PipelineKey(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Source(),
		},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	layouts := make([]*wgpu.BindGroupLayout, 0, len(p.BindGroupLayouts()))
	for g, desc := range p.BindGroupLayouts() {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			for _, l := range layouts {
				l.Release()
			}
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		layouts = append(layouts, layout)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntry(),
			Buffers:    p.VertexLayouts(),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	if p.FragmentEntry() != "" {
		targets := make([]wgpu.ColorTargetState, 0, len(p.ColorFormats()))
		for _, f := range p.ColorFormats() {
			state := wgpu.ColorTargetState{
				Format:    f,
				WriteMask: p.WriteMask(),
			}
			if p.BlendEnabled() {
				state.Blend = p.BlendState()
			}
			targets = append(targets, state)
		}
		desc.Fragment = &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntry(),
			Targets:    targets,
		}
	}

	if p.DepthFormat() != wgpu.TextureFormatUndefined {
		depthCompare := wgpu.CompareFunctionLess
		if !p.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:              p.DepthFormat(),
			DepthWriteEnabled:   p.DepthWriteEnabled(),
			DepthCompare:        depthCompare,
			DepthBias:           p.DepthBias(),
			DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(desc)
	if err != nil {
		for _, l := range layouts {
			l.Release()
		}
		return err
	}

	p.SetRenderPipeline(created, layouts)
	return nil
}
