package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	desc TargetDesc
}

func (t *fakeTarget) Label() string    { return t.desc.Label }
func (t *fakeTarget) Width() int       { return t.desc.Width }
func (t *fakeTarget) Height() int      { return t.desc.Height }
func (t *fakeTarget) Levels() int      { return t.desc.Levels }
func (t *fakeTarget) Desc() TargetDesc { return t.desc }

type fakeMesh struct {
	label string
	count int
}

func (m *fakeMesh) Label() string   { return m.label }
func (m *fakeMesh) IndexCount() int { return m.count }

// recordingBackend records every call as a short event string and keeps the encoded passes.
type recordingBackend struct {
	events  []string
	passes  []Pass
	created []*fakeTarget
	live    map[*fakeTarget]bool
	fields  map[ocean.Slot]int
	failOn  string
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		live:   make(map[*fakeTarget]bool),
		fields: make(map[ocean.Slot]int),
	}
}

func (b *recordingBackend) ConfigureSurface(width, height int) {
	b.events = append(b.events, fmt.Sprintf("configure %dx%d", width, height))
}

func (b *recordingBackend) SetPresentMode(PresentMode) {}

func (b *recordingBackend) CreateTarget(desc TargetDesc) (Target, error) {
	if desc.Label == b.failOn {
		return nil, errors.New("out of memory")
	}
	t := &fakeTarget{desc: desc}
	b.created = append(b.created, t)
	b.live[t] = true
	b.events = append(b.events, fmt.Sprintf("create %s %dx%d", desc.Label, desc.Width, desc.Height))
	return t, nil
}

func (b *recordingBackend) ReleaseTarget(t Target) {
	delete(b.live, t.(*fakeTarget))
	b.events = append(b.events, "release "+t.Label())
}

func (b *recordingBackend) CreateMesh(m *scene.Mesh) (Mesh, error) {
	return &fakeMesh{label: m.Name, count: len(m.Indices)}, nil
}

func (b *recordingBackend) WriteOceanField(slot ocean.Slot, size int, samples []float32) error {
	b.fields[slot] = len(samples)
	return nil
}

func (b *recordingBackend) BeginFrame() error {
	b.events = append(b.events, "begin")
	b.passes = b.passes[:0]
	return nil
}

func (b *recordingBackend) Encode(p *Pass) error {
	for _, in := range p.Inputs {
		if !b.live[in.Target.(*fakeTarget)] {
			return fmt.Errorf("pass %s reads released target %s", p.Label, in.Target.Label())
		}
	}
	b.events = append(b.events, "pass "+p.Label)
	b.passes = append(b.passes, *p)
	return nil
}

func (b *recordingBackend) EndFrame() error {
	b.events = append(b.events, "end")
	return nil
}

func (b *recordingBackend) AbortFrame() {
	b.events = append(b.events, "abort")
}

func (b *recordingBackend) labels() []string {
	out := make([]string, len(b.passes))
	for i, p := range b.passes {
		out[i] = p.Label
	}
	return out
}

func (b *recordingBackend) index(event string) int {
	return slices.Index(b.events, event)
}

func testScene() scene.Scene {
	root := scene.NewNode("root", mgl32.Ident4())

	box := root.AddChild(scene.NewNode("box", mgl32.Translate3D(0, 1, 0)))
	box.Meshes = []*scene.Mesh{{Name: "cube", Indices: []uint32{0, 1, 2}, Material: scene.DefaultMaterial()}}

	lamp := root.AddChild(scene.NewNode("lamp", mgl32.Ident4()))
	lamp.Light = light.NewLight(light.LightTypePoint, light.WithPosition(4, 6, 2))

	sky := root.AddChild(scene.NewNode("sky", mgl32.Ident4()))
	sky.Light = light.NewLight(light.LightTypeAmbient, light.WithPower(0.2))

	return scene.NewScene("test", root)
}

func newTestRenderer(t *testing.T, width, height int, opts ...RendererBuilderOption) (Renderer, *recordingBackend) {
	t.Helper()
	b := newRecordingBackend()
	r := NewRendererWithBackend(b, width, height, opts...)
	require.NoError(t, r.LoadScene(testScene()))
	return r, b
}

func withOcean(t *testing.T, r Renderer) ocean.Ocean {
	t.Helper()
	o, err := ocean.NewOcean(ocean.WithResolution(16), ocean.WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, r.SetOcean(o))
	require.NoError(t, o.Publish(0.5, r))
	return o
}

func TestFrame_NoScene(t *testing.T) {
	r := NewRendererWithBackend(newRecordingBackend(), 640, 480)
	assert.ErrorIs(t, r.Frame(), ErrNoScene)
}

func TestFrame_DeferredOrderWithOcean(t *testing.T) {
	r, b := newTestRenderer(t, 700, 700)
	withOcean(t, r)

	require.NoError(t, r.Frame())

	want := []string{
		"shadow_0", "ocean_shadow_0",
		"geometry", "ocean_geometry",
		"lighting_0",
		"ambient_0",
		"downsample_1", "downsample_2", "downsample_3", "downsample_4",
		"downsample_5", "downsample_6", "downsample_7", "downsample_8",
		"blur_h_2", "blur_v_2",
		"blur_h_4", "blur_v_4",
		"blur_h_6", "blur_v_6",
		"blur_h_8", "blur_v_8",
		"merge",
	}
	assert.Equal(t, want, b.labels())
	assert.Equal(t, "end", b.events[len(b.events)-1])

	passes := b.passes
	assert.True(t, passes[0].Clear, "shadow pass clears its target")
	assert.False(t, passes[1].Clear, "ocean shadow loads the scene depth")
	assert.Same(t, passes[0].Output, passes[1].Output)

	lighting, ambient := passes[4], passes[5]
	assert.True(t, lighting.Clear)
	assert.False(t, lighting.Additive)
	assert.True(t, ambient.Additive)
	assert.False(t, ambient.Clear)
	require.Len(t, lighting.Inputs, 4)
	assert.Same(t, passes[0].Output, lighting.Inputs[3].Target)
	assert.Equal(t, DepthIndex, lighting.Inputs[3].Index)

	merge := passes[len(passes)-1]
	assert.Nil(t, merge.Output)
	assert.Equal(t, uint32(4), merge.Uniforms.BloomCount)
	assert.Equal(t, [4]uint32{2, 4, 6, 8}, merge.Uniforms.BloomLevels)
}

func TestFrame_ProducersBeforeConsumers(t *testing.T) {
	r, b := newTestRenderer(t, 700, 700, WithSettings(func() Settings {
		s := DefaultSettings()
		s.Sky = true
		return s
	}()))
	withOcean(t, r)
	require.NoError(t, r.Frame())

	type mip struct {
		target Target
		level  int
	}
	written := make(map[mip]bool)
	writtenAny := make(map[Target]bool)
	for _, p := range b.passes {
		for _, in := range p.Inputs {
			if in.Level == AllLevels {
				assert.True(t, writtenAny[in.Target], "%s reads %s before any write", p.Label, in.Target.Label())
				continue
			}
			assert.True(t, written[mip{in.Target, in.Level}], "%s reads %s[%d] before it is written", p.Label, in.Target.Label(), in.Level)
		}
		if p.Output != nil {
			written[mip{p.Output, p.OutputLevel}] = true
			writtenAny[p.Output] = true
		}
	}
}

func TestFrame_ResizeRebuildsTargetsBeforePasses(t *testing.T) {
	r, b := newTestRenderer(t, 700, 700)
	require.NoError(t, r.Frame())
	require.Equal(t, "configure 700x700", b.events[0])

	r.Resize(1024, 768)
	b.events = nil
	require.NoError(t, r.Frame())

	begin := b.index("begin")
	require.Positive(t, begin)
	assert.Equal(t, "configure 1024x768", b.events[0])
	for _, label := range []string{"gbuffer", "accumulation", "bloom_temp1", "bloom_temp2"} {
		release := b.index("release " + label)
		create := b.index("create " + label + " 1024x768")
		require.NotEqual(t, -1, release, label)
		require.NotEqual(t, -1, create, label)
		assert.Less(t, release, create, label)
		assert.Less(t, create, begin, label)
	}
	assert.Equal(t, -1, b.index("create shadow_0 1024x1024"), "shadow targets are not viewport sized")

	for _, p := range b.passes {
		if p.Output != nil && p.Output.Label() != "shadow_0" {
			assert.Equal(t, 1024, p.Output.Width(), p.Label)
			assert.Equal(t, 768, p.Output.Height(), p.Label)
		}
	}
	w, h := r.Viewport()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
}

func TestFrame_ModeSwitchAllocatesNothing(t *testing.T) {
	r, b := newTestRenderer(t, 800, 600, WithShadingMode(ShadingFlat))

	require.NoError(t, r.Frame())
	assert.Empty(t, b.created, "flat mode allocates no targets")
	assert.Equal(t, []string{"flat"}, b.labels())

	r.SetShadingMode(ShadingDeferred)
	require.NoError(t, r.Frame())
	allocated := len(b.created)
	require.Equal(t, 5, allocated)

	for _, mode := range []ShadingMode{ShadingForward, ShadingFlat, ShadingDeferred, ShadingForward, ShadingDeferred} {
		r.SetShadingMode(mode)
		require.NoError(t, r.Frame())
		assert.Len(t, b.created, allocated, mode.String())
	}
}

func TestFrame_ForwardUsesFirstPointLight(t *testing.T) {
	r, b := newTestRenderer(t, 320, 240, WithShadingMode(ShadingForward))
	withOcean(t, r)
	require.NoError(t, r.Frame())

	require.Equal(t, []string{"forward", "ocean_forward"}, b.labels())
	p := b.passes[0]
	assert.Nil(t, p.Output)
	assert.True(t, p.Clear)
	assert.Equal(t, [3]float32{4, 6, 2}, p.Uniforms.Light.Position)
	assert.InDelta(t, 0.2, p.Uniforms.Ambient[0], 1e-6)
	assert.NotZero(t, p.Uniforms.Flags&FlagOcean)
	assert.False(t, b.passes[1].Clear)
}

func TestFrame_ClearWhenNothingAccumulates(t *testing.T) {
	s := DefaultSettings()
	s.PointLights = false
	s.AmbientLights = false
	s.Bloom = false
	r, b := newTestRenderer(t, 64, 64, WithSettings(s))
	require.NoError(t, r.Frame())

	assert.Equal(t, []string{"geometry", "clear_accumulation", "merge"}, b.labels())
	assert.True(t, b.passes[1].Clear)
	assert.Zero(t, b.passes[2].Uniforms.BloomCount)
}

func TestFrame_TargetAllocationFailure(t *testing.T) {
	r, b := newTestRenderer(t, 700, 700)
	b.failOn = "accumulation"

	err := r.Frame()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTargetAllocation)
	assert.Equal(t, -1, b.index("begin"), "no pass may run after a failed allocation")

	b.failOn = ""
	require.NoError(t, r.Frame())
	assert.NotEqual(t, -1, b.index("begin"))
	for _, p := range b.passes {
		if p.Output != nil {
			assert.True(t, b.live[p.Output.(*fakeTarget)], p.Label)
		}
	}
}

func TestFrame_FailedResizeLeavesNoStaleTargets(t *testing.T) {
	r, b := newTestRenderer(t, 700, 700)
	require.NoError(t, r.Frame())

	r.Resize(1024, 768)
	b.failOn = "bloom_temp1"
	require.ErrorIs(t, r.Frame(), ErrTargetAllocation)

	b.failOn = ""
	r.Resize(700, 700)
	require.NoError(t, r.Frame())

	require.NotEmpty(t, b.passes)
	for _, p := range b.passes {
		if p.Output == nil || p.Output.Label() == "shadow_0" {
			continue
		}
		assert.True(t, b.live[p.Output.(*fakeTarget)], p.Label)
		assert.Equal(t, 700, p.Output.Width(), p.Label)
		assert.Equal(t, 700, p.Output.Height(), p.Label)
	}
	assert.NotEqual(t, -1, b.index("create bloom_temp1 700x700"))
}

func TestFrame_SettingsChangeKeepsTargets(t *testing.T) {
	r, b := newTestRenderer(t, 700, 700)
	require.NoError(t, r.Frame())
	allocated := len(b.created)

	s := DefaultSettings()
	s.BloomLevels = []BloomLevel{{Stdev: 2, Level: 3, Weight: 1}}
	r.SetSettings(s)
	b.events = nil
	require.NoError(t, r.Frame())
	assert.Len(t, b.created, allocated)
	assert.Equal(t, -1, b.index("release gbuffer"))
	assert.Contains(t, b.labels(), "downsample_3")
	assert.NotContains(t, b.labels(), "downsample_4")

	s.BloomLevels = []BloomLevel{{Stdev: 2, Level: 20, Weight: 1}}
	r.SetSettings(s)
	require.NoError(t, r.Frame())
	assert.Len(t, b.created, allocated)
	assert.Contains(t, b.labels(), "downsample_9")
}

func TestFrame_BloomLevelOrderIsIrrelevant(t *testing.T) {
	forward := DefaultSettings()
	reversed := DefaultSettings()
	slices.Reverse(reversed.BloomLevels)

	r1, b1 := newTestRenderer(t, 512, 512, WithSettings(forward))
	r2, b2 := newTestRenderer(t, 512, 512, WithSettings(reversed))
	require.NoError(t, r1.Frame())
	require.NoError(t, r2.Frame())

	assert.Equal(t, b1.labels(), b2.labels())
	m1, m2 := b1.passes[len(b1.passes)-1], b2.passes[len(b2.passes)-1]
	assert.Equal(t, m1.Uniforms.BloomLevels, m2.Uniforms.BloomLevels)
	assert.Equal(t, m1.Uniforms.BloomWeights, m2.Uniforms.BloomWeights)
}

func TestPublishOcean(t *testing.T) {
	r, b := newTestRenderer(t, 128, 128)
	o := withOcean(t, r)

	for s := range ocean.SlotCount {
		assert.Equal(t, 16*16, b.fields[s], s.String())
	}

	require.NoError(t, r.Frame())
	var geom *Pass
	for i := range b.passes {
		if b.passes[i].Kind == PassOceanGeometry {
			geom = &b.passes[i]
		}
	}
	require.NotNil(t, geom)
	f := o.Fields()
	assert.Equal(t, f.Displacement.A, geom.Uniforms.OceanA[0])
	assert.Equal(t, f.GradZ.B, geom.Uniforms.OceanB[2])
	assert.Equal(t, o.PatchSize(), geom.Uniforms.OceanA[3])
	assert.Equal(t, float32(16), geom.Uniforms.OceanB[3])
}

func TestKernel(t *testing.T) {
	w, radius := Kernel(6.2, 2)
	assert.Equal(t, 5, radius)
	sum := w[0]
	for i := 1; i <= radius; i++ {
		sum += 2 * w[i]
		assert.Less(t, w[i], w[i-1])
	}
	assert.InDelta(t, 1, sum, 1e-5)

	_, radius = Kernel(263, 0)
	assert.Equal(t, MaxBlurRadius, radius)

	w, radius = Kernel(0, 3)
	assert.Zero(t, radius)
	assert.Equal(t, float32(1), w[0])
}

func TestBloomPlan(t *testing.T) {
	plan := bloomPlan([]BloomLevel{
		{Stdev: 80, Level: 9, Weight: 0.1},
		{Stdev: 6, Level: 2, Weight: 0.2},
		{Stdev: 40, Level: 7, Weight: 0.3},
	}, 6)

	require.Len(t, plan, 2)
	assert.Equal(t, 2, plan[0].Level)
	assert.Equal(t, 5, plan[1].Level)
	assert.InDelta(t, 0.4, plan[1].Weight, 1e-6)
	assert.Equal(t, float32(80), plan[1].Stdev)
}

func TestMipLevels(t *testing.T) {
	assert.Equal(t, 1, MipLevels(1, 1))
	assert.Equal(t, 10, MipLevels(700, 700))
	assert.Equal(t, 11, MipLevels(1024, 768))
}

func TestShadingMode_Parse(t *testing.T) {
	for _, m := range []ShadingMode{ShadingFlat, ShadingForward, ShadingDeferred} {
		got, err := ParseShadingMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseShadingMode("wireframe")
	assert.Error(t, err)
}

func TestTextureFilter_Parse(t *testing.T) {
	for _, f := range []TextureFilter{TextureFilterNearest, TextureFilterLinear} {
		got, err := ParseTextureFilter(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseTextureFilter("trilinear")
	assert.Error(t, err)
	assert.Equal(t, TextureFilterLinear, DefaultSettings().TextureFilter)
}

func TestFrame_TextureFilterFlag(t *testing.T) {
	tex := &scene.Texture{Name: "checker", Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}}
	root := scene.NewNode("root", mgl32.Ident4())
	box := root.AddChild(scene.NewNode("box", mgl32.Ident4()))
	m := scene.DefaultMaterial()
	m.BaseColorTexture = tex
	box.Meshes = []*scene.Mesh{{Name: "cube", Indices: []uint32{0, 1, 2}, Material: m}}

	for _, mode := range []ShadingMode{ShadingFlat, ShadingForward, ShadingDeferred} {
		b := newRecordingBackend()
		r := NewRendererWithBackend(b, 64, 64, WithShadingMode(mode))
		require.NoError(t, r.LoadScene(scene.NewScene("textured", root)))

		require.NoError(t, r.Frame())
		require.NotEmpty(t, b.passes, mode.String())
		first := b.passes[0]
		require.Len(t, first.Draws, 1, mode.String())
		assert.Same(t, tex, first.Draws[0].Material.BaseColorTexture, mode.String())
		for _, p := range b.passes {
			assert.Zero(t, p.Uniforms.Flags&FlagNearest, p.Label)
		}

		s := DefaultSettings()
		s.TextureFilter = TextureFilterNearest
		r.SetSettings(s)
		require.NoError(t, r.Frame())
		for _, p := range b.passes {
			assert.NotZero(t, p.Uniforms.Flags&FlagNearest, p.Label)
		}
	}
}

func TestGPUPassUniform_Marshal(t *testing.T) {
	u := GPUPassUniform{Exposure: 1.5, Flags: FlagOcean | FlagPCF, BloomCount: 3}
	u.BloomLevels[3] = 8
	u.TexelSize = [2]float32{0.25, 0.5}

	buf := make([]byte, PassUniformSize)
	u.Marshal(buf)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(1.5), f32(272))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[364:]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(buf[380:]))
	assert.Equal(t, FlagOcean|FlagPCF, binary.LittleEndian.Uint32(buf[428:]))
	assert.Equal(t, float32(0.5), f32(444))
}
