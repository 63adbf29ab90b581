package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// wgpuTarget holds the textures of one render target and a view per mip level of each colour
// attachment.
type wgpuTarget struct {
	desc TargetDesc

	colors     []*wgpu.Texture
	levelViews [][]*wgpu.TextureView
	fullViews  []*wgpu.TextureView

	depth     *wgpu.Texture
	depthView *wgpu.TextureView
}

func (t *wgpuTarget) Label() string    { return t.desc.Label }
func (t *wgpuTarget) Width() int       { return t.desc.Width }
func (t *wgpuTarget) Height() int      { return t.desc.Height }
func (t *wgpuTarget) Levels() int      { return t.desc.Levels }
func (t *wgpuTarget) Desc() TargetDesc { return t.desc }

// view resolves an attachment reference to a texture view.
func (t *wgpuTarget) view(index, level int) (*wgpu.TextureView, error) {
	if index == DepthIndex {
		if t.depthView == nil {
			return nil, fmt.Errorf("target %s has no depth attachment", t.desc.Label)
		}
		return t.depthView, nil
	}
	if index < 0 || index >= len(t.colors) {
		return nil, fmt.Errorf("target %s has no colour attachment %d", t.desc.Label, index)
	}
	if level == AllLevels {
		return t.fullViews[index], nil
	}
	if level < 0 || level >= len(t.levelViews[index]) {
		return nil, fmt.Errorf("target %s has no mip level %d", t.desc.Label, level)
	}
	return t.levelViews[index][level], nil
}

func (t *wgpuTarget) release() {
	for i := range t.colors {
		for _, v := range t.levelViews[i] {
			v.Release()
		}
		t.fullViews[i].Release()
		t.colors[i].Release()
	}
	t.colors, t.levelViews, t.fullViews = nil, nil, nil
	if t.depth != nil {
		t.depthView.Release()
		t.depth.Release()
		t.depth, t.depthView = nil, nil
	}
}

func textureFormat(f Format) wgpu.TextureFormat {
	switch f {
	case FormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	case FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

func (b *wgpuRendererBackendImpl) CreateTarget(desc TargetDesc) (Target, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", desc.Width, desc.Height)
	}
	levels := max(desc.Levels, 1)
	desc.Levels = levels

	t := &wgpuTarget{desc: desc}
	size := wgpu.Extent3D{
		Width:              uint32(desc.Width),
		Height:             uint32(desc.Height),
		DepthOrArrayLayers: 1,
	}
	fail := func(err error) (Target, error) {
		t.release()
		return nil, err
	}

	for i, f := range desc.Colors {
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         fmt.Sprintf("%s color %d", desc.Label, i),
			Size:          size,
			MipLevelCount: uint32(levels),
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        textureFormat(f),
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		})
		if err != nil {
			return fail(err)
		}
		full, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fail(err)
		}
		t.colors = append(t.colors, tex)
		t.fullViews = append(t.fullViews, full)
		t.levelViews = append(t.levelViews, nil)

		for l := range levels {
			v, err := tex.CreateView(&wgpu.TextureViewDescriptor{
				Label:           fmt.Sprintf("%s color %d level %d", desc.Label, i, l),
				Format:          textureFormat(f),
				Dimension:       wgpu.TextureViewDimension2D,
				BaseMipLevel:    uint32(l),
				MipLevelCount:   1,
				BaseArrayLayer:  0,
				ArrayLayerCount: 1,
				Aspect:          wgpu.TextureAspectAll,
			})
			if err != nil {
				return fail(err)
			}
			t.levelViews[i] = append(t.levelViews[i], v)
		}
	}

	if desc.Depth {
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         desc.Label + " depth",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        wgpu.TextureFormatDepth32Float,
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		})
		if err != nil {
			return fail(err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fail(err)
		}
		t.depth, t.depthView = tex, view
	}

	return t, nil
}

func (b *wgpuRendererBackendImpl) ReleaseTarget(t Target) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wt, ok := t.(*wgpuTarget)
	if !ok {
		return
	}
	// Cached input groups may reference the target's views.
	b.releaseInputGroups()
	wt.release()
}

func (b *wgpuRendererBackendImpl) releaseInputGroups() {
	for k, g := range b.inputGroups {
		g.Release()
		delete(b.inputGroups, k)
	}
}

// CreateMesh interleaves position, normal and uv into one vertex buffer and builds the mesh's
// material bind group. Missing normals default to +Y and missing uvs to zero.
func (b *wgpuRendererBackendImpl) CreateMesh(m *scene.Mesh) (Mesh, error) {
	if len(m.Positions) == 0 || len(m.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no geometry", m.Name)
	}

	vertexData := make([]byte, len(m.Positions)*meshVertexStride)
	for i, p := range m.Positions {
		n := mgl32.Vec3{0, 1, 0}
		if i < len(m.Normals) {
			n = m.Normals[i]
		}
		var uv mgl32.Vec2
		if i < len(m.UVs) {
			uv = m.UVs[i]
		}
		off := i * meshVertexStride
		putFloats(vertexData[off:], p[:])
		putFloats(vertexData[off+12:], n[:])
		putFloats(vertexData[off+24:], uv[:])
	}
	indexData := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(indexData[i*4:], idx)
	}

	provider := bind_group_provider.NewBindGroupProvider(m.Name)
	if err := b.initMeshBuffers(provider, vertexData, indexData, len(m.Indices)); err != nil {
		provider.Release()
		return nil, err
	}
	if err := b.initMaterialGroup(provider, m.Material.BaseColorTexture); err != nil {
		provider.Release()
		return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
	}
	return provider, nil
}

// initMaterialGroup uploads tex into the mesh provider and binds it with both material samplers.
// A nil tex binds the shared white texel, which the provider does not own.
func (b *wgpuRendererBackendImpl) initMaterialGroup(provider bind_group_provider.BindGroupProvider, tex *scene.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	view := b.whiteTexture.TextureView(0)
	if tex != nil {
		created, createdView, err := b.uploadTexture(tex)
		if err != nil {
			return err
		}
		provider.SetTexture(0, created, createdView)
		view = createdView
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  provider.Label() + " material Bind Group",
		Layout: b.materialLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: b.samplers.Sampler(int(materialLinearSampler))},
			{Binding: 2, Sampler: b.samplers.Sampler(int(materialNearestSampler))},
		},
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg)
	return nil
}

// uploadTexture creates an sRGB texture holding the pixels of tex.
func (b *wgpuRendererBackendImpl) uploadTexture(tex *scene.Texture) (*wgpu.Texture, *wgpu.TextureView, error) {
	if tex.Width <= 0 || tex.Height <= 0 || len(tex.Pixels) != tex.Width*tex.Height*4 {
		return nil, nil, fmt.Errorf("texture %q: %d bytes for %dx%d", tex.Name, len(tex.Pixels), tex.Width, tex.Height)
	}
	size := wgpu.Extent3D{
		Width:              uint32(tex.Width),
		Height:             uint32(tex.Height),
		DepthOrArrayLayers: 1,
	}
	created, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         tex.Name,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := created.CreateView(nil)
	if err != nil {
		created.Release()
		return nil, nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  created,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		tex.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(tex.Width * 4),
			RowsPerImage: uint32(tex.Height),
		},
		&size,
	)
	return created, view, nil
}

func (b *wgpuRendererBackendImpl) initMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(vb, 0, vertexData)
	provider.SetVertexBuffer(vb)

	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(ib, 0, indexData)
	provider.SetIndexBuffer(ib)
	provider.SetIndexCount(indexCount)

	return nil
}

// WriteOceanField stores the fields as R32Float textures on the ocean provider, one binding per
// slot. The provider's bind group is rebuilt when a texture is replaced.
func (b *wgpuRendererBackendImpl) WriteOceanField(slot ocean.Slot, size int, samples []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot < 0 || slot >= ocean.SlotCount {
		return fmt.Errorf("invalid ocean slot %d", slot)
	}
	if size <= 0 || len(samples) != size*size {
		return fmt.Errorf("ocean field %s: %d samples for size %d", slot, len(samples), size)
	}

	binding := int(slot)
	tex := b.oceanFields.Texture(binding)
	if tex == nil || b.oceanSizes[slot] != size {
		created, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: slot.String(),
			Size: wgpu.Extent3D{
				Width:              uint32(size),
				Height:             uint32(size),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        wgpu.TextureFormatR32Float,
			Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		})
		if err != nil {
			return err
		}
		view, err := created.CreateView(nil)
		if err != nil {
			created.Release()
			return err
		}
		b.oceanFields.SetTexture(binding, created, view)
		b.oceanFields.SetBindGroup(nil)
		b.oceanSizes[slot] = size
		tex = created
	}

	if cap(b.oceanScratch) < len(samples)*4 {
		b.oceanScratch = make([]byte, len(samples)*4)
	}
	data := b.oceanScratch[:len(samples)*4]
	for i, v := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(size * 4),
			RowsPerImage: uint32(size),
		},
		&wgpu.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

// oceanGroup returns the bind group over the three ocean textures, building it if needed.
func (b *wgpuRendererBackendImpl) oceanGroup() (*wgpu.BindGroup, error) {
	if bg := b.oceanFields.BindGroup(); bg != nil {
		return bg, nil
	}
	entries := make([]wgpu.BindGroupEntry, 0, ocean.SlotCount)
	for s := range ocean.SlotCount {
		view := b.oceanFields.TextureView(int(s))
		if view == nil {
			return nil, fmt.Errorf("ocean field %s has not been written", s)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(s), TextureView: view})
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "ocean fields Bind Group",
		Layout:  b.oceanLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.oceanFields.SetBindGroup(bg)
	return bg, nil
}

// uniformRing is a per-frame uniform buffer bound with a dynamic offset. Each push takes the
// next stride-aligned slot. When full it grows; the old buffer stays alive until the frame
// is submitted because already recorded passes reference it.
type uniformRing struct {
	label    string
	size     uint64
	stride   uint64
	capacity int
	used     int

	provider bind_group_provider.BindGroupProvider
	retired  []bind_group_provider.BindGroupProvider
	scratch  []byte
}

func newUniformRing(label string, size, stride uint64, capacity int) *uniformRing {
	return &uniformRing{
		label:    label,
		size:     size,
		stride:   stride,
		capacity: capacity,
		scratch:  make([]byte, size),
	}
}

// push writes one block and returns the bind group holding it and its dynamic offset.
func (u *uniformRing) push(b *wgpuRendererBackendImpl, layout *wgpu.BindGroupLayout, marshal func([]byte)) (*wgpu.BindGroup, uint32, error) {
	if u.provider != nil && u.used == u.capacity {
		u.retired = append(u.retired, u.provider)
		u.provider = nil
		u.capacity *= 2
		u.used = 0
	}
	if u.provider == nil {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: u.label + " Buffer",
			Size:  u.stride * uint64(u.capacity),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, 0, err
		}
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  u.label + " Bind Group",
			Layout: layout,
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  buf,
				Offset:  0,
				Size:    u.size,
			}},
		})
		if err != nil {
			buf.Release()
			return nil, 0, err
		}
		u.provider = bind_group_provider.NewBindGroupProvider(u.label, bind_group_provider.WithBuffer(0, buf))
		u.provider.SetBindGroup(bg)
	}

	clear(u.scratch)
	marshal(u.scratch)
	offset := uint64(u.used) * u.stride
	b.queue.WriteBuffer(u.provider.Buffer(0), offset, u.scratch)
	u.used++
	return u.provider.BindGroup(), uint32(offset), nil
}

// reset makes every slot available again and frees buffers retired during the frame.
func (u *uniformRing) reset() {
	u.used = 0
	for _, p := range u.retired {
		p.Release()
	}
	u.retired = nil
}

func (u *uniformRing) release() {
	u.reset()
	if u.provider != nil {
		u.provider.Release()
		u.provider = nil
	}
}

var errNoFrame = errors.New("no frame in progress")
