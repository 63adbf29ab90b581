package ocean

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []float64
	err       error
}

func (p *recordingPublisher) PublishOcean(f *Fields) error {
	p.published = append(p.published, f.Time)
	return p.err
}

func TestNewOcean_Defaults(t *testing.T) {
	o, err := NewOcean()
	require.NoError(t, err)

	assert.Equal(t, DefaultResolution, o.Size())
	assert.Equal(t, float32(DefaultPatchSize), o.PatchSize())
	assert.Nil(t, o.Fields())
	assert.NotNil(t, o.Mesh())
}

func TestNewOcean_InvalidResolution(t *testing.T) {
	_, err := NewOcean(WithResolution(100))
	assert.ErrorIs(t, err, ErrInvalidGridSize)
}

func TestOcean_Update(t *testing.T) {
	o, err := NewOcean(WithResolution(32), WithSeed(9), WithWorkers(4))
	require.NoError(t, err)

	f := o.Update(2.5)
	require.Same(t, f, o.Fields())
	assert.Equal(t, 2.5, f.Time)

	for s := range SlotCount {
		field := f.Field(s)
		require.NotNil(t, field, s.String())
		assert.Equal(t, 32, field.Size)
		assert.Len(t, field.Samples, 32*32)
		assert.Positive(t, field.B, s.String())
		for _, v := range field.Samples {
			require.GreaterOrEqual(t, v, float32(0))
			require.LessOrEqual(t, v, float32(1))
		}
	}
	assert.Less(t, f.MaxImag, 1e-6)
}

func TestOcean_UpdateIsPureInTime(t *testing.T) {
	o, err := NewOcean(WithResolution(16), WithSeed(3))
	require.NoError(t, err)

	first := append([]float32(nil), o.Update(1.25).Displacement.Samples...)
	o.Update(7)
	again := o.Update(1.25).Displacement.Samples
	assert.Equal(t, first, again)
}

func TestOcean_ZeroWindIsFlat(t *testing.T) {
	o, err := NewOcean(WithResolution(16), WithWind(0, 0))
	require.NoError(t, err)

	f := o.Update(4)
	for s := range SlotCount {
		field := f.Field(s)
		assert.Zero(t, field.A, s.String())
		assert.Zero(t, field.B, s.String())
		for _, v := range field.Samples {
			require.Zero(t, v)
		}
	}
}

func TestOcean_Publish(t *testing.T) {
	o, err := NewOcean(WithResolution(16))
	require.NoError(t, err)

	p := &recordingPublisher{}
	require.NoError(t, o.Publish(0.5, p))
	require.NoError(t, o.Publish(1.0, p))
	assert.Equal(t, []float64{0.5, 1.0}, p.published)

	sentinel := errors.New("upload failed")
	p.err = sentinel
	err = o.Publish(1.5, p)
	assert.ErrorIs(t, err, sentinel)
}

func TestSlot_String(t *testing.T) {
	assert.Equal(t, "ocean_displacement", SlotDisplacement.String())
	assert.Equal(t, "ocean_grad_z", SlotGradZ.String())
	assert.Equal(t, "ocean_slot_9", Slot(9).String())
}

func TestNewMesh(t *testing.T) {
	m := NewMesh(4, 8)

	assert.Len(t, m.Positions, 25)
	assert.Len(t, m.UVs, 25)
	assert.Len(t, m.Indices, 4*4*6)
	assert.Equal(t, mgl32.Vec3{-4, 0, -4}, m.Positions[0])
	assert.Equal(t, mgl32.Vec3{4, 0, 4}, m.Positions[24])
	assert.Equal(t, mgl32.Vec2{1, 1}, m.UVs[24])

	for i := 0; i < len(m.Indices); i += 3 {
		a, b, c := m.Positions[m.Indices[i]], m.Positions[m.Indices[i+1]], m.Positions[m.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		require.Positive(t, n.Y(), "triangle %d faces down", i/3)
	}
}
