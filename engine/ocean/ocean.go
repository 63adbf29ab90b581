package ocean

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/rs/zerolog"
)

// residueWarnRatio is the imaginary-to-real magnitude ratio above which a tick is logged as suspect.
const residueWarnRatio = 1e-3

// Ocean is the height-field simulation. It owns the spectrum and the per-frame buffers, and each
// Update evolves the spectrum, runs the inverse transforms and normalizes the three fields.
// Not safe for concurrent use; call Update from the frame loop only.
type Ocean interface {
	// Spectrum returns the initial amplitude spectrum.
	Spectrum() *Spectrum

	// Size returns the grid resolution N.
	Size() int

	// PatchSize returns the side length L of the simulated patch in world units.
	PatchSize() float32

	// Mesh returns the grid patch the ocean passes draw.
	Mesh() *scene.Mesh

	// Update evaluates the fields at time t. The returned pointer is owned by the ocean and is
	// overwritten by the next Update.
	//
	// Parameters:
	//   - t: simulation time in seconds
	//
	// Returns:
	//   - *Fields: the evaluated fields
	Update(t float64) *Fields

	// Fields returns the fields from the last Update, or nil before the first.
	Fields() *Fields

	// Publish runs Update(t) and hands the result to p.
	//
	// Parameters:
	//   - t: simulation time in seconds
	//   - p: the publisher receiving the fields
	//
	// Returns:
	//   - error: the publisher's error, wrapped
	Publish(t float64, p Publisher) error
}

type oceanImpl struct {
	params   SpectrumParams
	meshRes  int
	workers  int
	logger   zerolog.Logger
	spectrum *Spectrum
	ifft     InverseTransform
	mesh     *scene.Mesh

	// reused every tick
	height Grid
	gradX  Grid
	gradZ  Grid
	raw    []float32
	fields Fields
	ticked bool
}

var _ Ocean = &oceanImpl{}

// NewOcean creates an Ocean with defaults overridden by options. The spectrum is generated once here.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Ocean: the simulation
//   - error: an error if the spectrum parameters are invalid
func NewOcean(options ...OceanBuilderOption) (Ocean, error) {
	o := &oceanImpl{
		params: SpectrumParams{
			N:         DefaultResolution,
			L:         DefaultPatchSize,
			Wind:      [2]float64{DefaultWindX, DefaultWindZ},
			Gravity:   DefaultGravity,
			Amplitude: DefaultAmplitude,
			Damping:   DefaultDamping,
		},
		workers: 1,
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(o)
	}

	spectrum, err := NewSpectrum(o.params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ocean spectrum: %w", err)
	}
	o.spectrum = spectrum

	n := o.params.N
	if o.meshRes == 0 {
		o.meshRes = n
	}
	o.ifft = NewInverseTransform(n, WithTransformWorkers(o.workers))
	o.mesh = NewMesh(o.meshRes, float32(o.params.L))
	o.height = make(Grid, n*n)
	o.gradX = make(Grid, n*n)
	o.gradZ = make(Grid, n*n)
	o.raw = make([]float32, n*n)
	for s := range SlotCount {
		f := o.fields.Field(s)
		f.Size = n
		f.Samples = make([]float32, n*n)
	}

	o.logger.Debug().
		Int("n", n).
		Float64("patch", o.params.L).
		Floats64("wind", o.params.Wind[:]).
		Int64("seed", o.params.Seed).
		Int("workers", o.ifft.Workers()).
		Msg("ocean spectrum generated")
	return o, nil
}

func (o *oceanImpl) Spectrum() *Spectrum { return o.spectrum }

func (o *oceanImpl) Size() int { return o.params.N }

func (o *oceanImpl) PatchSize() float32 { return float32(o.params.L) }

func (o *oceanImpl) Mesh() *scene.Mesh { return o.mesh }

func (o *oceanImpl) Update(t float64) *Fields {
	Evolve(o.spectrum, t, o.height, o.gradX, o.gradZ)

	maxImag := 0.0
	for _, pair := range []struct {
		grid Grid
		slot Slot
	}{
		{o.height, SlotDisplacement},
		{o.gradX, SlotGradX},
		{o.gradZ, SlotGradZ},
	} {
		maxImag = max(maxImag, o.ifft.Apply(pair.grid, o.raw))
		Normalize(o.fields.Field(pair.slot), o.raw)
	}

	o.fields.Time = t
	o.fields.MaxImag = maxImag
	o.ticked = true

	if scale := float64(o.fields.Displacement.B); scale > 0 && maxImag > residueWarnRatio*scale {
		o.logger.Warn().Float64("residue", maxImag).Float64("range", scale).Msg("ocean field has imaginary residue")
	}
	return &o.fields
}

func (o *oceanImpl) Fields() *Fields {
	if !o.ticked {
		return nil
	}
	return &o.fields
}

func (o *oceanImpl) Publish(t float64, p Publisher) error {
	if err := p.PublishOcean(o.Update(t)); err != nil {
		return fmt.Errorf("failed to publish ocean fields: %w", err)
	}
	return nil
}
