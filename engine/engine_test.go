package engine

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ocean/engine/flock"
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/Carmen-Shannon/oxy-ocean/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer records the calls the engine makes. Unused Renderer methods panic.
type fakeRenderer struct {
	renderer.Renderer

	events   *[]string
	mode     renderer.ShadingMode
	settings renderer.Settings
	frameErr error
	loaded   scene.Scene
	ocean    ocean.Ocean
	times    int
}

func newFakeRenderer(events *[]string) *fakeRenderer {
	return &fakeRenderer{events: events, mode: renderer.ShadingDeferred, settings: renderer.DefaultSettings()}
}

func (r *fakeRenderer) LoadScene(s scene.Scene) error { r.loaded = s; return nil }

func (r *fakeRenderer) SetOcean(o ocean.Ocean) error { r.ocean = o; return nil }

func (r *fakeRenderer) PublishOcean(f *ocean.Fields) error {
	*r.events = append(*r.events, "ocean")
	return nil
}

func (r *fakeRenderer) Frame() error {
	*r.events = append(*r.events, "render")
	r.times++
	return r.frameErr
}

func (r *fakeRenderer) ShadingMode() renderer.ShadingMode     { return r.mode }
func (r *fakeRenderer) SetShadingMode(m renderer.ShadingMode) { r.mode = m }
func (r *fakeRenderer) Settings() renderer.Settings           { return r.settings }
func (r *fakeRenderer) SetSettings(s renderer.Settings)       { r.settings = s }

type fakeFlock struct {
	flock.Flock
	events *[]string
	dts    []float32
}

func (f *fakeFlock) Update(dt float32) {
	*f.events = append(*f.events, "flock")
	f.dts = append(f.dts, dt)
}

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(20 * time.Millisecond)
	return c.t
}

func emptyScene() scene.Scene {
	return scene.NewScene("empty", scene.NewNode("root", mgl32.Ident4()))
}

func TestEngine_StageOrder(t *testing.T) {
	var events []string
	r := newFakeRenderer(&events)
	f := &fakeFlock{events: &events}
	o, err := ocean.NewOcean(ocean.WithResolution(16), ocean.WithSeed(3))
	require.NoError(t, err)
	clock := &stepClock{t: time.Unix(0, 0)}

	e, err := NewEngine(WithRenderer(r), WithScene(emptyScene()), WithOcean(o), WithFlock(f), WithClock(clock.now))
	require.NoError(t, err)
	assert.NotNil(t, r.loaded)
	assert.Same(t, o, r.ocean)

	var updates int
	e.SetUpdateCallback(func(float32) { updates++ })

	require.NoError(t, e.Step())
	require.NoError(t, e.Step())

	assert.Equal(t, []string{"flock", "ocean", "render", "flock", "ocean", "render"}, events)
	assert.Equal(t, 2, updates)
	require.Len(t, f.dts, 2)
	assert.InDelta(t, 0.02, f.dts[0], 1e-6)
}

func TestEngine_WithoutOceanOrFlock(t *testing.T) {
	var events []string
	r := newFakeRenderer(&events)

	e, err := NewEngine(WithRenderer(r), WithScene(emptyScene()))
	require.NoError(t, err)
	require.NoError(t, e.Step())
	assert.Equal(t, []string{"render"}, events)
}

func TestEngine_FrameError(t *testing.T) {
	var events []string
	r := newFakeRenderer(&events)
	r.frameErr = renderer.ErrTargetAllocation

	e, err := NewEngine(WithRenderer(r), WithScene(emptyScene()))
	require.NoError(t, err)
	err = e.Step()
	assert.ErrorIs(t, err, renderer.ErrTargetAllocation)
}

func TestEngine_RequiresCollaborators(t *testing.T) {
	_, err := NewEngine(WithScene(emptyScene()))
	assert.Error(t, err)

	var events []string
	_, err = NewEngine(WithRenderer(newFakeRenderer(&events)))
	assert.Error(t, err)

	e, err := NewEngine(WithRenderer(newFakeRenderer(&events)), WithScene(emptyScene()))
	require.NoError(t, err)
	assert.Error(t, e.Run(), "no window")
}

func TestEngine_HandleKey(t *testing.T) {
	var events []string
	r := newFakeRenderer(&events)
	e, err := NewEngine(WithRenderer(r), WithScene(emptyScene()))
	require.NoError(t, err)

	e.HandleKey(window.Key1)
	assert.Equal(t, renderer.ShadingFlat, r.mode)
	e.HandleKey(window.Key2)
	assert.Equal(t, renderer.ShadingForward, r.mode)
	e.HandleKey(window.Key3)
	assert.Equal(t, renderer.ShadingDeferred, r.mode)

	bloom := r.settings.Bloom
	e.HandleKey(window.KeyB)
	assert.Equal(t, !bloom, r.settings.Bloom)
	e.HandleKey(window.KeyS)
	assert.True(t, r.settings.Sky)
	e.HandleKey(window.KeyP)
	assert.False(t, r.settings.PointLights)
	e.HandleKey(window.KeyA)
	assert.False(t, r.settings.AmbientLights)

	e.HandleKey(window.KeyUnknown)
	assert.Equal(t, renderer.ShadingDeferred, r.mode)
}

func TestEngine_DragOrbits(t *testing.T) {
	var events []string
	s := emptyScene()
	e, err := NewEngine(WithRenderer(newFakeRenderer(&events)), WithScene(s))
	require.NoError(t, err)

	before := s.Camera().Eye()
	impl := e.(*engine)
	impl.drag(3, 0)
	assert.Equal(t, before, s.Camera().Eye(), "below one step")
	impl.drag(dragStep, 0)
	assert.NotEqual(t, before, s.Camera().Eye())
	assert.InDelta(t, 3.0, impl.dragX, 1e-6)
}
