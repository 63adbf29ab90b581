// Package config holds the viewer configuration: embedded defaults, an optional YAML overlay and
// the command line.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every viewer parameter.
type Config struct {
	// Scene is the glTF/GLB file to load. Empty means an empty scene.
	Scene string `yaml:"scene"`

	Mode        string `yaml:"mode"`
	PresentMode string `yaml:"present_mode"`

	// AddDefaultLight adds a white point light of power 1000 at (3, 4, 5).
	AddDefaultLight bool `yaml:"add_default_light"`

	// Stats is the path of the profiler CSV. Empty disables the sink.
	Stats string `yaml:"stats"`

	Window WindowConfig `yaml:"window"`
	Render RenderConfig `yaml:"render"`
	Shadow ShadowConfig `yaml:"shadow"`
	Ocean  OceanConfig  `yaml:"ocean"`
	Birds  BirdsConfig  `yaml:"birds"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type RenderConfig struct {
	PointLights   bool    `yaml:"point_lights"`
	AmbientLights bool    `yaml:"ambient_lights"`
	Sky           bool    `yaml:"sky"`
	Bloom         bool    `yaml:"bloom"`
	Exposure      float32 `yaml:"exposure"`
	ThetaSun      float32 `yaml:"theta_sun"`
	Turbidity     float32 `yaml:"turbidity"`
	// Background is an sRGB hex colour, e.g. "#1a1a1a".
	Background string `yaml:"background"`
	// TextureFiltering is "linear" or "nearest".
	TextureFiltering string `yaml:"texture_filtering"`
}

type ShadowConfig struct {
	Resolution int     `yaml:"resolution"`
	Bias       float32 `yaml:"bias"`
	Near       float32 `yaml:"near"`
	Far        float32 `yaml:"far"`
	Fov        float32 `yaml:"fov"`
	PCF        bool    `yaml:"pcf"`
}

type OceanConfig struct {
	Enabled   bool       `yaml:"enabled"`
	N         int        `yaml:"resolution"`
	L         float64    `yaml:"patch_size"`
	Wind      [2]float64 `yaml:"wind"`
	Amplitude float64    `yaml:"amplitude"`
	Damping   float64    `yaml:"damping"`
	Gravity   float64    `yaml:"gravity"`
	Seed      int64      `yaml:"seed"`
	// Workers is the inverse transform fan-out; 0 means one per CPU.
	Workers        int `yaml:"workers"`
	MeshResolution int `yaml:"mesh_resolution"`
}

type BirdsConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Speed       float32 `yaml:"speed"`
	Seed        int64   `yaml:"seed"`
	BoxHalfSize float32 `yaml:"box_half_size"`
	Floor       float32 `yaml:"floor"`
	Height      float32 `yaml:"height"`
}

// Default returns the embedded defaults.
//
// Returns:
//   - *Config: the defaults
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the file keep their values.
//
// Parameters:
//   - cfg: the configuration to update
//   - path: the YAML file
//
// Returns:
//   - error: error if the file cannot be read or parsed, or the result is invalid
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg.Validate()
}

// Validate checks values the rest of the viewer cannot recover from.
//
// Returns:
//   - error: the first invalid value found
func (c *Config) Validate() error {
	if _, err := renderer.ParseShadingMode(c.Mode); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if _, err := c.presentMode(); err != nil {
		return err
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	if _, err := renderer.ParseTextureFilter(c.Render.TextureFiltering); err != nil {
		return fmt.Errorf("render.texture_filtering: %w", err)
	}
	if c.Shadow.Resolution <= 0 {
		return fmt.Errorf("shadow.resolution must be positive, got %d", c.Shadow.Resolution)
	}
	if c.Shadow.Near <= 0 || c.Shadow.Far <= c.Shadow.Near {
		return fmt.Errorf("shadow near/far must satisfy 0 < near < far, got %g/%g", c.Shadow.Near, c.Shadow.Far)
	}
	if n := c.Ocean.N; n < 2 || n&(n-1) != 0 {
		return fmt.Errorf("ocean.resolution must be a power of two, got %d", n)
	}
	if c.Ocean.L <= 0 {
		return fmt.Errorf("ocean.patch_size must be positive, got %g", c.Ocean.L)
	}
	return nil
}

// BackgroundColor parses Render.Background into a linear colour.
//
// Returns:
//   - mgl32.Vec3: the linear RGB colour
//   - error: error if the hex string is malformed
func (c *Config) BackgroundColor() (mgl32.Vec3, error) {
	col, err := colorful.Hex(c.Render.Background)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("render.background %q: %w", c.Render.Background, err)
	}
	r, g, b := col.LinearRgb()
	return mgl32.Vec3{float32(r), float32(g), float32(b)}, nil
}

func (c *Config) presentMode() (renderer.PresentMode, error) {
	switch c.PresentMode {
	case "vsync", "":
		return renderer.PresentModeVSync, nil
	case "uncapped":
		return renderer.PresentModeUncapped, nil
	}
	return 0, fmt.Errorf("present_mode must be vsync or uncapped, got %q", c.PresentMode)
}

// RendererSettings converts the render and shadow sections into renderer settings. Invalid
// values keep the renderer defaults.
//
// Returns:
//   - renderer.Settings: the settings
func (c *Config) RendererSettings() renderer.Settings {
	s := renderer.DefaultSettings()
	s.PointLights = c.Render.PointLights
	s.AmbientLights = c.Render.AmbientLights
	s.Sky = c.Render.Sky
	s.Bloom = c.Render.Bloom
	s.Exposure = c.Render.Exposure
	s.ThetaSun = c.Render.ThetaSun
	s.Turbidity = c.Render.Turbidity
	if bg, err := c.BackgroundColor(); err == nil {
		s.Background = bg
	}
	if f, err := renderer.ParseTextureFilter(c.Render.TextureFiltering); err == nil {
		s.TextureFilter = f
	}
	s.Shadow = light.ShadowSettings{
		Resolution: c.Shadow.Resolution,
		Bias:       c.Shadow.Bias,
		Near:       c.Shadow.Near,
		Far:        c.Shadow.Far,
		Fov:        c.Shadow.Fov,
		PCF:        c.Shadow.PCF,
	}
	return s
}

// RendererOptions converts the config into renderer options.
// Call Validate first; invalid values fall back to defaults here.
//
// Returns:
//   - []renderer.RendererBuilderOption: the options
func (c *Config) RendererOptions() []renderer.RendererBuilderOption {
	opts := []renderer.RendererBuilderOption{renderer.WithSettings(c.RendererSettings())}
	if mode, err := renderer.ParseShadingMode(c.Mode); err == nil {
		opts = append(opts, renderer.WithShadingMode(mode))
	}
	if pm, err := c.presentMode(); err == nil {
		opts = append(opts, renderer.WithPresentMode(pm))
	}
	return opts
}

// OceanOptions converts the ocean section into ocean options.
//
// Returns:
//   - []ocean.OceanBuilderOption: the options
func (c *Config) OceanOptions() []ocean.OceanBuilderOption {
	workers := c.Ocean.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return []ocean.OceanBuilderOption{
		ocean.WithResolution(c.Ocean.N),
		ocean.WithPatchSize(c.Ocean.L),
		ocean.WithWind(c.Ocean.Wind[0], c.Ocean.Wind[1]),
		ocean.WithAmplitude(c.Ocean.Amplitude),
		ocean.WithDamping(c.Ocean.Damping),
		ocean.WithGravity(c.Ocean.Gravity),
		ocean.WithSeed(c.Ocean.Seed),
		ocean.WithWorkers(workers),
		ocean.WithMeshResolution(c.Ocean.MeshResolution),
	}
}
