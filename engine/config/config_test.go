package config

import (
	"errors"
	"go/parser"
	"go/token"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "deferred", cfg.Mode)
	assert.Equal(t, 1024, cfg.Shadow.Resolution)
	assert.InDelta(t, 0.01, cfg.Shadow.Bias, 1e-9)
	assert.InDelta(t, math.Pi/3, cfg.Render.ThetaSun, 1e-6)
	assert.InDelta(t, 4.0, cfg.Render.Turbidity, 1e-9)
	assert.True(t, cfg.Render.Bloom)
	assert.True(t, cfg.Shadow.PCF)
	assert.False(t, cfg.Render.Sky)
	assert.False(t, cfg.Ocean.Enabled)
	assert.Equal(t, 700, cfg.Window.Width)
}

func TestParseArgs_SceneMustBeFirst(t *testing.T) {
	_, err := ParseArgs([]string{"--ocean", "--scene=a.gltf"})
	var ae *ArgError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 1, ae.Index)
	assert.Contains(t, ae.Reason, "first")

	a, err := ParseArgs([]string{"--scene=a.gltf", "--ocean"})
	require.NoError(t, err)
	cfg := Default()
	a.Apply(cfg)
	assert.Equal(t, "a.gltf", cfg.Scene)
	assert.True(t, cfg.Ocean.Enabled)
}

func TestParseArgs_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"--bogus"},
		{"--ocean", "--frobnicate=1"},
		{"--seed=abc"},
		{"--mode=wireframe"},
		{"--stats="},
	} {
		_, err := ParseArgs(args)
		var ae *ArgError
		assert.True(t, errors.As(err, &ae), "%v", args)
	}
}

func TestParseArgs_Toggles(t *testing.T) {
	a, err := ParseArgs([]string{
		"--no-point", "--no-ambient", "--sunsky", "--no-bloom", "--birds",
		"--add-default-light", "--seed=42", "--mode=flat", "--stats=out.csv",
	})
	require.NoError(t, err)

	cfg := Default()
	a.Apply(cfg)
	assert.False(t, cfg.Render.PointLights)
	assert.False(t, cfg.Render.AmbientLights)
	assert.True(t, cfg.Render.Sky)
	assert.False(t, cfg.Render.Bloom)
	assert.True(t, cfg.Birds.Enabled)
	assert.True(t, cfg.AddDefaultLight)
	assert.Equal(t, int64(42), cfg.Ocean.Seed)
	assert.Equal(t, int64(42), cfg.Birds.Seed)
	assert.Equal(t, "flat", cfg.Mode)
	assert.Equal(t, "out.csv", cfg.Stats)

	// Later flags win.
	a, err = ParseArgs([]string{"--sunsky", "--no-sunsky"})
	require.NoError(t, err)
	cfg = Default()
	a.Apply(cfg)
	assert.False(t, cfg.Render.Sky)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: forward
render:
  exposure: 2.5
  background: "#ff0000"
shadow:
  resolution: 2048
ocean:
  resolution: 64
  wind: [1, 2]
`), 0o644))

	cfg, err := Load([]string{"--config=" + path, "--mode=flat"})
	require.NoError(t, err)

	assert.Equal(t, "flat", cfg.Mode, "flags override the file")
	assert.InDelta(t, 2.5, cfg.Render.Exposure, 1e-9)
	assert.Equal(t, 2048, cfg.Shadow.Resolution)
	assert.Equal(t, 64, cfg.Ocean.N)
	assert.Equal(t, [2]float64{1, 2}, cfg.Ocean.Wind)

	// Keys absent from the file keep their defaults.
	assert.InDelta(t, 0.01, cfg.Shadow.Bias, 1e-9)
	assert.True(t, cfg.Render.Bloom)

	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, bg.X(), 1e-6)
	assert.InDelta(t, 0.0, bg.Y(), 1e-6)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load([]string{"--config=" + filepath.Join(dir, "missing.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("ocean:\n  resolution: 100\n"), 0o644))
	_, err = Load([]string{"--config=" + bad})
	assert.ErrorContains(t, err, "power of two")

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("render: [unterminated"), 0o644))
	_, err = Load([]string{"--config=" + garbled})
	assert.ErrorContains(t, err, "parsing config file")
}

func TestRendererOptions(t *testing.T) {
	cfg := Default()
	cfg.Mode = "forward"
	cfg.Render.Sky = true
	assert.Len(t, cfg.RendererOptions(), 3)
	assert.Len(t, cfg.OceanOptions(), 9)

	mode, err := renderer.ParseShadingMode(cfg.Mode)
	require.NoError(t, err)
	assert.Equal(t, renderer.ShadingForward, mode)
}

func TestRendererSettings_TextureFiltering(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "linear", cfg.Render.TextureFiltering)
	assert.Equal(t, renderer.TextureFilterLinear, cfg.RendererSettings().TextureFilter)

	cfg.Render.TextureFiltering = "nearest"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, renderer.TextureFilterNearest, cfg.RendererSettings().TextureFilter)

	cfg.Render.TextureFiltering = "anisotropic"
	assert.ErrorContains(t, cfg.Validate(), "render.texture_filtering")
	assert.Equal(t, renderer.TextureFilterLinear, cfg.RendererSettings().TextureFilter)
}

// localImports walks the non-test imports of pkg and every module package it reaches, returning
// each import path seen.
func localImports(t *testing.T, root, pkg string) map[string]bool {
	t.Helper()
	const module = "github.com/Carmen-Shannon/oxy-ocean/"

	seen := map[string]bool{}
	queue := []string{module + pkg}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		dir := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(path, module)))
		files, err := filepath.Glob(filepath.Join(dir, "*.go"))
		require.NoError(t, err)
		for _, f := range files {
			if strings.HasSuffix(f, "_test.go") {
				continue
			}
			parsed, err := parser.ParseFile(token.NewFileSet(), f, nil, parser.ImportsOnly)
			require.NoError(t, err)
			for _, imp := range parsed.Imports {
				ip, err := strconv.Unquote(imp.Path.Value)
				require.NoError(t, err)
				if seen[ip] {
					continue
				}
				seen[ip] = true
				if strings.HasPrefix(ip, module) {
					queue = append(queue, ip)
				}
			}
		}
	}
	return seen
}

func TestConfig_HeadlessImports(t *testing.T) {
	imports := localImports(t, filepath.Join("..", ".."), "engine/config")
	require.Contains(t, imports, "github.com/Carmen-Shannon/oxy-ocean/engine/renderer")
	for ip := range imports {
		assert.NotContains(t, ip, "engine/window", ip)
		assert.NotContains(t, ip, "go-gl/glfw", ip)
		assert.NotContains(t, ip, "wgpuglfw", ip)
	}
}
