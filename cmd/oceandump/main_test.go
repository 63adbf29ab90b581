package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-ocean/engine/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRun_WritesFields(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Ocean.N = 16
	cfg.Ocean.Workers = 1

	require.NoError(t, run(cfg, dir, 1.5, zerolog.Nop()))

	data, err := os.ReadFile(filepath.Join(dir, "fields.yaml"))
	require.NoError(t, err)
	var d dump
	require.NoError(t, yaml.Unmarshal(data, &d))
	assert.InDelta(t, 1.5, d.Time, 1e-12)
	require.Len(t, d.Fields, 3)

	for name, entry := range d.Fields {
		assert.Equal(t, 16, entry.Size, name)

		f, err := os.Open(filepath.Join(dir, entry.File))
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Ocean.N = 12
	assert.Error(t, run(cfg, t.TempDir(), 0, zerolog.Nop()))
}
