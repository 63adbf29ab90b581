// Command oceandump evaluates the ocean at one instant and writes its three normalized fields as
// grayscale PNGs, plus a YAML file with each field's decode constants.
//
//	oceandump -out dir -t seconds [-n 128] [-seed 1] [-config viewer.yaml]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-ocean/engine/config"
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/gogpu/gg"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// decodeEntry is written per field; value = a + b * sample.
type decodeEntry struct {
	File string  `yaml:"file"`
	Size int     `yaml:"size"`
	A    float32 `yaml:"a"`
	B    float32 `yaml:"b"`
}

type dump struct {
	Time    float64                `yaml:"time"`
	MaxImag float64                `yaml:"max_imag"`
	Fields  map[string]decodeEntry `yaml:"fields"`
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	out := flag.String("out", ".", "output directory")
	t := flag.Float64("t", 0, "simulation time in seconds")
	n := flag.Int("n", 0, "grid resolution, overrides the config")
	seed := flag.Int64("seed", 0, "spectrum seed, overrides the config")
	cfgPath := flag.String("config", "", "viewer YAML config supplying the ocean section")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		if err := config.LoadFile(cfg, *cfgPath); err != nil {
			logger.Error().Err(err).Msg("config")
			os.Exit(1)
		}
	}
	if *n > 0 {
		cfg.Ocean.N = *n
	}
	if *seed != 0 {
		cfg.Ocean.Seed = *seed
	}

	if err := run(cfg, *out, *t, logger); err != nil {
		logger.Error().Err(err).Msg("oceandump failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, out string, t float64, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o, err := ocean.NewOcean(append(cfg.OceanOptions(), ocean.WithLogger(logger))...)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fields := o.Update(t)
	d := dump{Time: fields.Time, MaxImag: fields.MaxImag, Fields: make(map[string]decodeEntry, ocean.SlotCount)}
	for s := range ocean.SlotCount {
		f := fields.Field(s)
		name := s.String() + ".png"
		if err := writePNG(filepath.Join(out, name), f); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		d.Fields[s.String()] = decodeEntry{File: name, Size: f.Size, A: f.A, B: f.B}
		logger.Info().Str("file", name).Float32("a", f.A).Float32("b", f.B).Msg("field written")
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decode table: %w", err)
	}
	return os.WriteFile(filepath.Join(out, "fields.yaml"), data, 0o644)
}

// writePNG stores the normalized samples as gray levels, row z = image row.
func writePNG(path string, f *ocean.Field) error {
	pm := gg.NewPixmap(f.Size, f.Size)
	for z := range f.Size {
		for x := range f.Size {
			v := float64(f.Samples[z*f.Size+x])
			pm.SetPixel(x, z, gg.RGB(v, v, v))
		}
	}
	return pm.SavePNG(path)
}
