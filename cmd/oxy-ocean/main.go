// Command oxy-ocean is the interactive viewer: it loads a glTF scene, optionally simulates an
// ocean and a flock of birds, and renders it in flat, forward or deferred mode.
//
//	oxy-ocean [--scene=<path>] [--ocean] [--no-point] [--no-ambient] [--sunsky|--no-sunsky]
//	          [--no-bloom] [--birds] [--add-default-light] [--config=<yaml>] [--stats=<csv>]
//	          [--seed=<int>] [--mode=flat|forward|deferred]
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-ocean/engine"
	"github.com/Carmen-Shannon/oxy-ocean/engine/camera"
	"github.com/Carmen-Shannon/oxy-ocean/engine/config"
	"github.com/Carmen-Shannon/oxy-ocean/engine/flock"
	"github.com/Carmen-Shannon/oxy-ocean/engine/light"
	"github.com/Carmen-Shannon/oxy-ocean/engine/loader"
	"github.com/Carmen-Shannon/oxy-ocean/engine/ocean"
	"github.com/Carmen-Shannon/oxy-ocean/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ocean/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	"github.com/Carmen-Shannon/oxy-ocean/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("oxy-ocean failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	s, err := loadScene(cfg, logger)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		append(cfg.RendererOptions(), renderer.WithLogger(logger.With().Str("component", "renderer").Logger()))...)

	opts := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithScene(s),
		engine.WithLogger(logger),
		engine.WithProfiling(true),
	}

	if cfg.Ocean.Enabled {
		o, err := ocean.NewOcean(append(cfg.OceanOptions(), ocean.WithLogger(logger.With().Str("component", "ocean").Logger()))...)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithOcean(o))
	}

	if birds := s.Collections().Birds; cfg.Birds.Enabled && len(birds) > 0 {
		opts = append(opts, engine.WithFlock(flock.NewFlock(birds,
			flock.WithWalls(flock.DefaultWalls(cfg.Birds.BoxHalfSize, cfg.Birds.Floor, cfg.Birds.Height)...),
			flock.WithSpeed(cfg.Birds.Speed),
			flock.WithSeed(cfg.Birds.Seed),
			flock.WithLogger(logger),
		)))
	}

	profOpts := []profiler.ProfilerBuilderOption{profiler.WithLogger(logger)}
	if cfg.Stats != "" {
		f, err := os.Create(cfg.Stats)
		if err != nil {
			return fmt.Errorf("create stats file: %w", err)
		}
		defer f.Close()
		profOpts = append(profOpts, profiler.WithCSV(f))
	}
	opts = append(opts, engine.WithProfiler(profiler.NewProfiler(profOpts...)))

	e, err := engine.NewEngine(opts...)
	if err != nil {
		return err
	}
	logger.Info().
		Str("scene", s.Name()).
		Str("mode", cfg.Mode).
		Bool("ocean", cfg.Ocean.Enabled).
		Msg("viewer started")
	return e.Run()
}

// loadScene imports the configured scene, or builds an empty one viewed by the default camera.
func loadScene(cfg *config.Config, logger zerolog.Logger) (scene.Scene, error) {
	var s scene.Scene
	if cfg.Scene != "" {
		var err error
		l := loader.NewLoader(loader.BackendTypeGLTF, loader.WithLogger(logger))
		if s, err = l.Load(cfg.Scene); err != nil {
			return nil, err
		}
	} else {
		s = scene.NewScene("empty", scene.NewNode("root", mgl32.Ident4()), scene.WithCamera(camera.NewCamera()))
	}

	if cfg.AddDefaultLight {
		s.AddLight(light.NewLight(light.LightTypePoint,
			light.WithName("default"),
			light.WithPosition(3, 4, 5),
			light.WithPower(1000),
		))
	}
	return s, nil
}
