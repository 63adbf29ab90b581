package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgError reports a command line argument that could not be used.
type ArgError struct {
	// Index is the argument's position, 0 being the first argument after the program name.
	Index  int
	Arg    string
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %d %q: %s", e.Index, e.Arg, e.Reason)
}

// Args is a parsed command line. Apply replays the flags onto a Config so a --config file can be
// loaded between the defaults and the flags.
type Args struct {
	// ConfigPath is the value of --config, empty when absent.
	ConfigPath string

	overrides []func(*Config)
}

// toggles are the value-less flags.
var toggles = map[string]func(*Config){
	"--ocean":             func(c *Config) { c.Ocean.Enabled = true },
	"--no-point":          func(c *Config) { c.Render.PointLights = false },
	"--no-ambient":        func(c *Config) { c.Render.AmbientLights = false },
	"--no-sunsky":         func(c *Config) { c.Render.Sky = false },
	"--sunsky":            func(c *Config) { c.Render.Sky = true },
	"--no-bloom":          func(c *Config) { c.Render.Bloom = false },
	"--birds":             func(c *Config) { c.Birds.Enabled = true },
	"--add-default-light": func(c *Config) { c.AddDefaultLight = true },
}

// ParseArgs parses the arguments after the program name. --scene=<path> is accepted only as the
// first argument. Unknown arguments and malformed values return an *ArgError.
//
// Parameters:
//   - args: os.Args[1:]
//
// Returns:
//   - *Args: the parsed arguments
//   - error: an *ArgError for the first unusable argument
func ParseArgs(args []string) (*Args, error) {
	a := &Args{}
	for i, arg := range args {
		if set, ok := toggles[arg]; ok {
			a.overrides = append(a.overrides, set)
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			return nil, &ArgError{Index: i, Arg: arg, Reason: "unknown argument"}
		}
		if value == "" {
			return nil, &ArgError{Index: i, Arg: arg, Reason: "missing value"}
		}

		switch name {
		case "--scene":
			if i != 0 {
				return nil, &ArgError{Index: i, Arg: arg, Reason: "--scene must be the first argument"}
			}
			a.overrides = append(a.overrides, func(c *Config) { c.Scene = value })
		case "--config":
			a.ConfigPath = value
		case "--stats":
			a.overrides = append(a.overrides, func(c *Config) { c.Stats = value })
		case "--seed":
			seed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, &ArgError{Index: i, Arg: arg, Reason: "seed must be an integer"}
			}
			a.overrides = append(a.overrides, func(c *Config) {
				c.Ocean.Seed = seed
				c.Birds.Seed = seed
			})
		case "--mode":
			switch value {
			case "flat", "forward", "deferred":
			default:
				return nil, &ArgError{Index: i, Arg: arg, Reason: "mode must be flat, forward or deferred"}
			}
			a.overrides = append(a.overrides, func(c *Config) { c.Mode = value })
		default:
			return nil, &ArgError{Index: i, Arg: arg, Reason: "unknown argument"}
		}
	}
	return a, nil
}

// Apply sets every flag in command line order.
//
// Parameters:
//   - c: the configuration to update
func (a *Args) Apply(c *Config) {
	for _, set := range a.overrides {
		set(c)
	}
}

// Load resolves the full configuration: embedded defaults, then the --config file, then flags.
//
// Parameters:
//   - args: os.Args[1:]
//
// Returns:
//   - *Config: the resolved configuration
//   - error: an *ArgError, or a wrapped file or validation error
func Load(args []string) (*Config, error) {
	a, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if a.ConfigPath != "" {
		if err := LoadFile(cfg, a.ConfigPath); err != nil {
			return nil, err
		}
	}
	a.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
