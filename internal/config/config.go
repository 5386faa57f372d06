// Package config loads and validates engine configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root engine configuration.
type Config struct {
	World World `yaml:"world" json:"world"`
	Loop  Loop  `yaml:"loop" json:"loop"`
	Relay Relay `yaml:"relay" json:"relay"`
	Log   Log   `yaml:"log" json:"log"`
}

// World describes the simulated space and broad-phase tuning.
type World struct {
	// Bounds is the playable region indexed by the quadtrees.
	Bounds Bounds `yaml:"bounds" json:"bounds"`

	// Gravity in units per second squared. Zero for open space.
	GravityX float64 `yaml:"gravity_x" json:"gravity_x"`
	GravityY float64 `yaml:"gravity_y" json:"gravity_y"`

	// Quadtree subdivision thresholds. Zero keeps the defaults.
	MaxObjects int `yaml:"max_objects" json:"max_objects"`
	MaxLevels  int `yaml:"max_levels" json:"max_levels"`

	// DefaultBodyRadius is used for bodies with no collision shape.
	DefaultBodyRadius float64 `yaml:"default_body_radius" json:"default_body_radius"`
}

// Bounds is an axis-aligned rectangle in world units.
type Bounds struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Loop controls the fixed-timestep driver.
type Loop struct {
	// Timestep is the fixed simulation step. Zero means 1/60s.
	Timestep time.Duration `yaml:"timestep" json:"timestep"`
}

// Relay configures the websocket spectator endpoint.
type Relay struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
}

// Log configures structured logging.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Console switches to the human-readable encoder.
	Console bool `yaml:"console" json:"console"`
}

// Default returns a configuration suitable for a local headless run.
func Default() *Config {
	return &Config{
		World: World{
			Bounds:            Bounds{X: -2048, Y: -2048, Width: 4096, Height: 4096},
			MaxObjects:        10,
			MaxLevels:         5,
			DefaultBodyRadius: 16,
		},
		Loop: Loop{
			Timestep: time.Second / 60,
		},
		Relay: Relay{
			Enabled: false,
			Listen:  ":8090",
		},
		Log: Log{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads a YAML file over the defaults, so a partial file only
// overrides the keys it names.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.World.Bounds.Width <= 0 || c.World.Bounds.Height <= 0 {
		return fmt.Errorf("world bounds must have positive extent, got %gx%g",
			c.World.Bounds.Width, c.World.Bounds.Height)
	}
	if c.World.MaxObjects < 0 {
		return fmt.Errorf("max_objects must not be negative, got %d", c.World.MaxObjects)
	}
	if c.World.MaxLevels < 0 {
		return fmt.Errorf("max_levels must not be negative, got %d", c.World.MaxLevels)
	}
	if c.World.DefaultBodyRadius < 0 {
		return fmt.Errorf("default_body_radius must not be negative, got %g", c.World.DefaultBodyRadius)
	}
	if c.Loop.Timestep < 0 {
		return fmt.Errorf("timestep must not be negative, got %s", c.Loop.Timestep)
	}
	if c.Relay.Enabled && c.Relay.Listen == "" {
		return fmt.Errorf("relay enabled but no listen address configured")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
