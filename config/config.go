// Package config loads match configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from YAML strings like "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// TeamSpec describes one side of the match.
type TeamSpec struct {
	Name string `yaml:"name"`
	// Kind selects the agent: "random" and "stopping" run in process,
	// "remote" waits for a websocket connection on Address, optionally
	// spawning Command first.
	Kind    string   `yaml:"kind"`
	Address string   `yaml:"address,omitempty"`
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// Config is the full match setup.
type Config struct {
	Layout        string     `yaml:"layout,omitempty"`      // inline layout string
	LayoutFile    string     `yaml:"layout_file,omitempty"` // wins over Layout when set
	NumberBots    int        `yaml:"number_bots"`
	GameTime      int        `yaml:"game_time"`
	Seed          uint64     `yaml:"seed"`
	Noise         bool       `yaml:"noise"`
	NoiseRadius   int        `yaml:"noise_radius"`
	SightDistance int        `yaml:"sight_distance"`
	MoveTimeout   Duration   `yaml:"move_timeout"`
	MaxTimeouts   int        `yaml:"max_timeouts"`
	Teams         []TeamSpec `yaml:"teams,omitempty"`
	DumpDir       string     `yaml:"dump_dir,omitempty"`
}

func defaults() Config {
	return Config{
		NumberBots:    4,
		GameTime:      300,
		Seed:          0,
		Noise:         true,
		NoiseRadius:   5,
		SightDistance: 5,
		MoveTimeout:   Duration(3 * time.Second),
		MaxTimeouts:   5,
	}
}

// Load reads the YAML file at path (skipped when path is empty), then
// applies environment overrides. A .env file in the working directory is
// honored.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides fields from MAZECTF_* environment variables.
func (c *Config) applyEnv() error {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	if v, ok := os.LookupEnv("MAZECTF_GAME_TIME"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAZECTF_GAME_TIME must be an integer: %w", err)
		}
		c.GameTime = n
	}
	if v, ok := os.LookupEnv("MAZECTF_SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAZECTF_SEED must be an unsigned integer: %w", err)
		}
		c.Seed = n
	}
	if v, ok := os.LookupEnv("MAZECTF_MOVE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MAZECTF_MOVE_TIMEOUT must be a duration: %w", err)
		}
		c.MoveTimeout = Duration(d)
	}
	if v, ok := os.LookupEnv("MAZECTF_DUMP_DIR"); ok {
		c.DumpDir = v
	}
	return nil
}

// Validate rejects configurations the game master cannot start with.
func (c Config) Validate() error {
	if c.GameTime <= 0 {
		return fmt.Errorf("game_time must be positive, got %d", c.GameTime)
	}
	if c.NumberBots < 2 || c.NumberBots%2 != 0 {
		return fmt.Errorf("number_bots must be even and at least 2, got %d", c.NumberBots)
	}
	if c.NoiseRadius < 1 {
		return fmt.Errorf("noise_radius must be at least 1, got %d", c.NoiseRadius)
	}
	if c.SightDistance < 0 {
		return fmt.Errorf("sight_distance must not be negative, got %d", c.SightDistance)
	}
	if c.MoveTimeout <= 0 {
		return fmt.Errorf("move_timeout must be positive, got %v", time.Duration(c.MoveTimeout))
	}
	if c.MaxTimeouts < 1 {
		return fmt.Errorf("max_timeouts must be at least 1, got %d", c.MaxTimeouts)
	}
	if len(c.Teams) != 0 && len(c.Teams) != 2 {
		return fmt.Errorf("want exactly 2 teams, got %d", len(c.Teams))
	}
	for i, team := range c.Teams {
		switch team.Kind {
		case "random", "stopping":
		case "remote":
			if team.Address == "" {
				return fmt.Errorf("team %d: remote agents need an address", i)
			}
		default:
			return fmt.Errorf("team %d: unknown agent kind %q", i, team.Kind)
		}
	}
	return nil
}

// LayoutString resolves the configured layout, reading LayoutFile if set.
func (c Config) LayoutString(fallback string) (string, error) {
	if c.LayoutFile != "" {
		b, err := os.ReadFile(c.LayoutFile)
		if err != nil {
			return "", fmt.Errorf("layout file: %w", err)
		}
		return string(b), nil
	}
	if c.Layout != "" {
		return c.Layout, nil
	}
	return fallback, nil
}
