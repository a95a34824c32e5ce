// Package config loads host settings from defaults, an optional YAML
// file and EASEL_-prefixed environment overrides, in that order.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/easelhq/easel/errors"
)

// Config holds every tunable the front ends and engine consume.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel  string          `mapstructure:"log_level"`
	Canvas    CanvasConfig    `mapstructure:"canvas"`
	Animation AnimationConfig `mapstructure:"animation"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Catalogue CatalogueConfig `mapstructure:"catalogue"`
	Serve     ServeConfig     `mapstructure:"serve"`
}

// CanvasConfig holds the drawing-space convention.
type CanvasConfig struct {
	LogicalWidth  float64 `mapstructure:"logical_width"`
	LogicalHeight float64 `mapstructure:"logical_height"`
	// Factor is pixels per logical unit.
	Factor float64 `mapstructure:"factor"`
	// Background is a palette name or #rrggbb.
	Background string `mapstructure:"background"`
}

// AnimationConfig tunes the tick-driven frame clocks.
type AnimationConfig struct {
	// IntervalMs is the delay between animation frames.
	IntervalMs int `mapstructure:"interval_ms"`
}

// EngineConfig holds wasm runtime settings.
type EngineConfig struct {
	// Memory limit per guest instance (in pages, 64KB each). Zero keeps
	// the runtime default.
	MemoryPages uint32 `mapstructure:"memory_pages"`
}

// CatalogueConfig points at the sample set.
type CatalogueConfig struct {
	// Source is a file path or URL of a samples file; empty uses the
	// built-in set.
	Source string `mapstructure:"source"`
}

// ServeConfig holds the web front end's listen settings.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration. path selects an explicit config file and
// failing to read it is an error; with an empty path an easel.yaml is
// searched for in the working directory and ~/.config/easel, and its
// absence is fine. Environment overrides use the EASEL_ prefix with
// underscores for dots, e.g. EASEL_SERVE_ADDR.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("canvas.logical_width", 100)
	v.SetDefault("canvas.logical_height", 100)
	v.SetDefault("canvas.factor", 10)
	v.SetDefault("canvas.background", "white")
	v.SetDefault("animation.interval_ms", 33)
	v.SetDefault("engine.memory_pages", 256) // 16MB
	v.SetDefault("catalogue.source", "")
	v.SetDefault("serve.addr", "127.0.0.1:8901")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Load("read config file", err)
		}
	} else {
		v.SetConfigName("easel")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "easel"))
		}
		// Missing search-path config is not an error.
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix("EASEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Load("unmarshal config", err)
	}
	return &c, nil
}
