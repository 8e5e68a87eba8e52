// Package config loads sdficon defaults from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config mirrors the CLI flags. Flags set explicitly on the command line
// take precedence over these values.
type Config struct {
	Workers           int           `env:"SDFICON_WORKERS" envDefault:"1"`
	Manifest          string        `env:"SDFICON_MANIFEST"`
	PreviewDir        string        `env:"SDFICON_PREVIEW_DIR"`
	PreviewScale      int           `env:"SDFICON_PREVIEW_SCALE" envDefault:"1"`
	PreviewBackground string        `env:"SDFICON_PREVIEW_BACKGROUND" envDefault:"transparent"`
	Check             bool          `env:"SDFICON_CHECK"`
	Verbose           bool          `env:"SDFICON_VERBOSE"`
	ProgressInterval  time.Duration `env:"SDFICON_PROGRESS_INTERVAL" envDefault:"30s"`
	DB                string        `env:"SDFICON_DB" envDefault:"./sdficon.db"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses a Config. Ranges are not checked here: a value only matters
// once no flag overrides it, so callers validate what they end up using.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
