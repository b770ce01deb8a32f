// Package config loads server configuration from a YAML file and
// environment variables. Priority: ENV > YAML > defaults.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the server settings.
type Config struct {
	HTTP struct {
		Port int `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	} `yaml:"http"`

	Database struct {
		// Path to the SQLite file; ":memory:" runs without persistence.
		Path string `yaml:"path" env:"DATABASE_PATH" env-default:"custody.db"`
	} `yaml:"database"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	} `yaml:"log"`

	// Seed loads the demo scenario (users + sample documents) on startup.
	Seed bool `yaml:"seed" env:"SEED" env-default:"false"`
}

// Load reads configuration from CONFIG_PATH (fallback "./config.yaml")
// and the environment. A missing file is only an error when CONFIG_PATH
// was set explicitly.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	return &cfg, nil
}
