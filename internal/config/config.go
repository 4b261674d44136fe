package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	MinK = 2
	MaxK = 8
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings shared by the command line tools.
type Config struct {
	K            int           `yaml:"k"`
	MaxSamples   int           `yaml:"max_samples"`
	MaxSize      int           `yaml:"max_size"`
	Interval     time.Duration `yaml:"interval"`
	Seed         uint64        `yaml:"seed"`
	Workers      int           `yaml:"workers"`
	OutputDir    string        `yaml:"output_dir"`
	LogLevel     string        `yaml:"log_level"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

func Default() Config {
	return Config{
		K:            5,
		MaxSamples:   1000,
		MaxSize:      300,
		Interval:     500 * time.Millisecond,
		Workers:      4,
		OutputDir:    "./results",
		LogLevel:     "info",
		FetchTimeout: 30 * time.Second,
	}
}

// Load reads a YAML file on top of Default. An empty path returns the defaults.
// The result is not validated; callers apply their overrides and then Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.K < MinK || c.K > MaxK:
		return fmt.Errorf("%w: k=%d must be in [%d, %d]", ErrInvalidConfig, c.K, MinK, MaxK)
	case c.MaxSamples <= 0:
		return fmt.Errorf("%w: max_samples must be positive", ErrInvalidConfig)
	case c.MaxSize <= 0:
		return fmt.Errorf("%w: max_size must be positive", ErrInvalidConfig)
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
