// Package config loads host and engine settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CARDLANG_LOGGING_LEVEL.
const EnvPrefix = "CARDLANG"

// Config is the full configuration tree.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	SpecTest SpecTestConfig `mapstructure:"spectest"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// EngineConfig tunes game construction and evaluation.
type EngineConfig struct {
	Seed          uint64 `mapstructure:"seed"`
	MaxCallDepth  int    `mapstructure:"max_call_depth"`
	HistoryLimit  int    `mapstructure:"history_limit"`
	RecordHistory bool   `mapstructure:"record_history"`
}

// SpecTestConfig controls the test runner.
type SpecTestConfig struct {
	FailFast bool `mapstructure:"fail_fast"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Engine: EngineConfig{
			Seed:          1,
			MaxCallDepth:  64,
			HistoryLimit:  256,
			RecordHistory: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("engine.seed", d.Engine.Seed)
	v.SetDefault("engine.max_call_depth", d.Engine.MaxCallDepth)
	v.SetDefault("engine.history_limit", d.Engine.HistoryLimit)
	v.SetDefault("engine.record_history", d.Engine.RecordHistory)
	v.SetDefault("spectest.fail_fast", d.SpecTest.FailFast)
}

// Load reads the YAML file at path, applying defaults and CARDLANG_*
// environment overrides. A missing file is not an error; an empty path
// skips the file entirely.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	if c.Engine.MaxCallDepth < 1 {
		return fmt.Errorf("engine.max_call_depth must be positive, got %d", c.Engine.MaxCallDepth)
	}
	if c.Engine.HistoryLimit < 0 {
		return fmt.Errorf("engine.history_limit must not be negative, got %d", c.Engine.HistoryLimit)
	}
	return nil
}
