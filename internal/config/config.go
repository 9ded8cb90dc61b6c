// Package config loads the serve-mode configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level serve configuration.
type Config struct {
	Listen   string        `yaml:"listen"`
	LogLevel string        `yaml:"log_level"`
	Store    StoreConfig   `yaml:"store"`
	Backend  BackendConfig `yaml:"backend"`
	Effects  EffectsConfig `yaml:"effects"`
}

// StoreConfig selects and configures the progress store backend.
type StoreConfig struct {
	// Kind is one of "memory", "file", "redis".
	Kind string `yaml:"kind"`

	// Path is the snapshot directory for the file store.
	Path string `yaml:"path"`

	// Redis connection settings (kind: redis).
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// BackendConfig points at the hosted backend-as-a-service. An empty
// BaseURL selects the in-memory backend (development mode).
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// EffectsConfig tunes side-effect execution.
type EffectsConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		LogLevel: "info",
		Store:    StoreConfig{Kind: "memory"},
		Effects:  EffectsConfig{Timeout: 15 * time.Second},
	}
}

// Load reads a YAML config file, filling unset values with defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Kind {
	case "", "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Store.Kind == "redis" && c.Store.Addr == "" {
		return fmt.Errorf("store.addr is required for the redis store")
	}
	if c.Effects.Timeout <= 0 {
		c.Effects.Timeout = 15 * time.Second
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	return nil
}
