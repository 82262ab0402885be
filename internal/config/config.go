// Package config provides configuration loading for the meal planner.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MEALPLANNER_"

// Config holds the configuration for the application.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "data/mealplanner.db"},
		HTTP:     HTTPConfig{Host: "localhost", Port: 8080},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration with the following precedence (highest first):
//
//  1. MEALPLANNER_* environment variables (MEALPLANNER_HTTP_PORT -> http.port)
//  2. YAML config file, if configPath is non-empty and the file exists
//  3. Built-in defaults
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
