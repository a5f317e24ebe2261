// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry population modes.
const (
	RegistryLazy  = "lazy"
	RegistryEager = "eager"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Backends []string       `yaml:"backends"` // enabled backend ids; empty enables all
	Types    TypesConfig    `yaml:"types"`
	Registry RegistryConfig `yaml:"registry"`
	Output   string         `yaml:"output"` // default CLI output: yaml, json or cbor
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// TypesConfig points at user type definitions loaded next to the
// built-in ones.
type TypesConfig struct {
	Dir string `yaml:"dir"`
}

// RegistryConfig configures registry population.
type RegistryConfig struct {
	Mode string `yaml:"mode"` // "lazy" or "eager"
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CHATOM_SERVER_HOST      - Server host (default: 0.0.0.0)
//	CHATOM_SERVER_PORT      - Server port (default: 8080)
//	CHATOM_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	CHATOM_LOG_FORMAT       - Log format: json or console (default: console)
//	CHATOM_METRICS_ENABLED  - Enable metrics endpoint (default: true)
//	CHATOM_METRICS_PATH     - Metrics path (default: /metrics)
//	CHATOM_BACKENDS         - Comma-separated enabled backends (default: all)
//	CHATOM_TYPES_DIR        - Directory of extra type definitions
//	CHATOM_REGISTRY_MODE    - lazy or eager (default: lazy)
//	CHATOM_OUTPUT           - Default CLI output format (default: yaml)
func LoadFromEnv() (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	return finish(&cfg)
}

// LoadWithFallback loads path when it exists and falls back to
// environment variables and defaults otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	// Environment variables always override file-based configuration.
	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("CHATOM_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CHATOM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Logging configuration
	if v := os.Getenv("CHATOM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHATOM_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CHATOM_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CHATOM_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// Engine configuration
	if v := os.Getenv("CHATOM_BACKENDS"); v != "" {
		cfg.Backends = splitList(v)
	}
	if v := os.Getenv("CHATOM_TYPES_DIR"); v != "" {
		cfg.Types.Dir = v
	}
	if v := os.Getenv("CHATOM_REGISTRY_MODE"); v != "" {
		cfg.Registry.Mode = v
	}
	if v := os.Getenv("CHATOM_OUTPUT"); v != "" {
		cfg.Output = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Registry.Mode == "" {
		cfg.Registry.Mode = RegistryLazy
	}
	if cfg.Output == "" {
		cfg.Output = "yaml"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	if cfg.Registry.Mode != RegistryLazy && cfg.Registry.Mode != RegistryEager {
		return fmt.Errorf("registry.mode must be 'lazy' or 'eager', got %q", cfg.Registry.Mode)
	}

	switch cfg.Output {
	case "yaml", "json", "cbor":
	default:
		return fmt.Errorf("output must be one of: yaml, json, cbor, got %q", cfg.Output)
	}

	seen := make(map[string]bool, len(cfg.Backends))
	for i, id := range cfg.Backends {
		if id == "" {
			return fmt.Errorf("backends[%d] is empty", i)
		}
		if seen[id] {
			return fmt.Errorf("backends[%d]: duplicate backend %q", i, id)
		}
		seen[id] = true
	}

	if cfg.Types.Dir != "" {
		info, err := os.Stat(cfg.Types.Dir)
		if err != nil {
			return fmt.Errorf("types.dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("types.dir %q is not a directory", cfg.Types.Dir)
		}
	}

	return nil
}
