// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-fileprotect.
//
// go-fileprotect is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the fileprotect service configuration from a YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
	Sentry  SentryConfig  `yaml:"sentry"`
}

// ServiceConfig identifies the service deployment
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

// ServerConfig contains the RPC listener settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MetricsConfig controls the Prometheus endpoint, served on its own port
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Port    int    `yaml:"port"`
}

// EngineConfig locates the native protection engine
type EngineConfig struct {
	// Library is the path to the engine shared library
	Library string `yaml:"library"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SentryConfig carries optional error-tracking settings. The integration
// itself lives outside this service's core; the fields are passed through
// to the process environment for the tracking agent.
type SentryConfig struct {
	DSN     string `yaml:"dsn"`
	Release string `yaml:"release"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "fileprotect",
			Environment: "dev",
		},
		Server: ServerConfig{
			Host: "",
			Port: 8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    8000,
		},
		Engine: EngineConfig{
			Library: "/app/lib/aip_file.so",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sentry: SentryConfig{
			Release: "v1.0",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// variable overrides. An empty path loads defaults plus environment
// overrides only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by admin/user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if name := os.Getenv("FILEPROTECT_SERVICE_NAME"); name != "" {
		cfg.Service.Name = name
	}
	if env := os.Getenv("FILEPROTECT_ENVIRONMENT"); env != "" {
		cfg.Service.Environment = env
	}
	if host := os.Getenv("FILEPROTECT_HOST"); host != "" {
		cfg.Server.Host = host
	}
	overridePort("FILEPROTECT_PORT", &cfg.Server.Port)
	overridePort("FILEPROTECT_METRICS_PORT", &cfg.Metrics.Port)

	if library := os.Getenv("FILEPROTECT_ENGINE_LIBRARY"); library != "" {
		cfg.Engine.Library = library
	}

	if level := os.Getenv("FILEPROTECT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("FILEPROTECT_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if dsn := os.Getenv("FILEPROTECT_SENTRY_DSN"); dsn != "" {
		cfg.Sentry.DSN = dsn
	}
	if release := os.Getenv("FILEPROTECT_SENTRY_RELEASE"); release != "" {
		cfg.Sentry.Release = release
	}
}

// overridePort parses a port environment variable, keeping the current
// value on invalid input.
func overridePort(key string, target *int) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	port, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, using default %d: %v", key, value, *target, err)
		return
	}
	if port < 1 || port > 65535 {
		log.Printf("Warning: invalid %s value %q (out of range 1-65535), using default %d", key, value, *target)
		return
	}
	*target = port
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service name must be specified")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
		if c.Metrics.Port == c.Server.Port {
			return fmt.Errorf("metrics port must differ from server port: %d", c.Metrics.Port)
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("metrics path must be specified when metrics are enabled")
		}
	}

	if c.Engine.Library == "" {
		return fmt.Errorf("engine library path must be specified")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
