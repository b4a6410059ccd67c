// Package config loads the composable.yaml file driving cmd/composable.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/composable/internal/logging"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "composable.yaml"

// Config is the full configuration file.
type Config struct {
	Log     LogConfig     `yaml:"log" json:"log"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// RedisConfig enables mirroring of snapshots to Redis when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	// Redact lists regexps of state keys masked before publishing.
	Redact []string `yaml:"redact" json:"redact"`
}

type TracingConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Name    string `yaml:"name" json:"name"`
}

// Default returns the configuration used for missing keys.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: string(logging.FormatText)},
		HTTP:    HTTPConfig{Addr: ":8080", ShutdownTimeout: 5 * time.Second},
		Metrics: MetricsConfig{Enabled: true, Namespace: "composable"},
		Redis:   RedisConfig{Prefix: "composable:"},
		Tracing: TracingConfig{Name: "github.com/aretw0/composable"},
	}
}

// Load reads a YAML or JSON file over the defaults. A missing file is not an
// error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}

// Validate reports values that cannot be used.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	return nil
}

// Logger builds the logger described by the log section.
func (c Config) Logger() *slog.Logger {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level, logging.Format(c.Log.Format))
}
