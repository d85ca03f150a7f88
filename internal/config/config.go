// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the pumpstat YAML configuration file
package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

type Config struct {
	Device    string          `yaml:"device"`
	BaudRate  int             `yaml:"baud_rate"`
	Timing    TimingConfig    `yaml:"timing"`
	Log       LogConfig       `yaml:"log"`
	Serve     ServeConfig     `yaml:"serve"`
	Capture   CaptureConfig   `yaml:"capture"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

type TimingConfig struct {
	PreWrite    time.Duration `yaml:"pre_write"`
	PostWrite   time.Duration `yaml:"post_write"`
	Retry       time.Duration `yaml:"retry"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

type CaptureConfig struct {
	Path string `yaml:"path"`
}

type WebSocketConfig struct {
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
}

// LoadConfig reads a configuration file. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	t := nextgen.DefaultTiming()
	return &Config{
		BaudRate: nextgen.BaudRate,
		Timing: TimingConfig{
			PreWrite:    t.PreWrite,
			PostWrite:   t.PostWrite,
			Retry:       t.Retry,
			ReadTimeout: t.ReadTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Validate checks values the YAML decoder cannot
func (c *Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", c.BaudRate)
	}
	for name, d := range map[string]time.Duration{
		"pre_write":    c.Timing.PreWrite,
		"post_write":   c.Timing.PostWrite,
		"retry":        c.Timing.Retry,
		"read_timeout": c.Timing.ReadTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("timing.%s must not be negative, got %s", name, d)
		}
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// EngineTiming converts the timing section for the protocol engine
func (c *Config) EngineTiming() nextgen.Timing {
	return nextgen.Timing{
		PreWrite:    c.Timing.PreWrite,
		PostWrite:   c.Timing.PostWrite,
		Retry:       c.Timing.Retry,
		ReadTimeout: c.Timing.ReadTimeout,
	}
}
