//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package config loads and validates parity server and client configuration.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Port range accepted for servers. Ports below 1024 are left to the system.
const (
	MinPort = 1024
	MaxPort = 65535
)

// DefaultPort is offered by the interactive client.
const DefaultPort = 25535

// Config is the server configuration file layout.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the listening socket settings. A zero Port means the
// port has not been configured yet.
type ServerConfig struct {
	Network    string `yaml:"network"`
	Port       int    `yaml:"port"`
	BufferSize int    `yaml:"buffer_size"`
	Backlog    int    `yaml:"backlog"`
	ReusePort  bool   `yaml:"reuse_port"`
}

// LogConfig selects level and output ("stdout", "stderr" or a file path).
type LogConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

// MetricsConfig enables the Prometheus endpoint when Address is set.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Network:    "tcp",
			BufferSize: 2048,
			Backlog:    1,
		},
		Log: LogConfig{
			Level:  "info",
			Output: "stdout",
		},
	}
}

// Load reads a YAML file on top of Default. The result is not validated,
// flags may still override it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	return cfg, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return errors.Wrap(err, "server config")
	}
	return nil
}

// Validate checks the server section.
func (s *ServerConfig) Validate() error {
	switch s.Network {
	case "tcp", "tcp4", "tcp6", "udp", "udp4", "udp6":
	default:
		return errors.Errorf("network must be tcp or udp, got %q", s.Network)
	}
	if err := ValidatePort(s.Port); err != nil {
		return err
	}
	if s.BufferSize < 1 || s.BufferSize > 65535 {
		return errors.Errorf("buffer_size must be between 1 and 65535, got %d", s.BufferSize)
	}
	if s.Backlog < 1 {
		return errors.Errorf("backlog must be at least 1, got %d", s.Backlog)
	}
	return nil
}

// ValidatePort checks that port is within MinPort and MaxPort inclusive.
func ValidatePort(port int) error {
	if port < MinPort || port > MaxPort {
		return errors.Errorf("port must be between %d and %d, got %d", MinPort, MaxPort, port)
	}
	return nil
}
