// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config provides configuration loading for the CPG service.
//
// Configuration comes from a YAML file, with environment variables
// overriding individual fields on top of the file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianCPG/services/cpg/telemetry"
)

// MaxYAMLFileSize is the maximum allowed config file size (1MB).
const MaxYAMLFileSize = 1024 * 1024

// Sentinel errors for configuration loading.
var (
	// ErrFileTooLarge indicates the config file exceeds MaxYAMLFileSize.
	ErrFileTooLarge = errors.New("config file too large")

	// ErrInvalidPort indicates a port outside [1, 65535].
	ErrInvalidPort = errors.New("invalid port")
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the bind address. Default: "0.0.0.0".
	Host string `yaml:"host"`

	// Port is the listen port. Default: 8092.
	Port int `yaml:"port"`

	// ReadTimeout bounds request reads. Default: 30s.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writes. Default: 60s.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GraphConfig configures graph caching and rendering.
type GraphConfig struct {
	// MaxCachedGraphs is the graph cache capacity. Default: 4.
	MaxCachedGraphs int `yaml:"max_cached_graphs"`

	// TTL is how long graphs stay cached (0 = forever).
	TTL time.Duration `yaml:"ttl"`

	// SourceRoot is the directory source filenames resolve against when
	// rendering context listings.
	SourceRoot string `yaml:"source_root"`

	// PrecomputeOwnership eagerly resolves method ownership at load time.
	PrecomputeOwnership bool `yaml:"precompute_ownership"`
}

// Config is the root CPG service configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Graph     GraphConfig      `yaml:"graph"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8092,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Graph: GraphConfig{
			MaxCachedGraphs: 4,
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads the configuration file at path, layering it over defaults
// and applying environment overrides last.
//
// Description:
//
//	An empty path skips the file entirely: defaults plus environment.
//	Unknown YAML keys are an error, catching typos early.
//
// Environment overrides:
//
//	CPG_HOST        - listen address
//	CPG_PORT        - listen port
//	CPG_SOURCE_ROOT - render source root
//
// Outputs:
//
//	Config - The effective configuration.
//	error  - I/O, size, parse, or validation failure.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
		if info.Size() > MaxYAMLFileSize {
			return Config{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
		}

		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		_ = f.Close()
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnv layers environment overrides over the loaded values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CPG_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CPG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CPG_SOURCE_ROOT"); v != "" {
		cfg.Graph.SourceRoot = v
	}
}
