// OpenChain - Open Source Community Relationship Analysis
// Copyright 2026 Frank-whw
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Frank-whw/OpenChain

// Package config loads application configuration with koanf: struct defaults,
// then an optional YAML file, then OPENCHAIN_* environment variables, each
// layer overriding the previous one.
//
// Environment variables flatten key paths with underscores, so server.addr
// becomes OPENCHAIN_SERVER_ADDR and recommend.edge_cutoff becomes
// OPENCHAIN_RECOMMEND_EDGE_CUTOFF. Variables matching no known key are
// ignored.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/Frank-whw/OpenChain/internal/api"
	"github.com/Frank-whw/OpenChain/internal/provider"
	"github.com/Frank-whw/OpenChain/internal/recommend"
)

const envPrefix = "OPENCHAIN_"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8000".
	Addr string `koanf:"addr"`

	// ReadTimeout bounds request reading. Default: 15s.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response writing. It must exceed the pipeline's
	// request timeout or long recommendations get cut off mid-response.
	// Default: 45s.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 20s.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level. Default: info.
	Level string `koanf:"level"`

	// Format is json or console. Default: json.
	Format string `koanf:"format"`

	// Caller includes caller locations in log lines. Default: false.
	Caller bool `koanf:"caller"`
}

// Config is the application configuration root.
type Config struct {
	Server    ServerConfig      `koanf:"server"`
	Log       LogConfig         `koanf:"log"`
	Provider  provider.Config   `koanf:"provider"`
	Router    api.RouterConfig  `koanf:"router"`
	Recommend *recommend.Config `koanf:"recommend"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    45 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Provider:  provider.DefaultConfig(),
		Router:    api.DefaultRouterConfig(),
		Recommend: recommend.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment. An empty path skips the file layer; a named file that does not
// exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	// Env names flatten key paths with underscores, which makes the reverse
	// mapping ambiguous (RECOMMEND_EDGE_CUTOFF could be recommend.edge.cutoff
	// or recommend.edge_cutoff). Resolve each variable against the known key
	// set instead of transforming blindly; unknown variables are ignored.
	known := make(map[string]string, len(k.Keys()))
	for _, path := range k.Keys() {
		known[strings.ReplaceAll(path, ".", "_")] = path
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return known[strings.ToLower(strings.TrimPrefix(s, envPrefix))]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Recommend == nil {
		return fmt.Errorf("recommend section missing")
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if c.Server.WriteTimeout <= c.Recommend.Limits.RequestTimeout {
		return fmt.Errorf("server.write_timeout (%v) must exceed recommend.limits.request_timeout (%v)",
			c.Server.WriteTimeout, c.Recommend.Limits.RequestTimeout)
	}
	return nil
}
