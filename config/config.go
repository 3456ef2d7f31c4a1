// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the hearth CLI.
//
// Configuration is loaded from a single YAML file specified by:
//   - the --config flag passed to the command, or
//   - the HEARTH_CONFIG environment variable
//
// There is no automatic discovery. When neither is set, built-in
// defaults apply; most settings can also be supplied per-invocation
// with flags, so a config file is optional.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the hearth CLI configuration.
type Config struct {
	// HomeserverURL is the base URL of the home-server,
	// e.g. "http://localhost:8080".
	HomeserverURL string `yaml:"homeserver_url"`

	// IdentityServerURL is the base URL of the identity server used
	// for email validation. Optional.
	IdentityServerURL string `yaml:"identity_server_url"`

	// StateDir is where local state (session.json) is stored.
	// ${HOME} and other environment variables are expanded.
	StateDir string `yaml:"state_dir"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in defaults: no server URLs (those come
// from the file or flags), state under the user's home directory,
// info-level logging.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		StateDir: filepath.Join(homeDir, ".local", "state", "hearth"),
		LogLevel: "info",
	}
}

// Load loads configuration from the path in the HEARTH_CONFIG
// environment variable. Fails when the variable is not set; use
// LoadFile for an explicit path or Resolve for the CLI's
// flag-then-env-then-default chain.
func Load() (*Config, error) {
	path := os.Getenv("HEARTH_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("config: HEARTH_CONFIG environment variable not set; " +
			"set it to the path of your hearth.yaml, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from the given file, merged over the
// defaults. Environment variables do not override file values; the
// only expansion performed is ${VAR} inside StateDir.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.StateDir = os.ExpandEnv(cfg.StateDir)

	if _, err := cfg.SlogLevel(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads configuration for a CLI invocation: the explicit flag
// path when given, else HEARTH_CONFIG when set, else the defaults.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return LoadFile(flagPath)
	}
	if os.Getenv("HEARTH_CONFIG") != "" {
		return Load()
	}
	return Default(), nil
}

// SessionPath returns the path of the persisted session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.StateDir, "session.json")
}

// SlogLevel parses LogLevel into a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
