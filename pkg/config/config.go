// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config resolves the tool configuration from a TOML file and
// environment variables. Command-line flags override both.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds the connection settings of a session.
type Config struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
}

// Default returns the settings of the module handbook: 19200 baud, no
// port preselected.
func Default() *Config {
	return &Config{Baud: 19200}
}

// Load reads path into a default config and overlays the environment.
// A missing file or an empty path is not an error; the defaults are
// used, still overlaid with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnv()
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays CAPNO_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("CAPNO_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("CAPNO_BAUD"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil && baud > 0 {
			c.Baud = baud
		}
	}
	if v := os.Getenv("CAPNO_URL"); v != "" {
		c.URL = v
	}
}
