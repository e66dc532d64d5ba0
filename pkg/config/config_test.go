// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Baud != 19200 {
		t.Errorf("default baud: %d", cfg.Baud)
	}
	if cfg.Port != "" {
		t.Errorf("default port should be empty: %q", cfg.Port)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capno.toml")
	content := `
port = "/dev/ttyUSB3"
baud = 9600
url = "ws://bridge.local/gas"
username = "operator"
no_ssl_verify = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "/dev/ttyUSB3" {
		t.Errorf("port: %q", cfg.Port)
	}
	if cfg.Baud != 9600 {
		t.Errorf("baud: %d", cfg.Baud)
	}
	if cfg.URL != "ws://bridge.local/gas" {
		t.Errorf("url: %q", cfg.URL)
	}
	if cfg.Username != "operator" {
		t.Errorf("username: %q", cfg.Username)
	}
	if !cfg.NoSSLVerify {
		t.Error("no_ssl_verify not applied")
	}
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Baud != 19200 {
		t.Errorf("baud: %d", cfg.Baud)
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capno.toml")
	if err := os.WriteFile(path, []byte("port = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capno.toml")
	if err := os.WriteFile(path, []byte("port = \"/dev/ttyUSB0\"\nbaud = 9600\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CAPNO_PORT", "/dev/ttyACM7")
	t.Setenv("CAPNO_BAUD", "38400")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "/dev/ttyACM7" {
		t.Errorf("env port not applied: %q", cfg.Port)
	}
	if cfg.Baud != 38400 {
		t.Errorf("env baud not applied: %d", cfg.Baud)
	}
}

func TestLoad_BadEnvBaudIgnored(t *testing.T) {
	t.Setenv("CAPNO_BAUD", "not-a-number")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Baud != 19200 {
		t.Errorf("bad env baud should keep the default, got %d", cfg.Baud)
	}
}
