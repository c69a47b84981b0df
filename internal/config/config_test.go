package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
  mode: release
store:
  path: /tmp/watch.json
monitor:
  sweep_spec: "@every 6h"
  alert_window_days: 14
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Monitor.SweepSpec != "@every 6h" {
		t.Errorf("Monitor.SweepSpec = %q, want @every 6h", cfg.Monitor.SweepSpec)
	}
	if cfg.Monitor.AlertWindowDays != 14 {
		t.Errorf("Monitor.AlertWindowDays = %d, want 14", cfg.Monitor.AlertWindowDays)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  mode: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Monitor.SweepSpec != "@every 12h" {
		t.Errorf("default sweep spec = %q, want @every 12h", cfg.Monitor.SweepSpec)
	}
	if cfg.Monitor.AlertWindowDays != 7 {
		t.Errorf("default alert window = %d, want 7", cfg.Monitor.AlertWindowDays)
	}
	if cfg.Monitor.StaleAfter != "24h" {
		t.Errorf("default stale_after = %q, want 24h", cfg.Monitor.StaleAfter)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig on missing file should return an error")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"30s", time.Minute, 30 * time.Second},
		{"", time.Minute, time.Minute},
		{"garbage", 24 * time.Hour, 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := Duration(tt.in, tt.def); got != tt.want {
			t.Errorf("Duration(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}
