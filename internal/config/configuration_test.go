package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kubev2v/corofiber/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fiber.Workers != 4 {
		t.Errorf("Fiber.Workers = %d, want 4", cfg.Fiber.Workers)
	}
	if cfg.Daemon.RestartInterval != time.Second {
		t.Errorf("Daemon.RestartInterval = %v, want 1s", cfg.Daemon.RestartInterval)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
	if len(cfg.Log.Sinks) != 1 || cfg.Log.Sinks[0] != "stdout" {
		t.Errorf("Log.Sinks = %v, want [stdout]", cfg.Log.Sinks)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "fiber:\n  workers: 8\nlog:\n  level: debug\n  format: console\n  sinks: []\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fiber.Workers != 8 {
		t.Errorf("Fiber.Workers = %d, want 8", cfg.Fiber.Workers)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v, want debug/console", cfg.Log)
	}
	if len(cfg.Log.Sinks) != 1 || cfg.Log.Sinks[0] != "stdout" {
		t.Errorf("Log.Sinks = %v, want normalized to [stdout] when empty", cfg.Log.Sinks)
	}
	// Daemon section untouched by the file, still defaulted.
	if cfg.Daemon.RestartInterval != time.Second {
		t.Errorf("Daemon.RestartInterval = %v, want 1s", cfg.Daemon.RestartInterval)
	}
}
