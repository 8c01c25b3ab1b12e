package model

import (
	"path/filepath"
	"testing"
)

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := &AppConfig{
		Server: ServerConfig{
			URL: "wss://api.example.com/realtime",
		},
		Sync: SyncConfig{
			ReconcileIntervalSec:  120,
			SweepCheckIntervalSec: 30,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(t.TempDir(), "rentwatch.db"),
		},
		LogLevel: "debug",
	}

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if got.Server.URL != want.Server.URL {
		t.Errorf("server url = %q, want %q", got.Server.URL, want.Server.URL)
	}
	if got.Sync.ReconcileIntervalSec != want.Sync.ReconcileIntervalSec {
		t.Errorf("reconcile interval = %d, want %d", got.Sync.ReconcileIntervalSec, want.Sync.ReconcileIntervalSec)
	}
	if got.Sync.SweepCheckIntervalSec != want.Sync.SweepCheckIntervalSec {
		t.Errorf("sweep check interval = %d, want %d", got.Sync.SweepCheckIntervalSec, want.Sync.SweepCheckIntervalSec)
	}
	if got.Storage.DatabasePath != want.Storage.DatabasePath {
		t.Errorf("database path = %q, want %q", got.Storage.DatabasePath, want.Storage.DatabasePath)
	}
	if got.LogLevel != want.LogLevel {
		t.Errorf("log level = %q, want %q", got.LogLevel, want.LogLevel)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading missing config: %v", err)
	}

	if cfg.Sync.ReconcileIntervalSec != 60 {
		t.Errorf("default reconcile interval = %d, want 60", cfg.Sync.ReconcileIntervalSec)
	}
	if cfg.Sync.SweepCheckIntervalSec != 60 {
		t.Errorf("default sweep check interval = %d, want 60", cfg.Sync.SweepCheckIntervalSec)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q, want %q", cfg.LogLevel, "info")
	}
}
