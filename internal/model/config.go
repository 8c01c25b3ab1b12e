package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the realtime channel.
type ServerConfig struct {
	// URL is the websocket endpoint of the notification server
	// (e.g., "wss://api.example.com/realtime").
	URL string `mapstructure:"url" yaml:"url"`
}

// SyncConfig holds timing settings for the realtime sync service.
type SyncConfig struct {
	// ReconcileIntervalSec is how often (in seconds) to re-request
	// upcoming visits and pending payments from the server.
	ReconcileIntervalSec int `mapstructure:"reconcile_interval_sec" yaml:"reconcile_interval_sec"`

	// SweepCheckIntervalSec is how often (in seconds) to check whether
	// the calendar date has rolled over and the expiration sweep is due.
	SweepCheckIntervalSec int `mapstructure:"sweep_check_interval_sec" yaml:"sweep_check_interval_sec"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	// DatabasePath is the SQLite file backing the notification store.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig  `mapstructure:"server" yaml:"server"`
	Sync     SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Storage  StorageConfig `mapstructure:"storage" yaml:"storage"`
	LogLevel string        `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/rentwatch/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "rentwatch", "config.yaml")
}

// defaultDatabasePath returns the default SQLite location,
// ~/.local/share/rentwatch/rentwatch.db.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "rentwatch.db")
	}
	return filepath.Join(home, ".local", "share", "rentwatch", "rentwatch.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			URL: "ws://localhost:8080/realtime",
		},
		Sync: SyncConfig{
			ReconcileIntervalSec:  60,
			SweepCheckIntervalSec: 60,
		},
		Storage: StorageConfig{
			DatabasePath: defaultDatabasePath(),
		},
		LogLevel: "info",
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.url", "ws://localhost:8080/realtime")
	v.SetDefault("sync.reconcile_interval_sec", 60)
	v.SetDefault("sync.sweep_check_interval_sec", 60)
	v.SetDefault("storage.database_path", defaultDatabasePath())
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Sync.ReconcileIntervalSec <= 0 {
		cfg.Sync.ReconcileIntervalSec = 60
	}
	if cfg.Sync.SweepCheckIntervalSec <= 0 {
		cfg.Sync.SweepCheckIntervalSec = 60
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("sync", cfg.Sync)
	v.Set("storage", cfg.Storage)
	v.Set("log_level", cfg.LogLevel)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
