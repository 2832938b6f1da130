package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SyncConfig holds the sync coordinator's retry tuning.
type SyncConfig struct {
	// BackoffBaseSec is the initial retry delay after a failed drain.
	BackoffBaseSec int `mapstructure:"backoff_base_sec" yaml:"backoff_base_sec"`

	// BackoffMaxSec caps the exponential retry delay.
	BackoffMaxSec int `mapstructure:"backoff_max_sec" yaml:"backoff_max_sec"`
}

// StorageConfig holds local durable storage settings.
type StorageConfig struct {
	// DBPath is the SQLite database location. ":memory:" is accepted
	// for ephemeral use.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// WriteRetries bounds retries of the local persist on transient
	// storage errors before surfacing the failure to the caller.
	WriteRetries int `mapstructure:"write_retries" yaml:"write_retries"`
}

// EngineConfig is the top-level engine configuration.
type EngineConfig struct {
	// ResetHour is the local hour (0-23) at which a new app-day begins.
	ResetHour int `mapstructure:"reset_hour" yaml:"reset_hour"`

	// ReminderDelayMin is how many minutes after wake time the daily
	// reminder fires.
	ReminderDelayMin int `mapstructure:"reminder_delay_min" yaml:"reminder_delay_min"`

	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/habitengine/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "habitengine", "config.yaml")
}

// defaultDBPath returns the default SQLite database location.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "habits.db")
	}
	return filepath.Join(home, ".config", "habitengine", "habits.db")
}

// defaultEngineConfig returns a sensible default configuration.
func defaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		ResetHour:        3,
		ReminderDelayMin: 90,
		Storage: StorageConfig{
			DBPath:       defaultDBPath(),
			WriteRetries: 3,
		},
		Sync: SyncConfig{
			BackoffBaseSec: 5,
			BackoffMaxSec:  300,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*EngineConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("reset_hour", 3)
	v.SetDefault("reminder_delay_min", 90)
	v.SetDefault("storage.db_path", defaultDBPath())
	v.SetDefault("storage.write_retries", 3)
	v.SetDefault("sync.backoff_base_sec", 5)
	v.SetDefault("sync.backoff_max_sec", 300)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultEngineConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultEngineConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultEngineConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.ResetHour < 0 || cfg.ResetHour > 23 {
		return nil, fmt.Errorf("config %s: reset_hour %d out of range 0-23", path, cfg.ResetHour)
	}
	if cfg.Sync.BackoffBaseSec <= 0 {
		cfg.Sync.BackoffBaseSec = 5
	}
	if cfg.Sync.BackoffMaxSec < cfg.Sync.BackoffBaseSec {
		cfg.Sync.BackoffMaxSec = cfg.Sync.BackoffBaseSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *EngineConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("reset_hour", cfg.ResetHour)
	v.Set("reminder_delay_min", cfg.ReminderDelayMin)
	v.Set("storage", cfg.Storage)
	v.Set("sync", cfg.Sync)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
