package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the daemon configuration.
type Config struct {
	// HTTP server settings
	ListenAddr string `mapstructure:"listen_addr"`
	BasePath   string `mapstructure:"base_path"`
	ReadOnly   bool   `mapstructure:"read_only"`

	// Backend connectivity. BackendURL drives the REST session store;
	// when DatabaseURL is set the store reads Postgres directly instead.
	BackendURL  string `mapstructure:"backend_url"`
	EventsURL   string `mapstructure:"events_url"`
	DatabaseURL string `mapstructure:"database_url"`

	// Multiplexer tuning
	SnapshotTTL    time.Duration `mapstructure:"snapshot_ttl"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`

	// UI tuning
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	PageSize        int           `mapstructure:"page_size"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		SnapshotTTL:     30 * time.Minute,
		ReconnectDelay:  5 * time.Second,
		RefreshInterval: 2 * time.Second,
		PageSize:        25,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// LoadConfig loads configuration from files and environment. When path
// is non-empty only that file is read; otherwise the usual config
// locations are searched and a missing file falls back to defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("uderiad")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/uderiad/")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "uderiad"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("UDERIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := Default()
	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("base_path", cfg.BasePath)
	v.SetDefault("read_only", cfg.ReadOnly)
	v.SetDefault("backend_url", cfg.BackendURL)
	v.SetDefault("events_url", cfg.EventsURL)
	v.SetDefault("database_url", cfg.DatabaseURL)
	v.SetDefault("snapshot_ttl", cfg.SnapshotTTL)
	v.SetDefault("reconnect_delay", cfg.ReconnectDelay)
	v.SetDefault("refresh_interval", cfg.RefreshInterval)
	v.SetDefault("page_size", cfg.PageSize)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found; defaults plus environment apply.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
