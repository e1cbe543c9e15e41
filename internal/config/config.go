// Package config provides process-level configuration for quad.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"
	// QuadDir is the quad configuration directory
	QuadDir = ".quad"
)

// Config represents the quad configuration. User-facing preferences live in
// the settings blobs; this file holds where data lives and how the process
// runs.
type Config struct {
	// Version is the config file version
	Version int `yaml:"version"`

	// DataDir is where the database and exports live
	DataDir string `yaml:"data_dir"`

	// DBPath overrides the database file location (default: data_dir/quad.db)
	DBPath string `yaml:"db_path,omitempty"`

	// ListenAddr is the sync server bind address
	ListenAddr string `yaml:"listen_addr"`

	// Reminder tick intervals
	CoarseInterval time.Duration `yaml:"coarse_interval"`
	FineInterval   time.Duration `yaml:"fine_interval"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version:        1,
		DataDir:        defaultDataDir(),
		ListenAddr:     "127.0.0.1:8420",
		CoarseInterval: 60 * time.Second,
		FineInterval:   time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return QuadDir
	}
	return filepath.Join(home, QuadDir)
}

// DatabasePath returns the effective database file path.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "quad.db")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.CoarseInterval <= 0 {
		return fmt.Errorf("coarse_interval must be positive")
	}
	if c.FineInterval <= 0 {
		return fmt.Errorf("fine_interval must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Load reads configuration from the given path, merged over defaults. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the given path, creating the parent
// directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// DefaultPath returns the user config file path (~/.quad/config.yaml).
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), ConfigFileName)
}
