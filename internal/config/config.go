package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the root of the public mail.tm REST API.
const DefaultBaseURL = "https://api.mail.tm"

// Config is the top-level application configuration.
type Config struct {
	// DatabasePath is the location of the local SQLite database.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// BaseURL is the root URL of the mail provider API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// HTTPTimeoutSec bounds each remote API call.
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// UseKeyring stores address passwords and tokens in the system
	// keyring instead of the database file.
	UseKeyring bool `mapstructure:"use_keyring" yaml:"use_keyring"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/tempbox/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "tempbox", "config.yaml")
}

// defaultConfig returns a sensible default configuration.
func defaultConfig() *Config {
	dbPath := "tempbox.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".local", "share", "tempbox", "tempbox.db")
	}
	return &Config{
		DatabasePath:   dbPath,
		BaseURL:        DefaultBaseURL,
		HTTPTimeoutSec: 30,
		LogLevel:       "info",
	}
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultConfig()
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("http_timeout_sec", defaults.HTTPTimeoutSec)
	v.SetDefault("log_level", defaults.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the given configuration to a YAML file at path, creating
// parent directories if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database_path", cfg.DatabasePath)
	v.Set("base_url", cfg.BaseURL)
	v.Set("http_timeout_sec", cfg.HTTPTimeoutSec)
	v.Set("use_keyring", cfg.UseKeyring)
	v.Set("log_level", cfg.LogLevel)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
