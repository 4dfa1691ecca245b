// Package config handles configuration loading from files, environment variables, and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the CLI configuration.
type Config struct {
	APIBase  string `mapstructure:"api_base"`
	AuthBase string `mapstructure:"auth_base"`
	AuthKey  string `mapstructure:"auth_key"`
	Trace    bool   `mapstructure:"trace"`
	JSON     bool   `mapstructure:"json"`
	Verbose  bool   `mapstructure:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBase:  "http://localhost:8080",
		AuthBase: "http://localhost:8080",
		AuthKey:  "",
		Trace:    false,
		JSON:     false,
		Verbose:  false,
	}
}

// Load loads configuration with the following precedence (highest to lowest):
// 1. Command-line flags (handled by caller)
// 2. Environment variables (CLIPDASH_API_BASE, ...)
// 3. Config file (~/.clipdash/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(home, ".clipdash"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLIPDASH")
	v.AutomaticEnv()
	v.BindEnv("api_base", "CLIPDASH_API_BASE")
	v.BindEnv("auth_base", "CLIPDASH_AUTH_BASE")
	v.BindEnv("auth_key", "CLIPDASH_AUTH_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// GetConfigDir returns the path to the config directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to find home directory: %w", err)
	}
	return filepath.Join(home, ".clipdash"), nil
}

// SessionPath returns the path of the cached auth session.
func SessionPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// PreferencesPath returns the path of the durable preference store holding
// the manager's tenant selection.
func PreferencesPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "preferences.yaml"), nil
}

// Validate checks if the configuration is valid for making API calls.
// An empty base URL is a configuration error surfaced before any request.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBase) == "" {
		return fmt.Errorf("API base URL is required (set via --api-base, CLIPDASH_API_BASE, or config file)")
	}
	return nil
}

// ValidateForAuth checks if the configuration is valid for auth operations.
func (c *Config) ValidateForAuth() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.AuthBase) == "" {
		return fmt.Errorf("auth base URL is required (set via --auth-base, CLIPDASH_AUTH_BASE, or config file)")
	}
	return nil
}
