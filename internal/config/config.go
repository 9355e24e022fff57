// Package config loads the program's YAML configuration and watches it for
// changes while a long-lived session keeper is running.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"signon/internal/account"
	"signon/pkg/logging"
)

const (
	userConfigDir  = ".config/signon"
	configFileName = "config.yaml"
)

// Config is the on-disk configuration. Every field is optional; defaults
// cover the common case of an empty or missing file.
type Config struct {
	// Environment overrides the built-in identity environment. A partial
	// override is not supported: either the whole environment is given or
	// the default is used.
	Environment *account.Environment `yaml:"environment,omitempty"`

	// Tenant selects the directory tenant for token requests.
	Tenant string `yaml:"tenant,omitempty"`

	// LogLevel sets the log verbosity (debug, info, warn, error).
	LogLevel string `yaml:"logLevel,omitempty"`
}

// ResolvedEnvironment returns the configured environment, or the built-in
// default when none is set.
func (c Config) ResolvedEnvironment() account.Environment {
	if c.Environment != nil {
		return *c.Environment
	}
	return account.DefaultEnvironment
}

// ResolvedTenant returns the configured tenant, or the default tenant when
// none is set.
func (c Config) ResolvedTenant() string {
	if c.Tenant != "" {
		return c.Tenant
	}
	return account.DefaultTenantID
}

// DefaultPath returns the default config file path under the user's home
// directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user home directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// Load reads the config file at path. A missing file is not an error and
// yields the zero config; a malformed file is.
func Load(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config file found at %s, using defaults", path)
			return config, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return config, nil
}
