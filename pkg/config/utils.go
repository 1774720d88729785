package config

import (
	"fmt"
	"os"
	"path/filepath"

	"pluswm/pkg/core"
)

// DefaultPath returns $XDG_CONFIG_HOME/pluswm/config.toml.
func DefaultPath() (string, error) {
	homeConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeConfigDir, "pluswm", "config.toml"), nil
}

// FindConfig locates and loads the configuration. An explicit path must load;
// otherwise the default location is used and created from the built-in
// defaults when missing.
func FindConfig(providedPath string, log core.Logger) (*Config, error) {
	log.Info("Looking for configuration", "provided_path", providedPath)

	if providedPath != "" {
		cfg, err := LoadFromFile(providedPath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from provided path: %w", err)
		}
		return cfg, nil
	}

	defaultPath, err := DefaultPath()
	if err != nil {
		log.Error("Failed to get user config directory", err)
		return nil, err
	}

	if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
		log.Info("No config file found, writing defaults", "path", defaultPath)
		if err := writeDefault(defaultPath); err != nil {
			// Not fatal: the built-in defaults still apply.
			log.Warn("Failed to write default config", "path", defaultPath, "error", err.Error())
		}
		cfg, err := DefaultConfig()
		if err != nil {
			return nil, err
		}
		cfg.path = defaultPath
		return cfg, nil
	}

	return LoadFromFile(defaultPath, log)
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, defaultTOML, 0644)
}
