package config

import (
	_ "embed"
	"fmt"
)

//go:embed default.toml
var defaultTOML []byte

// DefaultTOML returns the built-in configuration file contents.
func DefaultTOML() []byte {
	return append([]byte(nil), defaultTOML...)
}

// DefaultConfig creates the built-in configuration.
func DefaultConfig() (*Config, error) {
	cfg := &Config{}
	if err := cfg.decode(defaultTOML, FormatTOML); err != nil {
		return nil, fmt.Errorf("failed to parse built-in config: %w", err)
	}
	return cfg, nil
}
