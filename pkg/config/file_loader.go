package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pluswm/pkg/core"
)

// Format selects the decoder for a configuration file.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported config extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

func (c *Config) decode(data []byte, format Format) error {
	var fc fileConfig
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&fc)
		if err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown config keys: %v", undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return fmt.Errorf("unknown config format %d", format)
	}
	return c.apply(fc)
}

// Parse builds a configuration from file contents layered over the defaults.
func Parse(data []byte, format Format) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.decode(data, format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads the configuration from a TOML or YAML file.
func LoadFromFile(path string, log core.Logger) (*Config, error) {
	log.Debug("Loading configuration from file", "path", path)

	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("Failed to read config file", err, "path", path)
		return nil, err
	}
	log.Debug("Config file read successfully", "size_bytes", len(data))

	cfg, err := Parse(data, format)
	if err != nil {
		log.Error("Failed to parse config file", err, "path", path)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}
