// Package config provides configuration loading and management for
// dmridata. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dmridata/pkg/data"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Data parameters
	Data struct {
		// Dir is the directory the bundled example datasets live in
		Dir string `yaml:"dir"`
	} `yaml:"data"`

	// Figure parameters
	Figure struct {
		// Output is the file the correlation figure is written to
		Output string `yaml:"output"`
	} `yaml:"figure"`

	// Slices parameters for slice-image export
	Slices struct {
		// Axis is the axis slices are extracted along (x, y or z)
		Axis string `yaml:"axis"`

		// OutputDir is the directory slice JPEGs are written to
		OutputDir string `yaml:"outputDir"`

		// VolumeIndex selects the volume of a 4D dataset to render
		VolumeIndex int `yaml:"volumeIndex"`
	} `yaml:"slices"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Data.Dir = data.DefaultDir()
	cfg.Figure.Output = "fraction_correlation.png"
	cfg.Slices.Axis = "z"
	cfg.Slices.OutputDir = "slices"
	cfg.Slices.VolumeIndex = 0
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, raw, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
