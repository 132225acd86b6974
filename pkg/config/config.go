// Package config provides configuration loading and management for medreg.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"medreg/pkg/registration"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Registration parameters
	Registration struct {
		// HistogramBins is the number of bins of the mutual information metric
		HistogramBins int `yaml:"histogramBins"`

		// LearningRate is the optimizer's step length
		LearningRate float64 `yaml:"learningRate"`

		// StepSize is kept for compatibility; the optimizer does not use it
		StepSize float64 `yaml:"stepSize"`

		// Iterations caps the optimizer steps per resolution level
		Iterations int `yaml:"iterations"`

		// ShrinkFactors holds the per-level downsampling factors
		ShrinkFactors []int `yaml:"shrinkFactors"`

		// SmoothingSigmas holds the per-level Gaussian sigmas in physical units
		SmoothingSigmas []float64 `yaml:"smoothingSigmas"`
	} `yaml:"registration"`

	// Output parameters
	Output struct {
		// PlotDirectoryPath is the prefix for per-iteration progress plots.
		// Empty disables plotting.
		PlotDirectoryPath string `yaml:"plotDirectoryPath"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	opts := registration.DefaultOptions()
	cfg.Registration.HistogramBins = opts.HistogramBins
	cfg.Registration.LearningRate = opts.LearningRate
	cfg.Registration.StepSize = opts.StepSize
	cfg.Registration.Iterations = opts.Iterations
	cfg.Registration.ShrinkFactors = opts.ShrinkFactors
	cfg.Registration.SmoothingSigmas = opts.SmoothingSigmas

	cfg.Output.PlotDirectoryPath = ""
	cfg.Output.Verbose = false

	return cfg
}

// Options converts the registration section into filter options.
func (cfg *Config) Options() registration.Options {
	return registration.Options{
		HistogramBins:   cfg.Registration.HistogramBins,
		LearningRate:    cfg.Registration.LearningRate,
		StepSize:        cfg.Registration.StepSize,
		Iterations:      cfg.Registration.Iterations,
		ShrinkFactors:   cfg.Registration.ShrinkFactors,
		SmoothingSigmas: cfg.Registration.SmoothingSigmas,
	}
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
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
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
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
