package config

import (
	"os"
	"path/filepath"
	"testing"

	"medreg/pkg/registration"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	opts := registration.DefaultOptions()

	if cfg.Registration.HistogramBins != opts.HistogramBins {
		t.Errorf("Expected %d histogram bins, got %d", opts.HistogramBins, cfg.Registration.HistogramBins)
	}
	if cfg.Registration.LearningRate != opts.LearningRate {
		t.Errorf("Expected learning rate %f, got %f", opts.LearningRate, cfg.Registration.LearningRate)
	}
	if cfg.Registration.Iterations != opts.Iterations {
		t.Errorf("Expected %d iterations, got %d", opts.Iterations, cfg.Registration.Iterations)
	}
	if len(cfg.Registration.ShrinkFactors) != len(cfg.Registration.SmoothingSigmas) {
		t.Error("Expected shrink factors and smoothing sigmas of equal length")
	}
	if cfg.Output.PlotDirectoryPath != "" || cfg.Output.Verbose {
		t.Error("Expected plotting and verbosity to be off by default")
	}
}

func TestOptionsConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Registration.HistogramBins = 64
	cfg.Registration.ShrinkFactors = []int{2, 1}
	cfg.Registration.SmoothingSigmas = []float64{1, 0}

	opts := cfg.Options()
	if opts.HistogramBins != 64 {
		t.Errorf("Expected 64 histogram bins, got %d", opts.HistogramBins)
	}
	if len(opts.ShrinkFactors) != 2 || opts.ShrinkFactors[0] != 2 {
		t.Errorf("Expected shrink factors [2 1], got %v", opts.ShrinkFactors)
	}
	if _, err := registration.NewRigidRegistration(opts); err != nil {
		t.Errorf("Expected converted options to build a filter: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}
	if cfg.Registration.HistogramBins != registration.DefaultOptions().HistogramBins {
		t.Error("Expected default configuration for a missing file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medreg.yaml")

	cfg := DefaultConfig()
	cfg.Registration.HistogramBins = 50
	cfg.Registration.LearningRate = 0.25
	cfg.Registration.ShrinkFactors = []int{8, 4, 2, 1}
	cfg.Registration.SmoothingSigmas = []float64{4, 2, 1, 0}
	cfg.Output.PlotDirectoryPath = "plots/run"
	cfg.Output.Verbose = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Registration.HistogramBins != 50 {
		t.Errorf("Expected 50 histogram bins, got %d", loaded.Registration.HistogramBins)
	}
	if loaded.Registration.LearningRate != 0.25 {
		t.Errorf("Expected learning rate 0.25, got %f", loaded.Registration.LearningRate)
	}
	if len(loaded.Registration.ShrinkFactors) != 4 {
		t.Errorf("Expected 4 shrink factors, got %v", loaded.Registration.ShrinkFactors)
	}
	if loaded.Output.PlotDirectoryPath != "plots/run" || !loaded.Output.Verbose {
		t.Error("Expected output section to survive the round trip")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("registration: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "medreg.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected config file to exist: %v", err)
	}
}
