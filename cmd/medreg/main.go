package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"medreg/internal/sliceio"
	"medreg/pkg/config"
	"medreg/pkg/registration"
)

func main() {
	// Parse command line arguments
	fixedDir := flag.String("fixed", "", "Directory containing the fixed image slices")
	movingDir := flag.String("moving", "", "Directory containing the moving image slices")
	outputDir := flag.String("output", "registered", "Directory to save the registered image slices")
	configPath := flag.String("config", "medreg.yaml", "Path to the YAML configuration file")
	plotDir := flag.String("plot-dir", "", "Prefix for per-iteration progress plots (overrides config)")
	verbose := flag.Bool("verbose", false, "Report the final metric value and stopping condition")
	flag.Parse()

	// Validate inputs
	if *fixedDir == "" || *movingDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *plotDir != "" {
		cfg.Output.PlotDirectoryPath = *plotDir
	}
	if *verbose {
		cfg.Output.Verbose = true
	}

	fmt.Println("Loading fixed image...")
	fixed, err := sliceio.LoadVolume(*fixedDir, nil)
	if err != nil {
		log.Fatalf("Failed to load fixed image: %v", err)
	}
	fmt.Println("Loading moving image...")
	moving, err := sliceio.LoadVolume(*movingDir, nil)
	if err != nil {
		log.Fatalf("Failed to load moving image: %v", err)
	}
	fmt.Printf("Fixed image size: %v, moving image size: %v\n", fixed.Size(), moving.Size())

	reg, err := registration.NewRigidRegistration(cfg.Options())
	if err != nil {
		log.Fatalf("Invalid registration configuration: %v", err)
	}
	reg.Verbose = cfg.Output.Verbose
	fmt.Println(reg)

	params := &registration.Params{
		FixedImage:        fixed,
		PlotDirectoryPath: cfg.Output.PlotDirectoryPath,
	}

	fmt.Println("Starting rigid registration...")
	startTime := time.Now()
	registered, err := reg.Execute(moving, params)
	if err != nil {
		log.Fatalf("Registration failed: %v", err)
	}
	fmt.Printf("Registration completed in %.2f seconds\n", time.Since(startTime).Seconds())

	if err := sliceio.SaveVolume(*outputDir, registered); err != nil {
		log.Fatalf("Failed to save registered image: %v", err)
	}
	fmt.Printf("Registered image slices saved to: %s\n", *outputDir)

	if params.PlotDirectoryPath != "" {
		fmt.Printf("Progress plots written under: %s\n", params.PlotDirectoryPath)
	}
}
