// Package registration aligns two images of possibly different modalities
// with a rigid transformation (rotation and translation). The filter is a
// thin configuration layer: similarity is measured by mutual information,
// parameters are stepped by gradient descent over a multi-resolution pyramid,
// and the aligned moving image is resampled onto the fixed image's grid.
//
// Typical use:
//
//	reg, err := registration.NewRigidRegistration(registration.DefaultOptions())
//	params := &registration.Params{FixedImage: fixed}
//	registered, err := reg.Execute(moving, params)
package registration

import (
	"fmt"

	"medreg/pkg/transform"
	"medreg/pkg/volume"
)

// Params carries the per-call inputs of a registration: the fixed (reference)
// image and, optionally, a directory prefix for progress plots. An empty
// PlotDirectoryPath disables plotting. The filter does not modify Params.
type Params struct {
	// FixedImage is the reference image the moving image is aligned to
	FixedImage *volume.Image

	// PlotDirectoryPath is the prefix for per-iteration diagnostic plots.
	// Plotting adds noticeable time to every iteration.
	PlotDirectoryPath string
}

// Options are the construction-time tuning knobs of a rigid registration.
type Options struct {
	// HistogramBins is the number of bins of the mutual information metric
	HistogramBins int

	// LearningRate is the optimizer's (constant) step length
	LearningRate float64

	// StepSize is retained for interface compatibility; the gradient descent
	// optimizer currently does not consume it
	StepSize float64

	// Iterations caps the optimizer steps per resolution level
	Iterations int

	// ShrinkFactors holds the per-level downsampling factors, coarse to fine
	ShrinkFactors []int

	// SmoothingSigmas holds the per-level Gaussian sigmas in physical units,
	// matched one-to-one with ShrinkFactors
	SmoothingSigmas []float64
}

// DefaultOptions returns the default registration setup: a three-level
// pyramid with 200 histogram bins and up to 200 iterations per level.
func DefaultOptions() Options {
	return Options{
		HistogramBins:   200,
		LearningRate:    1.0,
		StepSize:        0.001,
		Iterations:      200,
		ShrinkFactors:   []int{4, 2, 1},
		SmoothingSigmas: []float64{2, 1, 0},
	}
}

// RigidRegistration is a multi-modal rigid image registration filter. One
// filter instance holds one engine configuration and may run any number of
// registrations sequentially; Execute rebuilds all per-run state, so earlier
// runs do not leak into later ones. Concurrent Execute calls on the same
// instance are not safe.
type RigidRegistration struct {
	// Verbose makes Execute report the final metric value and the
	// optimizer's stopping condition
	Verbose bool

	opts   Options
	engine *engineConfig
}

// NewRigidRegistration validates the options and pre-builds the engine
// configuration. ShrinkFactors and SmoothingSigmas must have the same length.
func NewRigidRegistration(opts Options) (*RigidRegistration, error) {
	if len(opts.ShrinkFactors) != len(opts.SmoothingSigmas) {
		return nil, fmt.Errorf("shrink factors and smoothing sigmas need to be same length, got %d and %d",
			len(opts.ShrinkFactors), len(opts.SmoothingSigmas))
	}
	return &RigidRegistration{
		opts: opts,
		engine: &engineConfig{
			histogramBins:        opts.HistogramBins,
			learningRate:         opts.LearningRate,
			iterations:           opts.Iterations,
			convergenceTolerance: 1e-6,
			convergenceWindow:    10,
			shrinkFactors:        append([]int(nil), opts.ShrinkFactors...),
			smoothingSigmas:      append([]float64(nil), opts.SmoothingSigmas...),
		},
	}, nil
}

// Execute registers the moving image onto params.FixedImage and returns the
// moving image resampled onto the fixed image's grid with the estimated
// transform, linear interpolation and a default value of 0, keeping the
// moving image's pixel type. Both inputs must be 3-dimensional scalar images.
//
// The intensity normalization applied before optimization works on local
// copies; the caller's images are never modified.
func (r *RigidRegistration) Execute(moving *volume.Image, params *Params) (*volume.Image, error) {
	if params == nil {
		return nil, fmt.Errorf("params is not defined")
	}
	if params.FixedImage == nil {
		return nil, fmt.Errorf("params has no fixed image")
	}
	if moving == nil {
		return nil, fmt.Errorf("moving image is not defined")
	}
	if moving.Dimension() != 3 || params.FixedImage.Dimension() != 3 {
		return nil, fmt.Errorf("rigid registration requires 3-dimensional images, got %d and %d",
			params.FixedImage.Dimension(), moving.Dimension())
	}
	if moving.Components() != 1 || params.FixedImage.Components() != 1 {
		return nil, fmt.Errorf("rigid registration requires scalar images")
	}

	initial, err := transform.CenteredInitializer(params.FixedImage, moving)
	if err != nil {
		return nil, err
	}

	fixed := volume.Normalize(params.FixedImage)
	normalizedMoving := volume.Normalize(moving)

	var obs Observer
	if params.PlotDirectoryPath != "" {
		obs = NewProgressPlotter(params.PlotDirectoryPath, fixed, normalizedMoving)
	}

	result, err := r.engine.run(fixed, normalizedMoving, initial, obs)
	if err != nil {
		return nil, err
	}

	if r.Verbose {
		fmt.Printf("RigidRegistration:\n Final metric value: %f\n", result.metricValue)
		fmt.Printf(" Optimizer's stopping condition, %s\n", result.stopCondition)
	} else if result.iterations >= r.opts.Iterations {
		fmt.Println("RigidRegistration: Optimizer terminated at number of iterations and did not converge!")
	}

	return volume.Resample(moving, params.FixedImage, result.transform, 0.0)
}

// String returns a printable summary of the filter configuration.
func (r *RigidRegistration) String() string {
	return fmt.Sprintf("RigidRegistration:\n histogram bins: %d\n learning rate: %g\n step size: %g\n iterations: %d\n shrink factors: %v\n smoothing sigmas: %v",
		r.opts.HistogramBins, r.opts.LearningRate, r.opts.StepSize, r.opts.Iterations,
		r.opts.ShrinkFactors, r.opts.SmoothingSigmas)
}
