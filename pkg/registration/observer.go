package registration

import "medreg/pkg/transform"

// IterationState is the engine's progress snapshot handed to observers once
// per optimizer step.
type IterationState struct {
	// Level is the zero-based multi-resolution level being optimized
	Level int

	// Iteration is the one-based optimizer step within the current level
	Iteration int

	// MetricValue is the similarity metric at the current parameters
	// (negated mutual information, lower is better)
	MetricValue float64

	// Transform is the current rigid transform estimate. Observers must not
	// hold on to it past the callback; the engine reuses the value.
	Transform *transform.Euler3D
}

// Observer receives registration progress events. All callbacks run
// synchronously on the goroutine driving the registration, inside the
// engine's iteration loop. An error returned from IterationCompleted aborts
// the run.
type Observer interface {
	// RunStarted fires once before the first resolution level.
	RunStarted()

	// RunEnded fires once after optimization finishes, also on abort.
	RunEnded()

	// ResolutionChanged fires at every transition to a new resolution level,
	// including the first.
	ResolutionChanged()

	// IterationCompleted fires after every accepted optimizer step.
	IterationCompleted(state IterationState) error
}
