package registration

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"medreg/pkg/transform"
	"medreg/pkg/volume"
)

// metricSamplingPercentage is the fraction of fixed-image voxels drawn for
// every metric evaluation level.
const metricSamplingPercentage = 0.1

// engineConfig is the immutable optimization setup a filter builds once at
// construction. Each call to run derives all mutable state (transform,
// samples, recorder) freshly, so one config supports any number of
// independent registrations.
type engineConfig struct {
	histogramBins        int
	learningRate         float64
	iterations           int
	convergenceTolerance float64
	convergenceWindow    int
	shrinkFactors        []int
	smoothingSigmas      []float64
}

// runResult is what a finished (or iteration-capped) registration reports.
type runResult struct {
	transform *transform.Euler3D

	// metricValue is the similarity metric at the final parameters
	metricValue float64

	// iterations is the optimizer step count of the last resolution level
	iterations int

	// stopCondition describes why the last level's optimizer stopped
	stopCondition string
}

// run drives one full multi-resolution registration of moving onto fixed,
// starting from initial. Progress events go to obs when non-nil. The run is
// synchronous and single-threaded; obs callbacks execute inline.
func (cfg *engineConfig) run(fixed, moving *volume.Image, initial *transform.Euler3D, obs Observer) (*runResult, error) {
	current := initial.Clone()
	scales := physicalShiftScales(fixed, current)
	rng := rand.New(rand.NewSource(1))

	if obs != nil {
		obs.RunStarted()
		defer obs.RunEnded()
	}

	res := &runResult{transform: current}
	for level := range cfg.shrinkFactors {
		if obs != nil {
			obs.ResolutionChanged()
		}

		levelFixed := smoothAndShrink(fixed, cfg.smoothingSigmas[level], cfg.shrinkFactors[level])
		levelMoving := smoothAndShrink(moving, cfg.smoothingSigmas[level], cfg.shrinkFactors[level])

		metric, err := newMutualInformation(levelFixed, levelMoving, cfg.histogramBins, metricSamplingPercentage, rng)
		if err != nil {
			return nil, fmt.Errorf("level %d metric setup failed: %w", level, err)
		}

		// the optimizer works in scaled parameter space so rotation and
		// translation steps move voxels by comparable physical amounts
		eval := transform.NewEuler3D()
		eval.Center = current.Center
		objective := func(x []float64) float64 {
			eval.SetParameters(unscale(x, scales))
			return metric.value(eval)
		}
		problem := optimize.Problem{
			Func: objective,
			Grad: func(grad, x []float64) {
				fd.Gradient(grad, objective, x, nil)
			},
		}

		rec := &progressRecorder{
			level:  level,
			scales: scales,
			center: current.Center,
			obs:    obs,
		}
		settings := &optimize.Settings{
			MajorIterations: cfg.iterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   cfg.convergenceTolerance,
				Iterations: cfg.convergenceWindow,
			},
			Recorder: rec,
		}
		method := &optimize.GradientDescent{
			StepSizer: optimize.ConstantStepSize{Size: cfg.learningRate},
		}

		result, err := optimize.Minimize(problem, scale(current.Parameters(), scales), settings, method)
		if rec.obsErr != nil {
			return nil, fmt.Errorf("registration observer failed: %w", rec.obsErr)
		}
		if result == nil {
			if err != nil {
				return nil, fmt.Errorf("level %d optimization failed: %w", level, err)
			}
			return nil, fmt.Errorf("level %d optimization returned no result", level)
		}

		current.SetParameters(unscale(result.Location.X, scales))
		res.metricValue = result.Location.F
		res.iterations = result.Stats.MajorIterations
		res.stopCondition = result.Status.String()
		if err != nil {
			// numerical trouble (e.g. a failed line search) ends the level
			// but still leaves a usable estimate
			res.stopCondition = fmt.Sprintf("%s (%v)", result.Status, err)
		}
	}
	return res, nil
}

// progressRecorder adapts gonum's optimizer recorder hook to the Observer
// event stream, translating accepted iterates back into transform space.
type progressRecorder struct {
	level     int
	iteration int
	scales    []float64
	center    [3]float64
	obs       Observer
	obsErr    error
}

func (r *progressRecorder) Init() error { return nil }

func (r *progressRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration || r.obs == nil {
		return nil
	}
	r.iteration++
	t := transform.NewEuler3D()
	t.Center = r.center
	t.SetParameters(unscale(loc.X, r.scales))
	if err := r.obs.IterationCompleted(IterationState{
		Level:       r.level,
		Iteration:   r.iteration,
		MetricValue: loc.F,
		Transform:   t,
	}); err != nil {
		r.obsErr = err
		return err
	}
	return nil
}

// physicalShiftScales estimates per-parameter scales the way ITK's
// physical-shift estimator does: a unit change of a rotation angle moves the
// farthest fixed-image corner by roughly the rotation radius, so angles are
// weighted by that radius while translations stay at unit scale.
func physicalShiftScales(fixed *volume.Image, t *transform.Euler3D) []float64 {
	size := fixed.Size()
	dims := fixed.Dimension()
	radius := 0.0
	corner := make([]float64, dims)
	for mask := 0; mask < 1<<dims; mask++ {
		for d := 0; d < dims; d++ {
			if mask&(1<<d) != 0 {
				corner[d] = float64(size[d] - 1)
			} else {
				corner[d] = 0
			}
		}
		p := fixed.PhysicalPoint(corner)
		dist := 0.0
		for d := 0; d < dims && d < 3; d++ {
			diff := p[d] - t.Center[d]
			dist += diff * diff
		}
		if dist > radius {
			radius = dist
		}
	}
	radius = math.Sqrt(radius)
	if radius == 0 {
		radius = 1
	}
	return []float64{radius, radius, radius, 1, 1, 1}
}

// scale maps transform parameters into optimizer space.
func scale(params, scales []float64) []float64 {
	out := make([]float64, len(params))
	for i := range params {
		out[i] = params[i] * scales[i]
	}
	return out
}

// unscale maps optimizer-space values back to transform parameters.
func unscale(x, scales []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] / scales[i]
	}
	return out
}
