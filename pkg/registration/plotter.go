package registration

import (
	"fmt"
	"math"

	"medreg/pkg/plotting"
	"medreg/pkg/volume"
)

// overlayAlpha is the blend weight of the moving image in the progress
// overlays; the fixed image contributes the remaining weight.
const overlayAlpha = 0.7

// ProgressPlotter observes a registration run and writes one composite
// diagnostic image per optimizer iteration: the metric-value curve with
// resolution changes marked, next to the central axial slice of the fixed
// image alpha-blended with the moving image resampled under the current
// transform estimate. Files are written as <prefix><iteration>.png with a
// 3-digit iteration index.
//
// A plotter instance is bound to one engine run at a time; its accumulators
// are reset on RunStarted and released on RunEnded.
type ProgressPlotter struct {
	pathPrefix string
	fixed      *volume.Image
	moving     *volume.Image

	metricValues []float64
	levelChanges []int
}

// NewProgressPlotter creates a plotter writing under the given path prefix.
// The fixed and moving images are the (normalized) images the engine
// optimizes over; the plotter resamples the moving image per iteration.
func NewProgressPlotter(pathPrefix string, fixed, moving *volume.Image) *ProgressPlotter {
	return &ProgressPlotter{
		pathPrefix: pathPrefix,
		fixed:      fixed,
		moving:     moving,
	}
}

// RunStarted resets the metric history and level markers.
func (p *ProgressPlotter) RunStarted() {
	p.metricValues = p.metricValues[:0]
	p.levelChanges = p.levelChanges[:0]
}

// RunEnded releases the per-run accumulators.
func (p *ProgressPlotter) RunEnded() {
	p.metricValues = nil
	p.levelChanges = nil
}

// ResolutionChanged marks the current history length so the metric curve can
// show where a new resolution level began.
func (p *ProgressPlotter) ResolutionChanged() {
	p.levelChanges = append(p.levelChanges, len(p.metricValues))
}

// IterationCompleted appends the metric value and writes the composite plot
// for this iteration. Any rendering or write error is returned and aborts
// the registration run.
func (p *ProgressPlotter) IterationCompleted(state IterationState) error {
	p.metricValues = append(p.metricValues, state.MetricValue)

	plotImg, err := plotting.MetricPlot(p.metricValues, p.levelChanges)
	if err != nil {
		return err
	}

	overlay, err := p.renderOverlay(state.Transform)
	if err != nil {
		return err
	}

	composite, err := combineSideBySide(overlay, plotting.FromImage(plotImg))
	if err != nil {
		return err
	}
	path := fmt.Sprintf("%s%03d.png", p.pathPrefix, len(p.metricValues))
	return plotting.WritePNG(path, composite)
}

// renderOverlay resamples the moving image under the current transform and
// alpha-blends the central axial slices of both images into an RGB image.
func (p *ProgressPlotter) renderOverlay(t volume.Transform) (*volume.Image, error) {
	resampled, err := volume.Resample(p.moving, p.fixed, t, 0.0)
	if err != nil {
		return nil, err
	}

	central := int(math.Round(float64(p.fixed.Size()[2]) / 2))
	if central >= p.fixed.Size()[2] {
		central = p.fixed.Size()[2] - 1
	}
	fixedSlice, err := volume.AxialSlice(p.fixed, central)
	if err != nil {
		return nil, err
	}
	movingSlice, err := volume.AxialSlice(resampled, central)
	if err != nil {
		return nil, err
	}

	blended := fixedSlice.Clone()
	fd := fixedSlice.Data()
	md := movingSlice.Data()
	bd := blended.Data()
	for i := range bd {
		bd[i] = (1-overlayAlpha)*fd[i] + overlayAlpha*md[i]
	}

	gray := volume.Cast(volume.RescaleIntensity(blended, 0, 255), volume.UInt8)
	return volume.Compose(gray, gray, gray)
}

// combineSideBySide pastes two 2-dimensional images next to each other on a
// shared canvas, centering the shorter one vertically.
func combineSideBySide(left, right *volume.Image) (*volume.Image, error) {
	lw, lh := left.Size()[0], left.Size()[1]
	rw, rh := right.Size()[0], right.Size()[1]
	height := lh
	if rh > height {
		height = rh
	}
	canvas := volume.NewVector([]int{lw + rw, height}, left.PixelType(), left.Components())

	out, err := volume.Paste(canvas, left, []int{0, (height - lh) / 2})
	if err != nil {
		return nil, err
	}
	return volume.Paste(out, right, []int{lw, (height - rh) / 2})
}
