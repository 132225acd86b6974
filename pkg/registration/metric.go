package registration

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"medreg/pkg/transform"
	"medreg/pkg/volume"
)

// mutualInformation evaluates the similarity between a fixed image and a
// moving image under a candidate transform. It is a joint-histogram mutual
// information estimate over a random subset of the fixed image's voxels,
// negated so the optimizer can minimize it.
//
// Robustness to different intensity relationships is what makes this metric
// suitable for multi-modal registration: it rewards statistical dependency
// between the two intensity distributions, not intensity agreement.
type mutualInformation struct {
	bins int

	// fixedValues and points hold the sampled fixed voxel intensities and
	// their physical positions, drawn once per resolution level
	fixedValues []float64
	points      [][]float64

	// sampler reads the moving image at transformed positions
	sampler *volume.Sampler

	fixedMin, fixedMax   float64
	movingMin, movingMax float64
}

// newMutualInformation samples percentage of the fixed image's voxels with
// the given source of randomness and prepares the metric for evaluation
// against the moving image.
func newMutualInformation(fixed, moving *volume.Image, bins int, percentage float64, rng *rand.Rand) (*mutualInformation, error) {
	if bins < 2 {
		return nil, fmt.Errorf("mutual information requires at least 2 histogram bins, got %d", bins)
	}
	sampler, err := volume.NewSampler(moving)
	if err != nil {
		return nil, err
	}

	size := fixed.Size()
	total := 1
	for _, s := range size {
		total *= s
	}
	count := int(float64(total) * percentage)
	if count < 1 {
		count = total
	}

	m := &mutualInformation{
		bins:        bins,
		fixedValues: make([]float64, 0, count),
		points:      make([][]float64, 0, count),
		sampler:     sampler,
		fixedMin:    math.Inf(1),
		fixedMax:    math.Inf(-1),
	}

	dims := fixed.Dimension()
	idx := make([]int, dims)
	fidx := make([]float64, dims)
	for n := 0; n < count; n++ {
		linear := rng.Intn(total)
		for d := 0; d < dims; d++ {
			idx[d] = linear % size[d]
			linear /= size[d]
			fidx[d] = float64(idx[d])
		}
		v := fixed.At(idx...)
		m.fixedValues = append(m.fixedValues, v)
		m.points = append(m.points, fixed.PhysicalPoint(fidx))
		if v < m.fixedMin {
			m.fixedMin = v
		}
		if v > m.fixedMax {
			m.fixedMax = v
		}
	}

	m.movingMin, m.movingMax = intensityRange(moving)
	return m, nil
}

func intensityRange(img *volume.Image) (min, max float64) {
	data := img.Data()
	min, max = data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// value returns the negated mutual information of the sampled fixed voxels
// against the moving image under t. Samples mapping outside the moving image
// are excluded from the histograms.
func (m *mutualInformation) value(t *transform.Euler3D) float64 {
	joint := make([]float64, m.bins*m.bins)
	fixedHist := make([]float64, m.bins)
	movingHist := make([]float64, m.bins)

	n := 0
	for i, p := range m.points {
		mv, inside := m.sampler.At(t.TransformPoint(p))
		if !inside {
			continue
		}
		fb := m.binIndex(m.fixedValues[i], m.fixedMin, m.fixedMax)
		mb := m.binIndex(mv, m.movingMin, m.movingMax)
		joint[fb*m.bins+mb]++
		fixedHist[fb]++
		movingHist[mb]++
		n++
	}
	if n == 0 {
		// no overlap between the images under this transform
		return 0
	}

	norm := 1 / float64(n)
	for i := range joint {
		joint[i] *= norm
	}
	for i := 0; i < m.bins; i++ {
		fixedHist[i] *= norm
		movingHist[i] *= norm
	}

	mi := stat.Entropy(fixedHist) + stat.Entropy(movingHist) - stat.Entropy(joint)
	return -mi
}

func (m *mutualInformation) binIndex(v, min, max float64) int {
	if max <= min {
		return 0
	}
	b := int((v - min) / (max - min) * float64(m.bins))
	if b < 0 {
		return 0
	}
	if b >= m.bins {
		return m.bins - 1
	}
	return b
}
