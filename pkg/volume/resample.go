package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform maps a physical point from the reference (fixed) image space into
// the space of the image being resampled.
type Transform interface {
	TransformPoint(p []float64) []float64
}

// Resample maps img onto the grid of reference: every output voxel center is
// pushed through t into img's space and sampled there with linear
// interpolation. Samples falling outside img are set to defaultValue. The
// output keeps img's pixel type and component count and reference's geometry.
func Resample(img, reference *Image, t Transform, defaultValue float64) (*Image, error) {
	dims := img.Dimension()
	if reference.Dimension() != dims {
		return nil, fmt.Errorf("image has %d dimensions, reference has %d", dims, reference.Dimension())
	}
	inv, err := img.indexMatrix()
	if err != nil {
		return nil, err
	}

	out := NewVector(reference.size, img.pixelType, img.components)
	out.SetOrigin(reference.origin)
	out.SetSpacing(reference.spacing)
	out.SetDirection(reference.direction)

	idx := make([]int, dims)
	fidx := make([]float64, dims)
	sample := make([]float64, img.components)
	for {
		for d := range idx {
			fidx[d] = float64(idx[d])
		}
		p := reference.PhysicalPoint(fidx)
		if t != nil {
			p = t.TransformPoint(p)
		}
		ci := applyIndexMatrix(inv, img.origin, p)
		if img.interpolate(ci, sample) {
			for c := 0; c < img.components; c++ {
				out.data[out.offset(c, idx)] = out.pixelType.quantize(sample[c])
			}
		} else {
			for c := 0; c < img.components; c++ {
				out.data[out.offset(c, idx)] = out.pixelType.quantize(defaultValue)
			}
		}
		if !increment(idx, reference.size) {
			return out, nil
		}
	}
}

// Sampler performs repeated linear sampling of a scalar image at physical
// points, amortizing the index-matrix inversion across calls.
type Sampler struct {
	img *Image
	inv *mat.Dense
	buf []float64
}

// NewSampler prepares a sampler over a scalar image.
func NewSampler(img *Image) (*Sampler, error) {
	if img.Components() != 1 {
		return nil, fmt.Errorf("sampler requires a scalar image, got %d components", img.Components())
	}
	inv, err := img.indexMatrix()
	if err != nil {
		return nil, err
	}
	return &Sampler{img: img, inv: inv, buf: make([]float64, 1)}, nil
}

// At samples the image at a physical point with linear interpolation. The
// second return is false when the point lies outside the image.
func (s *Sampler) At(p []float64) (float64, bool) {
	ci := applyIndexMatrix(s.inv, s.img.origin, p)
	if !s.img.interpolate(ci, s.buf) {
		return 0, false
	}
	return s.buf[0], true
}

// applyIndexMatrix maps a physical point to a continuous index given the
// precomputed inverse of direction*diag(spacing).
func applyIndexMatrix(inv *mat.Dense, origin, p []float64) []float64 {
	dims := len(origin)
	ci := make([]float64, dims)
	for i := 0; i < dims; i++ {
		for j := 0; j < dims; j++ {
			ci[i] += inv.At(i, j) * (p[j] - origin[j])
		}
	}
	return ci
}

// interpolate samples all components at a continuous index with multi-linear
// interpolation over the 2^dims surrounding voxels. It reports false when the
// index lies outside the image.
func (img *Image) interpolate(ci []float64, sample []float64) bool {
	dims := len(ci)
	base := make([]int, dims)
	frac := make([]float64, dims)
	for d := 0; d < dims; d++ {
		if ci[d] < 0 || ci[d] > float64(img.size[d]-1) {
			return false
		}
		f := math.Floor(ci[d])
		base[d] = int(f)
		frac[d] = ci[d] - f
		// keep the 2-corner neighborhood in bounds at the upper edge
		if base[d] == img.size[d]-1 && img.size[d] > 1 {
			base[d]--
			frac[d] = 1
		}
	}
	for c := range sample {
		sample[c] = 0
	}
	corner := make([]int, dims)
	for mask := 0; mask < 1<<dims; mask++ {
		w := 1.0
		for d := 0; d < dims; d++ {
			if mask&(1<<d) != 0 {
				if img.size[d] == 1 {
					w = 0
					break
				}
				corner[d] = base[d] + 1
				w *= frac[d]
			} else {
				corner[d] = base[d]
				w *= 1 - frac[d]
			}
		}
		if w == 0 {
			continue
		}
		for c := 0; c < img.components; c++ {
			sample[c] += w * img.data[img.offset(c, corner)]
		}
	}
	return true
}
