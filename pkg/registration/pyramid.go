package registration

import (
	"math"

	"medreg/pkg/volume"
)

// smoothAndShrink builds one multi-resolution pyramid level: the image is
// smoothed with a Gaussian of the given physical sigma and then subsampled by
// the shrink factor. A sigma of 0 skips smoothing and a factor of 1 skips
// subsampling. Subsampling multiplies the spacing by the factor so the level
// covers the same physical extent at coarser resolution.
func smoothAndShrink(img *volume.Image, sigma float64, factor int) *volume.Image {
	out := img
	if sigma > 0 {
		out = gaussianSmooth(out, sigma)
	}
	if factor > 1 {
		out = shrink(out, factor)
	}
	return out
}

// gaussianSmooth applies a separable Gaussian along every axis. Sigma is in
// physical units and converted to voxels per axis through the spacing.
func gaussianSmooth(img *volume.Image, sigma float64) *volume.Image {
	out := img.Clone()
	size := out.Size()
	spacing := out.Spacing()
	dims := out.Dimension()

	for d := 0; d < dims; d++ {
		sigmaVoxels := sigma / spacing[d]
		kernel := gaussianKernel(sigmaVoxels)
		if len(kernel) <= 1 {
			continue
		}
		convolveAxis(out, d, size, kernel)
	}
	return out
}

// gaussianKernel returns a normalized 1-D Gaussian of radius 3*sigma.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		return []float64{1}
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveAxis convolves the image with a 1-D kernel along axis d in place,
// clamping at the borders.
func convolveAxis(img *volume.Image, d int, size []int, kernel []float64) {
	radius := len(kernel) / 2
	idx := make([]int, len(size))
	src := make([]int, len(size))
	line := make([]float64, size[d])
	for {
		if idx[d] == 0 {
			copy(src, idx)
			for i := 0; i < size[d]; i++ {
				acc := 0.0
				for k, w := range kernel {
					j := i + k - radius
					if j < 0 {
						j = 0
					} else if j >= size[d] {
						j = size[d] - 1
					}
					src[d] = j
					acc += w * img.At(src...)
				}
				line[i] = acc
			}
			copy(src, idx)
			for i := 0; i < size[d]; i++ {
				src[d] = i
				img.Set(line[i], src...)
			}
		}
		if !incrementIndex(idx, size) {
			return
		}
	}
}

// shrink subsamples the image by an integer factor per axis, keeping the
// origin and scaling the spacing.
func shrink(img *volume.Image, factor int) *volume.Image {
	size := img.Size()
	dims := img.Dimension()
	outSize := make([]int, dims)
	for d := 0; d < dims; d++ {
		outSize[d] = size[d] / factor
		if outSize[d] < 1 {
			outSize[d] = 1
		}
	}
	out := volume.New(outSize, img.PixelType())
	out.SetOrigin(img.Origin())
	spacing := img.Spacing()
	for d := range spacing {
		spacing[d] *= float64(factor)
	}
	out.SetSpacing(spacing)
	out.SetDirection(img.Direction())

	idx := make([]int, dims)
	src := make([]int, dims)
	for {
		for d := range idx {
			src[d] = idx[d] * factor
		}
		out.Set(img.At(src...), idx...)
		if !incrementIndex(idx, outSize) {
			return out
		}
	}
}

// incrementIndex advances a multi-dimensional index, first axis fastest.
func incrementIndex(idx, size []int) bool {
	for d := 0; d < len(idx); d++ {
		idx[d]++
		if idx[d] < size[d] {
			return true
		}
		idx[d] = 0
	}
	return false
}
