package volume

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Normalize returns a copy of the image shifted and scaled to zero mean and
// unit variance. The result is Float64 regardless of the input type, since
// normalized intensities are not representable in integer types. The input
// image is not modified.
func Normalize(img *Image) *Image {
	out := img.Clone()
	out.pixelType = Float64
	mean := stat.Mean(out.data, nil)
	std := stat.StdDev(out.data, nil)
	if std == 0 {
		for i := range out.data {
			out.data[i] = 0
		}
		return out
	}
	for i, v := range out.data {
		out.data[i] = (v - mean) / std
	}
	return out
}

// RescaleIntensity linearly maps the image's intensity range onto [lo, hi],
// keeping the pixel type. A constant image maps entirely to lo.
func RescaleIntensity(img *Image, lo, hi float64) *Image {
	out := img.Clone()
	min, max := out.data[0], out.data[0]
	for _, v := range out.data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	scale := 0.0
	if max > min {
		scale = (hi - lo) / (max - min)
	}
	for i, v := range out.data {
		out.data[i] = out.pixelType.quantize(lo + (v-min)*scale)
	}
	return out
}

// Compose builds a vector image from scalar channel images sharing size,
// pixel type and geometry. The typical use is turning a grayscale image into
// an (r, g, b) image by composing it with itself.
func Compose(channels ...*Image) (*Image, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("compose requires at least one channel")
	}
	for i, ch := range channels {
		if ch == nil {
			return nil, fmt.Errorf("channel %d is not defined", i)
		}
		if ch.Components() != 1 {
			return nil, fmt.Errorf("channel %d is a vector image", i)
		}
	}
	first := channels[0]
	ref := PropertiesOf(first)
	for i, ch := range channels[1:] {
		if p := PropertiesOf(ch); !p.Equal(ref) || p.PixelType != ref.PixelType {
			return nil, fmt.Errorf("channel %d does not match the first channel's geometry or type", i+1)
		}
	}
	out := NewVector(first.size, first.pixelType, len(channels))
	out.SetOrigin(first.origin)
	out.SetSpacing(first.spacing)
	out.SetDirection(first.direction)
	voxels := len(first.data)
	for c, ch := range channels {
		for i := 0; i < voxels; i++ {
			out.data[i*len(channels)+c] = ch.data[i]
		}
	}
	return out, nil
}

// Paste copies src into a copy of dst with src's first voxel placed at
// destIndex. Both images must share dimensionality and component count, and
// the pasted region must lie inside dst.
func Paste(dst, src *Image, destIndex []int) (*Image, error) {
	if src.Dimension() != dst.Dimension() {
		return nil, fmt.Errorf("source has %d dimensions, destination has %d", src.Dimension(), dst.Dimension())
	}
	if src.Components() != dst.Components() {
		return nil, fmt.Errorf("source has %d components, destination has %d", src.Components(), dst.Components())
	}
	if len(destIndex) != dst.Dimension() {
		return nil, fmt.Errorf("destination index has %d elements, expected %d", len(destIndex), dst.Dimension())
	}
	for d := range destIndex {
		if destIndex[d] < 0 || destIndex[d]+src.size[d] > dst.size[d] {
			return nil, fmt.Errorf("pasted region exceeds destination bounds on axis %d", d)
		}
	}
	out := dst.Clone()
	idx := make([]int, src.Dimension())
	dstIdx := make([]int, src.Dimension())
	for {
		for d := range idx {
			dstIdx[d] = destIndex[d] + idx[d]
		}
		for c := 0; c < src.components; c++ {
			out.data[out.offset(c, dstIdx)] = out.pixelType.quantize(src.data[src.offset(c, idx)])
		}
		if !increment(idx, src.size) {
			return out, nil
		}
	}
}

// Region extracts the sub-image starting at start with the given size. The
// origin is moved to the physical position of the region's first voxel;
// spacing and direction carry over.
func Region(img *Image, start, size []int) (*Image, error) {
	dims := img.Dimension()
	if len(start) != dims || len(size) != dims {
		return nil, fmt.Errorf("region start and size must have %d elements", dims)
	}
	for d := 0; d < dims; d++ {
		if start[d] < 0 || size[d] < 1 || start[d]+size[d] > img.size[d] {
			return nil, fmt.Errorf("region exceeds image bounds on axis %d", d)
		}
	}
	out := NewVector(size, img.pixelType, img.components)
	out.SetSpacing(img.spacing)
	out.SetDirection(img.direction)
	startIdx := make([]float64, dims)
	for d := range start {
		startIdx[d] = float64(start[d])
	}
	out.SetOrigin(img.PhysicalPoint(startIdx))
	idx := make([]int, dims)
	srcIdx := make([]int, dims)
	for {
		for d := range idx {
			srcIdx[d] = start[d] + idx[d]
		}
		for c := 0; c < img.components; c++ {
			out.data[out.offset(c, idx)] = img.data[img.offset(c, srcIdx)]
		}
		if !increment(idx, size) {
			return out, nil
		}
	}
}

// AxialSlice extracts slice z of a 3-D image as a 2-D image, keeping the
// in-plane geometry.
func AxialSlice(img *Image, z int) (*Image, error) {
	if img.Dimension() != 3 {
		return nil, fmt.Errorf("axial slice requires a 3-dimensional image, got %d dimensions", img.Dimension())
	}
	if z < 0 || z >= img.size[2] {
		return nil, fmt.Errorf("slice %d out of range [0, %d)", z, img.size[2])
	}
	out := NewVector(img.size[:2], img.pixelType, img.components)
	// the slice origin is the physical position of voxel (0, 0, z), which
	// differs from the volume origin under non-identity directions
	out.SetOrigin(img.PhysicalPoint([]float64{0, 0, float64(z)})[:2])
	out.SetSpacing(img.spacing[:2])
	out.SetDirection([]float64{
		img.direction[0], img.direction[1],
		img.direction[3], img.direction[4],
	})
	for y := 0; y < img.size[1]; y++ {
		for x := 0; x < img.size[0]; x++ {
			for c := 0; c < img.components; c++ {
				out.data[out.offset(c, []int{x, y})] = img.data[img.offset(c, []int{x, y, z})]
			}
		}
	}
	return out, nil
}

// increment advances a multi-dimensional index, first axis fastest. It
// returns false once the index wraps past the final position.
func increment(idx, size []int) bool {
	for d := 0; d < len(idx); d++ {
		idx[d]++
		if idx[d] < size[d] {
			return true
		}
		idx[d] = 0
	}
	return false
}
