// Package volume provides the N-dimensional typed image handle used throughout
// medreg. An Image couples a dense voxel buffer with the geometric metadata
// (origin, spacing, direction cosines) needed to map between voxel indices and
// physical space, which is what image registration operates on.
package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PixelType identifies the element type of an image. The voxel buffer is held
// as float64 internally; the pixel type governs clamping and rounding when
// values are cast or exported through the array bridge.
type PixelType int

const (
	UInt8 PixelType = iota
	Int8
	UInt16
	Int16
	Int32
	Float32
	Float64
)

// String returns a short name for the pixel type.
func (t PixelType) String() string {
	switch t {
	case UInt8:
		return "uint8"
	case Int8:
		return "int8"
	case UInt16:
		return "uint16"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("PixelType(%d)", int(t))
	}
}

// isInteger reports whether the pixel type stores integer samples.
func (t PixelType) isInteger() bool {
	switch t {
	case UInt8, Int8, UInt16, Int16, Int32:
		return true
	default:
		return false
	}
}

// valueRange returns the representable range of the pixel type.
func (t PixelType) valueRange() (min, max float64) {
	switch t {
	case UInt8:
		return 0, math.MaxUint8
	case Int8:
		return math.MinInt8, math.MaxInt8
	case UInt16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// quantize rounds and clamps a value to what the pixel type can represent.
func (t PixelType) quantize(v float64) float64 {
	if t.isInteger() {
		v = math.Round(v)
	} else if t == Float32 {
		v = float64(float32(v))
	}
	min, max := t.valueRange()
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Image is an N-dimensional typed image with geometric metadata. The voxel
// buffer is stored with the first (x) axis varying fastest and, for vector
// images, components interleaved per voxel.
type Image struct {
	// size holds the per-axis extents in native (x, y[, z]) order
	size []int

	// origin is the physical position of voxel (0, ..., 0)
	origin []float64

	// spacing is the physical distance between voxel centers per axis
	spacing []float64

	// direction is the flattened row-major direction cosine matrix
	direction []float64

	// pixelType governs quantization when values are cast or exported
	pixelType PixelType

	// components is the number of values per voxel (1 for scalar images)
	components int

	// data holds the voxel values, x fastest, components interleaved
	data []float64
}

// New creates a scalar image of the given size and pixel type, with zero
// origin, unit spacing and an identity direction matrix.
func New(size []int, pixelType PixelType) *Image {
	return NewVector(size, pixelType, 1)
}

// NewVector creates an image with the given number of components per voxel.
// A component count below one is treated as one.
func NewVector(size []int, pixelType PixelType, components int) *Image {
	if components < 1 {
		components = 1
	}
	dims := len(size)
	img := &Image{
		size:       append([]int(nil), size...),
		origin:     make([]float64, dims),
		spacing:    make([]float64, dims),
		direction:  make([]float64, dims*dims),
		pixelType:  pixelType,
		components: components,
	}
	n := components
	for _, s := range size {
		n *= s
	}
	img.data = make([]float64, n)
	for d := 0; d < dims; d++ {
		img.spacing[d] = 1
		img.direction[d*dims+d] = 1
	}
	return img
}

// Dimension returns the number of spatial axes. The component axis of a
// vector image does not count towards the dimension.
func (img *Image) Dimension() int { return len(img.size) }

// Size returns the per-axis extents in native (x, y[, z]) order.
func (img *Image) Size() []int { return append([]int(nil), img.size...) }

// Origin returns the physical position of the first voxel.
func (img *Image) Origin() []float64 { return append([]float64(nil), img.origin...) }

// Spacing returns the physical distance between voxel centers per axis.
func (img *Image) Spacing() []float64 { return append([]float64(nil), img.spacing...) }

// Direction returns the flattened row-major direction cosine matrix.
func (img *Image) Direction() []float64 { return append([]float64(nil), img.direction...) }

// PixelType returns the element type of the image.
func (img *Image) PixelType() PixelType { return img.pixelType }

// Components returns the number of values per voxel.
func (img *Image) Components() int { return img.components }

// SetOrigin sets the physical position of the first voxel.
func (img *Image) SetOrigin(origin []float64) error {
	if len(origin) != len(img.size) {
		return fmt.Errorf("origin has %d elements, image has %d dimensions", len(origin), len(img.size))
	}
	copy(img.origin, origin)
	return nil
}

// SetSpacing sets the physical distance between voxel centers per axis.
func (img *Image) SetSpacing(spacing []float64) error {
	if len(spacing) != len(img.size) {
		return fmt.Errorf("spacing has %d elements, image has %d dimensions", len(spacing), len(img.size))
	}
	copy(img.spacing, spacing)
	return nil
}

// SetDirection sets the flattened row-major direction cosine matrix.
func (img *Image) SetDirection(direction []float64) error {
	dims := len(img.size)
	if len(direction) != dims*dims {
		return fmt.Errorf("direction has %d elements, expected %d", len(direction), dims*dims)
	}
	copy(img.direction, direction)
	return nil
}

// offset computes the buffer offset of component c at the given index.
// The index is trusted to be in bounds; callers iterate over Size().
func (img *Image) offset(c int, idx []int) int {
	off := 0
	for d := len(idx) - 1; d >= 0; d-- {
		off = off*img.size[d] + idx[d]
	}
	return off*img.components + c
}

// At returns the first component at the given index.
func (img *Image) At(idx ...int) float64 { return img.data[img.offset(0, idx)] }

// AtComponent returns component c at the given index.
func (img *Image) AtComponent(c int, idx ...int) float64 { return img.data[img.offset(c, idx)] }

// Set stores the first component at the given index, quantized to the
// image's pixel type.
func (img *Image) Set(v float64, idx ...int) {
	img.data[img.offset(0, idx)] = img.pixelType.quantize(v)
}

// SetComponent stores component c at the given index.
func (img *Image) SetComponent(c int, v float64, idx ...int) {
	img.data[img.offset(c, idx)] = img.pixelType.quantize(v)
}

// Clone returns a deep copy of the image.
func (img *Image) Clone() *Image {
	out := &Image{
		size:       append([]int(nil), img.size...),
		origin:     append([]float64(nil), img.origin...),
		spacing:    append([]float64(nil), img.spacing...),
		direction:  append([]float64(nil), img.direction...),
		pixelType:  img.pixelType,
		components: img.components,
		data:       append([]float64(nil), img.data...),
	}
	return out
}

// Cast returns a copy of the image with the given pixel type. Values outside
// the target type's range are clamped and integer targets are rounded, the
// same way ITK-style casting behaves.
func Cast(img *Image, pixelType PixelType) *Image {
	out := img.Clone()
	out.pixelType = pixelType
	for i, v := range out.data {
		out.data[i] = pixelType.quantize(v)
	}
	return out
}

// PhysicalPoint maps a continuous voxel index to a physical point:
// p = origin + direction * (spacing .* index).
func (img *Image) PhysicalPoint(index []float64) []float64 {
	dims := len(img.size)
	p := make([]float64, dims)
	for i := 0; i < dims; i++ {
		p[i] = img.origin[i]
		for j := 0; j < dims; j++ {
			p[i] += img.direction[i*dims+j] * img.spacing[j] * index[j]
		}
	}
	return p
}

// Center returns the physical center of the image grid.
func (img *Image) Center() []float64 {
	idx := make([]float64, len(img.size))
	for d, s := range img.size {
		idx[d] = float64(s-1) / 2
	}
	return img.PhysicalPoint(idx)
}

// indexMatrix returns the inverse of direction*diag(spacing), which maps
// physical offsets from the origin back to continuous voxel indices.
func (img *Image) indexMatrix() (*mat.Dense, error) {
	dims := len(img.size)
	m := mat.NewDense(dims, dims, nil)
	for i := 0; i < dims; i++ {
		for j := 0; j < dims; j++ {
			m.Set(i, j, img.direction[i*dims+j]*img.spacing[j])
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("direction matrix is singular: %v", err)
	}
	return &inv, nil
}

// ContinuousIndex maps a physical point to a continuous voxel index. It is
// the inverse of PhysicalPoint.
func (img *Image) ContinuousIndex(p []float64) ([]float64, error) {
	inv, err := img.indexMatrix()
	if err != nil {
		return nil, err
	}
	dims := len(img.size)
	idx := make([]float64, dims)
	for i := 0; i < dims; i++ {
		for j := 0; j < dims; j++ {
			idx[i] += inv.At(i, j) * (p[j] - img.origin[j])
		}
	}
	return idx, nil
}

// Data exposes the raw voxel buffer. The buffer is shared, not copied;
// callers that mutate it bypass pixel type quantization.
func (img *Image) Data() []float64 { return img.data }
