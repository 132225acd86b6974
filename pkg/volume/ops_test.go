package volume

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

// TestNormalize verifies zero mean and unit variance of the result and that
// the input image is untouched
func TestNormalize(t *testing.T) {
	image := New([]int{4, 4, 2}, UInt8)
	v := 0.0
	for i := range image.Data() {
		image.Data()[i] = v
		v += 3
	}
	before := append([]float64(nil), image.Data()...)

	normalized := Normalize(image)

	mean := stat.Mean(normalized.Data(), nil)
	std := stat.StdDev(normalized.Data(), nil)
	if math.Abs(mean) > 1e-9 {
		t.Errorf("Expected zero mean, got %f", mean)
	}
	if math.Abs(std-1) > 1e-9 {
		t.Errorf("Expected unit standard deviation, got %f", std)
	}
	if normalized.PixelType() != Float64 {
		t.Errorf("Expected a float64 result, got %s", normalized.PixelType())
	}
	for i, b := range before {
		if image.Data()[i] != b {
			t.Fatal("Expected the input image to remain unmodified")
		}
	}
}

// TestNormalizeConstant verifies that a constant image maps to all zeros
func TestNormalizeConstant(t *testing.T) {
	image := New([]int{3, 3}, Float64)
	for i := range image.Data() {
		image.Data()[i] = 42
	}
	normalized := Normalize(image)
	for _, v := range normalized.Data() {
		if v != 0 {
			t.Fatalf("Expected zeros for a constant image, got %f", v)
		}
	}
}

// TestRescaleIntensity verifies the linear mapping onto the target range
func TestRescaleIntensity(t *testing.T) {
	image := New([]int{3, 1}, Float64)
	copy(image.Data(), []float64{10, 20, 30})

	rescaled := RescaleIntensity(image, 0, 255)

	expected := []float64{0, 127.5, 255}
	for i, e := range expected {
		if math.Abs(rescaled.Data()[i]-e) > 1e-9 {
			t.Errorf("Expected %f at index %d, got %f", e, i, rescaled.Data()[i])
		}
	}
}

// TestCompose verifies grayscale-to-multi-component composition
func TestCompose(t *testing.T) {
	gray := New([]int{2, 2}, UInt8)
	gray.Set(5, 0, 0)
	gray.Set(9, 1, 1)

	rgb, err := Compose(gray, gray, gray)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if rgb.Components() != 3 {
		t.Fatalf("Expected 3 components, got %d", rgb.Components())
	}
	for c := 0; c < 3; c++ {
		if rgb.AtComponent(c, 0, 0) != 5 {
			t.Errorf("Expected component %d at (0, 0) to be 5", c)
		}
		if rgb.AtComponent(c, 1, 1) != 9 {
			t.Errorf("Expected component %d at (1, 1) to be 9", c)
		}
	}

	// mismatching geometry is rejected
	other := New([]int{3, 2}, UInt8)
	if _, err := Compose(gray, other); err == nil {
		t.Error("Expected an error for mismatching channel geometry")
	}
}

// TestComposeRejectsInvalidChannels verifies validation for every channel
// position, the first included
func TestComposeRejectsInvalidChannels(t *testing.T) {
	gray := New([]int{2, 2}, UInt8)
	vec := NewVector([]int{2, 2}, UInt8, 2)

	if _, err := Compose(vec); err == nil {
		t.Error("Expected an error for a vector image as the first channel")
	}
	if _, err := Compose(vec, gray); err == nil {
		t.Error("Expected an error for a vector image as the first of several channels")
	}
	if _, err := Compose(gray, vec); err == nil {
		t.Error("Expected an error for a vector image as a later channel")
	}
	if _, err := Compose(nil, gray); err == nil {
		t.Error("Expected an error for a nil channel")
	}
	if _, err := Compose(); err == nil {
		t.Error("Expected an error for an empty channel list")
	}
}

// TestPaste verifies offset copying and bounds validation
func TestPaste(t *testing.T) {
	dst := New([]int{6, 6}, UInt8)
	src := New([]int{2, 2}, UInt8)
	src.Set(1, 0, 0)
	src.Set(2, 1, 0)
	src.Set(3, 0, 1)
	src.Set(4, 1, 1)

	out, err := Paste(dst, src, []int{3, 2})
	if err != nil {
		t.Fatalf("Paste failed: %v", err)
	}
	if out.At(3, 2) != 1 || out.At(4, 2) != 2 || out.At(3, 3) != 3 || out.At(4, 3) != 4 {
		t.Error("Expected the source block at offset (3, 2)")
	}
	if out.At(0, 0) != 0 {
		t.Error("Expected the rest of the destination to stay untouched")
	}
	if dst.At(3, 2) != 0 {
		t.Error("Expected the original destination to remain unmodified")
	}

	if _, err := Paste(dst, src, []int{5, 5}); err == nil {
		t.Error("Expected an error for a region exceeding the destination")
	}
}

// TestRegion verifies sub-image extraction and origin adjustment
func TestRegion(t *testing.T) {
	image := New([]int{4, 4}, UInt8)
	image.SetSpacing([]float64{2, 2})
	image.Set(7, 2, 3)

	region, err := Region(image, []int{1, 2}, []int{3, 2})
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if region.Size()[0] != 3 || region.Size()[1] != 2 {
		t.Fatalf("Expected size [3 2], got %v", region.Size())
	}
	if region.At(1, 1) != 7 {
		t.Error("Expected the value at source index (2, 3) at region index (1, 1)")
	}
	origin := region.Origin()
	if origin[0] != 2 || origin[1] != 4 {
		t.Errorf("Expected origin [2 4], got %v", origin)
	}

	if _, err := Region(image, []int{2, 2}, []int{3, 3}); err == nil {
		t.Error("Expected an error for a region exceeding the image")
	}
}

// TestAxialSlice verifies 2-D extraction from a 3-D image
func TestAxialSlice(t *testing.T) {
	image := New([]int{3, 2, 2}, UInt8)
	image.Set(9, 1, 1, 1)

	slice, err := AxialSlice(image, 1)
	if err != nil {
		t.Fatalf("AxialSlice failed: %v", err)
	}
	if slice.Dimension() != 2 {
		t.Fatalf("Expected a 2-dimensional slice, got %d dimensions", slice.Dimension())
	}
	if slice.At(1, 1) != 9 {
		t.Error("Expected the voxel at (1, 1, 1) at slice index (1, 1)")
	}

	if _, err := AxialSlice(image, 2); err == nil {
		t.Error("Expected an error for an out-of-range slice index")
	}
	if _, err := AxialSlice(slice, 0); err == nil {
		t.Error("Expected an error for a non-3-dimensional input")
	}
}

// TestAxialSliceOrigin verifies that the slice origin is the physical
// position of voxel (0, 0, z), which moves in-plane when the direction
// matrix maps the z axis onto a physical in-plane axis
func TestAxialSliceOrigin(t *testing.T) {
	image := New([]int{4, 4, 4}, Float64)
	image.SetOrigin([]float64{10, 20, 30})
	image.SetSpacing([]float64{1, 1, 2})
	image.SetDirection([]float64{
		0, 0, 1,
		1, 0, 0,
		0, 1, 0,
	})

	slice, err := AxialSlice(image, 3)
	if err != nil {
		t.Fatalf("AxialSlice failed: %v", err)
	}
	origin := slice.Origin()
	if origin[0] != 16 || origin[1] != 20 {
		t.Errorf("Expected origin [16 20], got %v", origin)
	}
}

// TestCast verifies rounding and clamping to the target type's range
func TestCast(t *testing.T) {
	image := New([]int{3, 1}, Float64)
	copy(image.Data(), []float64{-4.2, 12.6, 300})

	cast := Cast(image, UInt8)
	expected := []float64{0, 13, 255}
	for i, e := range expected {
		if cast.Data()[i] != e {
			t.Errorf("Expected %f at index %d, got %f", e, i, cast.Data()[i])
		}
	}
	if cast.PixelType() != UInt8 {
		t.Errorf("Expected pixel type %s, got %s", UInt8, cast.PixelType())
	}
}
