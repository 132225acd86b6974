package volume

import "testing"

// TestIsTwoDimensional verifies the dimensionality predicates for a 2-D image
func TestIsTwoDimensional(t *testing.T) {
	image := New([]int{10, 10}, UInt8)
	props := PropertiesOf(image)

	if !props.IsTwoDimensional() {
		t.Error("Expected a 10x10 image to be two-dimensional")
	}
	if props.IsThreeDimensional() {
		t.Error("Expected a 10x10 image not to be three-dimensional")
	}
	if props.IsVectorImage() {
		t.Error("Expected a scalar image not to be a vector image")
	}
}

// TestIsThreeDimensional verifies the dimensionality predicates for a 3-D image
func TestIsThreeDimensional(t *testing.T) {
	image := New([]int{10, 10, 3}, UInt8)
	props := PropertiesOf(image)

	if props.IsTwoDimensional() {
		t.Error("Expected a 10x10x3 image not to be two-dimensional")
	}
	if !props.IsThreeDimensional() {
		t.Error("Expected a 10x10x3 image to be three-dimensional")
	}
	if props.IsVectorImage() {
		t.Error("Expected a scalar image not to be a vector image")
	}
}

// TestIsVectorImage verifies that the component axis does not count towards
// the dimensionality
func TestIsVectorImage(t *testing.T) {
	image := NewVector([]int{10, 10}, UInt8, 3)
	props := PropertiesOf(image)

	if !props.IsTwoDimensional() {
		t.Error("Expected a 10x10 vector image to be two-dimensional")
	}
	if props.IsThreeDimensional() {
		t.Error("Expected a 10x10 vector image not to be three-dimensional")
	}
	if !props.IsVectorImage() {
		t.Error("Expected an image with 3 components per pixel to be a vector image")
	}
}

// TestProperties verifies that all attributes are captured from the image
func TestProperties(t *testing.T) {
	size := []int{10, 10, 3}
	geometry := []float64{10, 10, 3}
	direction := []float64{0, 1, 0, 1, 0, 0, 0, 0, 1}

	image := New(size, UInt8)
	image.SetOrigin(geometry)
	image.SetSpacing(geometry)
	image.SetDirection(direction)
	props := PropertiesOf(image)

	for i, s := range size {
		if props.Size[i] != s {
			t.Errorf("Expected size %v, got %v", size, props.Size)
			break
		}
	}
	for i := range geometry {
		if props.Origin[i] != geometry[i] {
			t.Errorf("Expected origin %v, got %v", geometry, props.Origin)
			break
		}
		if props.Spacing[i] != geometry[i] {
			t.Errorf("Expected spacing %v, got %v", geometry, props.Spacing)
			break
		}
	}
	for i := range direction {
		if props.Direction[i] != direction[i] {
			t.Errorf("Expected direction %v, got %v", direction, props.Direction)
			break
		}
	}
	if props.Dimensions != 3 {
		t.Errorf("Expected 3 dimensions, got %d", props.Dimensions)
	}
	if props.ComponentsPerPixel != 1 {
		t.Errorf("Expected 1 component per pixel, got %d", props.ComponentsPerPixel)
	}
	if props.PixelType != UInt8 {
		t.Errorf("Expected pixel type %s, got %s", UInt8, props.PixelType)
	}
}

// testImage builds a 10x10x3 image with non-trivial geometry for the
// equality tests
func testImage(pixelType PixelType, components int) *Image {
	image := NewVector([]int{10, 10, 3}, pixelType, components)
	image.SetOrigin([]float64{10, 10, 3})
	image.SetSpacing([]float64{10, 10, 3})
	image.SetDirection([]float64{0, 1, 0, 1, 0, 0, 0, 0, 1})
	return image
}

// TestEquality verifies that equality is reflexive and deliberately ignores
// pixel type and component count
func TestEquality(t *testing.T) {
	reference := PropertiesOf(testImage(UInt8, 1))

	// two snapshots of the same image compare equal
	same := PropertiesOf(testImage(UInt8, 1))
	if !reference.Equal(same) {
		t.Error("Expected properties of identical images to be equal")
	}

	// a different pixel type on the same grid still compares equal
	differentType := PropertiesOf(testImage(Int8, 1))
	if !reference.Equal(differentType) {
		t.Error("Expected equality to ignore the pixel type")
	}

	// a different component count on the same grid still compares equal
	differentComponents := PropertiesOf(testImage(UInt8, 2))
	if !reference.Equal(differentComponents) {
		t.Error("Expected equality to ignore the component count")
	}
}

// TestNonEquality verifies that changing any single geometric attribute
// breaks equality
func TestNonEquality(t *testing.T) {
	reference := PropertiesOf(testImage(UInt8, 1))

	// non-equal size
	image := New([]int{10, 10, 2}, UInt8)
	image.SetOrigin([]float64{10, 10, 3})
	image.SetSpacing([]float64{10, 10, 3})
	image.SetDirection([]float64{0, 1, 0, 1, 0, 0, 0, 0, 1})
	if reference.Equal(PropertiesOf(image)) {
		t.Error("Expected a different size to break equality")
	}

	// non-equal origin
	image = testImage(UInt8, 1)
	image.SetOrigin([]float64{10, 10, 2})
	if reference.Equal(PropertiesOf(image)) {
		t.Error("Expected a different origin to break equality")
	}

	// non-equal spacing
	image = testImage(UInt8, 1)
	image.SetSpacing([]float64{10, 10, 2})
	if reference.Equal(PropertiesOf(image)) {
		t.Error("Expected a different spacing to break equality")
	}

	// non-equal direction
	image = testImage(UInt8, 1)
	image.SetDirection([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if reference.Equal(PropertiesOf(image)) {
		t.Error("Expected a different direction to break equality")
	}
}
