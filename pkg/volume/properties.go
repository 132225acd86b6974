package volume

import "fmt"

// Properties is a snapshot of an image's geometric and type metadata, taken
// once at construction. It does not track later mutations of the source image.
type Properties struct {
	// Size holds the per-axis extents in native (x, y[, z]) order
	Size []int

	// Origin is the physical position of the first voxel
	Origin []float64

	// Spacing is the physical distance between voxel centers per axis
	Spacing []float64

	// Direction is the flattened row-major direction cosine matrix
	Direction []float64

	// Dimensions is the number of spatial axes (len(Size))
	Dimensions int

	// PixelType is the element type of the source image
	PixelType PixelType

	// ComponentsPerPixel is the number of values per voxel
	ComponentsPerPixel int
}

// PropertiesOf captures the properties of an image.
func PropertiesOf(img *Image) Properties {
	return Properties{
		Size:               img.Size(),
		Origin:             img.Origin(),
		Spacing:            img.Spacing(),
		Direction:          img.Direction(),
		Dimensions:         img.Dimension(),
		PixelType:          img.PixelType(),
		ComponentsPerPixel: img.Components(),
	}
}

// IsTwoDimensional reports whether the image has exactly two spatial axes.
func (p Properties) IsTwoDimensional() bool { return p.Dimensions == 2 }

// IsThreeDimensional reports whether the image has exactly three spatial axes.
func (p Properties) IsThreeDimensional() bool { return p.Dimensions == 3 }

// IsVectorImage reports whether voxels carry more than one component.
func (p Properties) IsVectorImage() bool { return p.ComponentsPerPixel > 1 }

// Equal compares size, origin, spacing and direction. Pixel type and
// component count are deliberately left out of the comparison; two images of
// different types on the same grid compare equal. Both attributes remain
// exposed, so callers needing a stricter comparison can check them directly.
func (p Properties) Equal(o Properties) bool {
	if len(p.Size) != len(o.Size) {
		return false
	}
	for i := range p.Size {
		if p.Size[i] != o.Size[i] {
			return false
		}
	}
	return equalFloats(p.Origin, o.Origin) &&
		equalFloats(p.Spacing, o.Spacing) &&
		equalFloats(p.Direction, o.Direction)
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String returns a printable summary of the properties.
func (p Properties) String() string {
	return fmt.Sprintf("Properties:\n size: %v\n origin: %v\n spacing: %v\n direction: %v\n dimensions: %d\n pixel type: %s\n components per pixel: %d",
		p.Size, p.Origin, p.Spacing, p.Direction, p.Dimensions, p.PixelType, p.ComponentsPerPixel)
}
