package volume

import "fmt"

// Array is a dense numeric array exported from an image. Its axis order is
// the reverse of the image's native order (slowest-varying axis first), so a
// (x=10, y=10, z=3) image becomes a (3, 10, 10) array. Vector images gain a
// trailing component axis. Data holds a typed slice matching DType ([]uint8,
// []int8, []uint16, []int16, []int32, []float32 or []float64) in row-major
// order over Shape.
type Array struct {
	Shape []int
	DType PixelType
	Data  interface{}
}

// Float64s returns the array values widened to float64, in storage order.
func (a *Array) Float64s() []float64 {
	switch d := a.Data.(type) {
	case []uint8:
		return widen(d)
	case []int8:
		return widen(d)
	case []uint16:
		return widen(d)
	case []int16:
		return widen(d)
	case []int32:
		return widen(d)
	case []float32:
		return widen(d)
	case []float64:
		return append([]float64(nil), d...)
	default:
		return nil
	}
}

func widen[T uint8 | int8 | uint16 | int16 | int32 | float32](d []T) []float64 {
	out := make([]float64, len(d))
	for i, v := range d {
		out[i] = float64(v)
	}
	return out
}

func narrow[T uint8 | int8 | uint16 | int16 | int32 | float32 | float64](d []float64) []T {
	out := make([]T, len(d))
	for i, v := range d {
		out[i] = T(v)
	}
	return out
}

// Convert exports an image as a dense array together with the image's
// properties. Converting a nil image is an input-validation error.
//
// The image buffer already stores the x axis fastest, which is exactly
// row-major order over the reversed shape, so the export is a straight
// per-element type conversion.
func Convert(img *Image) (*Array, Properties, error) {
	if img == nil {
		return nil, Properties{}, fmt.Errorf("image is not defined")
	}
	dims := img.Dimension()
	shape := make([]int, 0, dims+1)
	for d := dims - 1; d >= 0; d-- {
		shape = append(shape, img.size[d])
	}
	if img.components > 1 {
		shape = append(shape, img.components)
	}
	arr := &Array{Shape: shape, DType: img.pixelType}
	switch img.pixelType {
	case UInt8:
		arr.Data = narrow[uint8](img.data)
	case Int8:
		arr.Data = narrow[int8](img.data)
	case UInt16:
		arr.Data = narrow[uint16](img.data)
	case Int16:
		arr.Data = narrow[int16](img.data)
	case Int32:
		arr.Data = narrow[int32](img.data)
	case Float32:
		arr.Data = narrow[float32](img.data)
	default:
		arr.Data = append([]float64(nil), img.data...)
	}
	return arr, PropertiesOf(img), nil
}

// FromArray rebuilds an image from an array and the properties captured when
// it was exported. Size, geometry, pixel type and component count all come
// from the properties; the array supplies the values.
func FromArray(arr *Array, props Properties) (*Image, error) {
	if arr == nil {
		return nil, fmt.Errorf("array is not defined")
	}
	n := props.ComponentsPerPixel
	for _, s := range props.Size {
		n *= s
	}
	values := arr.Float64s()
	if values == nil {
		return nil, fmt.Errorf("unsupported array data type %T", arr.Data)
	}
	if len(values) != n {
		return nil, fmt.Errorf("array has %d elements, properties describe %d", len(values), n)
	}
	img := NewVector(props.Size, props.PixelType, props.ComponentsPerPixel)
	if err := img.SetOrigin(props.Origin); err != nil {
		return nil, err
	}
	if err := img.SetSpacing(props.Spacing); err != nil {
		return nil, err
	}
	if err := img.SetDirection(props.Direction); err != nil {
		return nil, err
	}
	for i, v := range values {
		img.data[i] = props.PixelType.quantize(v)
	}
	return img, nil
}
