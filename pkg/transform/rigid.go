// Package transform provides the rigid spatial transform estimated by the
// registration filter: a rotation about a fixed center followed by a
// translation, with no scaling or shearing.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"medreg/pkg/volume"
)

// Euler3D is a 6-degree-of-freedom rigid transform. The rotation is
// parameterized by Euler angles about the x, y and z axes (applied in that
// order, R = Rz*Ry*Rx) around Center, followed by Translation:
//
//	T(p) = R*(p - c) + c + t
type Euler3D struct {
	// Angles holds the rotation angles (rx, ry, rz) in radians
	Angles [3]float64

	// Translation is the offset applied after rotation
	Translation [3]float64

	// Center is the fixed point the rotation pivots around
	Center [3]float64
}

// NewEuler3D returns an identity transform centered at the origin.
func NewEuler3D() *Euler3D {
	return &Euler3D{}
}

// CenteredInitializer builds an initial transform by geometric alignment of
// the two image centers: the rotation pivots around the fixed image's
// physical center and the translation moves it onto the moving image's
// center. Both images must be 3-dimensional.
func CenteredInitializer(fixed, moving *volume.Image) (*Euler3D, error) {
	if fixed.Dimension() != 3 || moving.Dimension() != 3 {
		return nil, fmt.Errorf("centered initialization requires 3-dimensional images, got %d and %d",
			fixed.Dimension(), moving.Dimension())
	}
	t := NewEuler3D()
	fc := fixed.Center()
	mc := moving.Center()
	for i := 0; i < 3; i++ {
		t.Center[i] = fc[i]
		t.Translation[i] = mc[i] - fc[i]
	}
	return t, nil
}

// RotationMatrix returns the 3x3 rotation matrix R = Rz*Ry*Rx.
func (t *Euler3D) RotationMatrix() *mat.Dense {
	sx, cx := math.Sincos(t.Angles[0])
	sy, cy := math.Sincos(t.Angles[1])
	sz, cz := math.Sincos(t.Angles[2])

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	ry := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rz := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})

	var r mat.Dense
	r.Mul(rz, ry)
	r.Mul(&r, rx)
	return &r
}

// TransformPoint maps a physical point through the transform. It satisfies
// volume.Transform, so an Euler3D can be handed directly to volume.Resample.
func (t *Euler3D) TransformPoint(p []float64) []float64 {
	r := t.RotationMatrix()
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		out[i] = t.Center[i] + t.Translation[i]
		for j := 0; j < 3; j++ {
			out[i] += r.At(i, j) * (p[j] - t.Center[j])
		}
	}
	return out
}

// Parameters returns the optimizable parameter vector (rx, ry, rz, tx, ty, tz).
// The center is part of the transform's fixed configuration, not a parameter.
func (t *Euler3D) Parameters() []float64 {
	return []float64{
		t.Angles[0], t.Angles[1], t.Angles[2],
		t.Translation[0], t.Translation[1], t.Translation[2],
	}
}

// SetParameters installs a parameter vector produced by Parameters.
func (t *Euler3D) SetParameters(params []float64) error {
	if len(params) != 6 {
		return fmt.Errorf("rigid transform expects 6 parameters, got %d", len(params))
	}
	copy(t.Angles[:], params[:3])
	copy(t.Translation[:], params[3:])
	return nil
}

// Clone returns a copy of the transform.
func (t *Euler3D) Clone() *Euler3D {
	out := *t
	return &out
}

// String returns a printable summary of the transform.
func (t *Euler3D) String() string {
	return fmt.Sprintf("Euler3D:\n angles: %v\n translation: %v\n center: %v",
		t.Angles, t.Translation, t.Center)
}
