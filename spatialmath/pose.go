// Package spatialmath defines the rigid transforms attached to captured frames.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// rigidEpsilon bounds how far a rotation block may drift from orthonormal before it is rejected.
const rigidEpsilon = 1e-6

// ErrZeroQuaternion is returned when a rotation is described by a quaternion of norm zero.
var ErrZeroQuaternion = errors.New("quaternion has zero norm")

// Pose is a homogeneous 4x4 transform with bottom row [0 0 0 1]. Poses built from a
// translation and a quaternion are rigid; transforms read from configuration may also mirror
// or scale. The zero value is not a valid pose; use NewZeroPose.
type Pose struct {
	m mgl64.Mat4
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{mgl64.Ident4()}
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(x, y, z float64) Pose {
	return Pose{mgl64.Translate3D(x, y, z)}
}

// NewPose builds a pose from a translation and a rotation quaternion. The quaternion is
// normalized first; a zero quaternion is rejected.
func NewPose(x, y, z float64, q quat.Number) (Pose, error) {
	norm := quat.Abs(q)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return Pose{}, ErrZeroQuaternion
	}
	q = quat.Scale(1/norm, q)
	rot := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Mat4()
	rot.SetCol(3, mgl64.Vec4{x, y, z, 1})
	return Pose{rot}, nil
}

// NewTransformFromRows builds a transform from 16 row-major values, as found in
// configuration files. Only the bottom row is checked, so mirrors and scales are accepted.
func NewTransformFromRows(rows [16]float64) (Pose, error) {
	for i, v := range rows {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Pose{}, errors.Errorf("transform element %d is not finite", i)
		}
	}
	m := mgl64.Mat4FromRows(
		mgl64.Vec4{rows[0], rows[1], rows[2], rows[3]},
		mgl64.Vec4{rows[4], rows[5], rows[6], rows[7]},
		mgl64.Vec4{rows[8], rows[9], rows[10], rows[11]},
		mgl64.Vec4{rows[12], rows[13], rows[14], rows[15]},
	)
	if m.Row(3) != (mgl64.Vec4{0, 0, 0, 1}) {
		return Pose{}, errors.Errorf("bottom row of transform must be [0 0 0 1], got %v", m.Row(3))
	}
	return Pose{m}, nil
}

// CheckRigid returns an error unless the bottom row is [0 0 0 1] and the rotation block is
// orthonormal with determinant +1.
func (p Pose) CheckRigid() error {
	if p.m.Row(3) != (mgl64.Vec4{0, 0, 0, 1}) {
		return errors.Errorf("bottom row of transform must be [0 0 0 1], got %v", p.m.Row(3))
	}
	rot := p.m.Mat3()
	if !rot.Transpose().Mul3(rot).ApproxEqualThreshold(mgl64.Ident3(), rigidEpsilon) {
		return errors.New("rotation block of transform is not orthonormal")
	}
	if math.Abs(rot.Det()-1) > rigidEpsilon {
		return errors.Errorf("rotation block of transform has determinant %v, expected 1", rot.Det())
	}
	return nil
}

// Compose returns p * other, applying other first.
func (p Pose) Compose(other Pose) Pose {
	return Pose{p.m.Mul4(other.m)}
}

// Matrix returns the underlying homogeneous matrix.
func (p Pose) Matrix() mgl64.Mat4 {
	return p.m
}

// At returns the element at (row, col).
func (p Pose) At(row, col int) float64 {
	return p.m.At(row, col)
}

// Rows returns the 16 row-major values of the matrix.
func (p Pose) Rows() [16]float64 {
	var out [16]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = p.m.At(r, c)
		}
	}
	return out
}

// Point returns the translation component.
func (p Pose) Point() mgl64.Vec3 {
	return p.m.Col(3).Vec3()
}

// Orientation returns the rotation as a unit quaternion.
func (p Pose) Orientation() quat.Number {
	q := mgl64.Mat4ToQuat(p.m).Normalize()
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// TransformPoint applies the pose to a point.
func (p Pose) TransformPoint(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(v, p.m)
}

// PoseAlmostEqual returns whether every element of a and b differs by at most epsilon.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	return a.m.ApproxEqualThreshold(b.m, epsilon)
}
