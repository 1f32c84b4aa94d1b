package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestNewPose(t *testing.T) {
	p, err := NewPose(1, 2, 3, quat.Number{Real: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, PoseAlmostEqual(p, NewPoseFromPoint(1, 2, 3), 1e-12), test.ShouldBeTrue)
	test.That(t, p.Point(), test.ShouldResemble, mgl64.Vec3{1, 2, 3})
	test.That(t, p.CheckRigid(), test.ShouldBeNil)

	t.Run("rotation about z by 90 degrees", func(t *testing.T) {
		s := math.Sqrt(0.5)
		p, err := NewPose(0, 0, 0, quat.Number{Real: s, Kmag: s})
		test.That(t, err, test.ShouldBeNil)
		v := p.TransformPoint(mgl64.Vec3{1, 0, 0})
		test.That(t, v.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9), test.ShouldBeTrue)
	})

	t.Run("quaternion is normalized", func(t *testing.T) {
		p, err := NewPose(0, 0, 0, quat.Number{Real: 2, Imag: 0, Jmag: 0, Kmag: 2})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.CheckRigid(), test.ShouldBeNil)
		o := p.Orientation()
		test.That(t, quat.Abs(o), test.ShouldAlmostEqual, 1.0)
		test.That(t, o.Real, test.ShouldAlmostEqual, math.Sqrt(0.5))
		test.That(t, o.Kmag, test.ShouldAlmostEqual, math.Sqrt(0.5))
	})

	t.Run("zero quaternion", func(t *testing.T) {
		_, err := NewPose(1, 1, 1, quat.Number{})
		test.That(t, errors.Is(err, ErrZeroQuaternion), test.ShouldBeTrue)
	})
}

func TestPoseFromRows(t *testing.T) {
	identity := NewZeroPose()
	p, err := NewTransformFromRows(identity.Rows())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, PoseAlmostEqual(p, identity, 0), test.ShouldBeTrue)

	rows := [16]float64{
		1, 0, 0, 5,
		0, 1, 0, 6,
		0, 0, 1, 7,
		0, 0, 0, 1,
	}
	p, err = NewTransformFromRows(rows)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.CheckRigid(), test.ShouldBeNil)
	test.That(t, p.At(0, 3), test.ShouldEqual, 5.)
	test.That(t, p.At(2, 3), test.ShouldEqual, 7.)
	test.That(t, p.Rows(), test.ShouldResemble, rows)

	scaled := rows
	scaled[0] = 2
	p, err = NewTransformFromRows(scaled)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.CheckRigid().Error(), test.ShouldContainSubstring, "orthonormal")

	badBottom := rows
	badBottom[12] = 1
	_, err = NewTransformFromRows(badBottom)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bottom row")

	mirrored := rows
	mirrored[0] = -1
	p, err = NewTransformFromRows(mirrored)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.CheckRigid().Error(), test.ShouldContainSubstring, "determinant")
}

func TestCompose(t *testing.T) {
	a := NewPoseFromPoint(1, 0, 0)
	b := NewPoseFromPoint(0, 2, 0)
	test.That(t, a.Compose(b).Point(), test.ShouldResemble, mgl64.Vec3{1, 2, 0})
	test.That(t, PoseAlmostEqual(NewZeroPose().Compose(a), a, 0), test.ShouldBeTrue)

	s := math.Sqrt(0.5)
	rot, err := NewPose(0, 0, 0, quat.Number{Real: s, Kmag: s})
	test.That(t, err, test.ShouldBeNil)
	// rotation applied after the translation rotates the translation too
	got := rot.Compose(a).Point()
	test.That(t, got.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9), test.ShouldBeTrue)
}

func TestTransformFromRows(t *testing.T) {
	flipY := [16]float64{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	m, err := NewTransformFromRows(flipY)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.CheckRigid(), test.ShouldNotBeNil)

	p, err := NewPose(1, 2, 3, quat.Number{Real: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Compose(p).Point(), test.ShouldResemble, mgl64.Vec3{1, -2, 3})

	scale := [16]float64{0.5, 0, 0, 0, 0, 0.5, 0, 0, 0, 0, 0.5, 0, 0, 0, 0, 1}
	m, err = NewTransformFromRows(scale)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Compose(p).Point(), test.ShouldResemble, mgl64.Vec3{0.5, 1, 1.5})

	projective := scale
	projective[14] = 1
	_, err = NewTransformFromRows(projective)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bottom row")

	notFinite := scale
	notFinite[3] = math.NaN()
	_, err = NewTransformFromRows(notFinite)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not finite")
}
