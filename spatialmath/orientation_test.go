package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// represent a 45 degree rotation around the x axis in all the representations
var (
	th    = math.Pi / 4.
	q45x  = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.)}
	aa45x = &R4AA{th, 1., 0., 0.}
	ea45x = &EulerAngles{Roll: th, Pitch: 0, Yaw: 0}
)

func TestZeroOrientation(t *testing.T) {
	zero := NewIdentityRotation()
	test.That(t, zero.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, zero.AxisAngles(), test.ShouldResemble, &R4AA{0, 0, 0, 1})
	test.That(t, zero.EulerAngles(), test.ShouldResemble, NewEulerAngles())
}

func TestRepresentations45X(t *testing.T) {
	rm := RotationAboutX(th)

	q := rm.Quaternion()
	test.That(t, q.Real, test.ShouldAlmostEqual, q45x.Real)
	test.That(t, q.Imag, test.ShouldAlmostEqual, q45x.Imag)
	test.That(t, q.Jmag, test.ShouldAlmostEqual, q45x.Jmag)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, q45x.Kmag)

	aa := rm.AxisAngles()
	test.That(t, aa.Theta, test.ShouldAlmostEqual, aa45x.Theta)
	test.That(t, aa.RX, test.ShouldAlmostEqual, aa45x.RX)
	test.That(t, aa.RY, test.ShouldAlmostEqual, aa45x.RY)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, aa45x.RZ)

	ea := rm.EulerAngles()
	test.That(t, ea.Roll, test.ShouldAlmostEqual, ea45x.Roll)
	test.That(t, ea.Pitch, test.ShouldAlmostEqual, ea45x.Pitch)
	test.That(t, ea.Yaw, test.ShouldAlmostEqual, ea45x.Yaw)

	test.That(t, OrientationAlmostEqual(aa45x.RotationMatrix(), rm), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(ea45x.RotationMatrix(), rm), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(QuatToRotationMatrix(q45x), rm), test.ShouldBeTrue)
}

func TestOrientationDelta(t *testing.T) {
	t.Run("identical orientations", func(t *testing.T) {
		o := (&EulerAngles{Roll: 0.2, Pitch: -0.4, Yaw: 1.1}).RotationMatrix()
		d := OrientationDelta(o, o)
		test.That(t, d.Norm(), test.ShouldAlmostEqual, 0)
	})

	t.Run("rotation about z is reported in the world frame", func(t *testing.T) {
		from := RotationAboutX(math.Pi / 2)
		to := RotationAboutZ(0.3).Mul(from)
		d := OrientationDelta(from, to)
		test.That(t, R3VectorAlmostEqual(d, r3.Vector{Z: 0.3}, 1e-9), test.ShouldBeTrue)
	})

	t.Run("delta takes the short way round", func(t *testing.T) {
		from := NewIdentityRotation()
		to := RotationAboutY(1.5 * math.Pi)
		d := OrientationDelta(from, to)
		test.That(t, R3VectorAlmostEqual(d, r3.Vector{Y: -0.5 * math.Pi}, 1e-9), test.ShouldBeTrue)
	})

	t.Run("between composes back", func(t *testing.T) {
		o1 := (&EulerAngles{Roll: 0.5, Pitch: 0.1, Yaw: -0.7}).RotationMatrix()
		o2 := (&EulerAngles{Roll: -1.2, Pitch: 0.9, Yaw: 2.0}).RotationMatrix()
		test.That(t, OrientationAlmostEqual(OrientationBetween(o1, o2).Mul(o1), o2), test.ShouldBeTrue)
	})
}

func TestQuaternionAlmostEqual(t *testing.T) {
	neg := quat.Scale(-1, q45x)
	test.That(t, QuaternionAlmostEqual(q45x, neg, 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(q45x, quat.Number{Real: 1}, 1e-3), test.ShouldBeFalse)
}
