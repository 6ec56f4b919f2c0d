// Package spatialmath defines poses and orientations and the conversions between their
// representations (homogeneous frames, rotation matrices, Euler angles, axis angles, quaternions).
package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// OrientationBetween returns the rotation that takes o1 onto o2 in the world frame, i.e.
// o2 = result * o1.
func OrientationBetween(o1, o2 *RotationMatrix) *RotationMatrix {
	return o2.Mul(o1.Transpose())
}

// OrientationDelta returns the rotation vector (axis scaled by angle, radians) of the rotation that
// takes from onto to, in the world frame. Its norm is never larger than pi.
func OrientationDelta(from, to *RotationMatrix) r3.Vector {
	aa := QuatToR4AA(OrientationBetween(from, to).Quaternion())
	return aa.ToR3()
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are approximately the same.
func OrientationAlmostEqual(o1, o2 *RotationMatrix) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// QuaternionAlmostEqual returns whether two quaternions describe the same rotation within tol. q and
// -q are treated as equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := quat.Abs(quat.Sub(a, b)) < tol
	flipped := quat.Abs(quat.Add(a, b)) < tol
	return same || flipped
}
