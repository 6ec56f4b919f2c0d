package spatialmath

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Pose represents a position and orientation in 3D space. Internally every Pose is a homogeneous
// 4x4 frame whose upper-left 3x3 block is the orientation and whose last column is the point with
// w=1.
type Pose interface {
	Point() r3.Vector
	Orientation() *RotationMatrix
	Homogeneous() mgl64.Mat4
}

type homogeneousPose mgl64.Mat4

// NewZeroPose returns a pose at (0,0,0) with the identity orientation.
func NewZeroPose() Pose {
	return homogeneousPose(mgl64.Ident4())
}

// NewPoseFromPoint returns a pose at pt with the identity orientation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return homogeneousPose(mgl64.Translate3D(pt.X, pt.Y, pt.Z))
}

// NewPoseFromOrientation returns a pose at the origin with orientation o.
func NewPoseFromOrientation(o *RotationMatrix) Pose {
	return homogeneousPose(o.mat.Mat4())
}

// NewPose returns a pose at pt with orientation o. A nil orientation is the identity.
func NewPose(pt r3.Vector, o *RotationMatrix) Pose {
	m := mgl64.Ident4()
	if o != nil {
		m = o.mat.Mat4()
	}
	m.SetCol(3, mgl64.Vec4{pt.X, pt.Y, pt.Z, 1})
	return homogeneousPose(m)
}

// NewPoseFromHomogeneous wraps an existing homogeneous frame.
func NewPoseFromHomogeneous(m mgl64.Mat4) Pose {
	return homogeneousPose(m)
}

// Point returns the translation of the pose.
func (p homogeneousPose) Point() r3.Vector {
	col := mgl64.Mat4(p).Col(3)
	return r3.Vector{X: col[0], Y: col[1], Z: col[2]}
}

// Orientation returns the rotation of the pose.
func (p homogeneousPose) Orientation() *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Mat4(p).Mat3()}
}

// Homogeneous returns the 4x4 frame.
func (p homogeneousPose) Homogeneous() mgl64.Mat4 {
	return mgl64.Mat4(p)
}

func (p homogeneousPose) String() string {
	pt := p.Point()
	ea := p.Orientation().EulerAngles()
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f Roll:%.4f Pitch:%.4f Yaw:%.4f}", pt.X, pt.Y, pt.Z, ea.Roll, ea.Pitch, ea.Yaw)
}

// Compose returns the pose obtained by applying b in the frame of a.
func Compose(a, b Pose) Pose {
	return homogeneousPose(a.Homogeneous().Mul4(b.Homogeneous()))
}

// PoseDelta returns the translational and rotational difference from one pose to another as a
// 6-vector: [dx, dy, dz, rx, ry, rz]. The rotational part is the rotation vector that takes from's
// orientation onto to's, expressed in the world frame.
func PoseDelta(from, to Pose) []float64 {
	dp := to.Point().Sub(from.Point())
	dr := OrientationDelta(from.Orientation(), to.Orientation())
	return []float64{dp.X, dp.Y, dp.Z, dr.X, dr.Y, dr.Z}
}

// PoseAlmostEqual returns whether two poses are within epsilon in every translation component and
// every rotation matrix entry.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		a.Orientation().mat.ApproxEqualThreshold(b.Orientation().mat, epsilon)
}
