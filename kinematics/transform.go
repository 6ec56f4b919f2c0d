package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/ikchain/spatialmath"
)

// Chain is an ordered, serial list of joints attached to a base pose. A Chain is immutable once built
// and safe to share between goroutines; state lives elsewhere.
type Chain struct {
	base   spatialmath.Pose
	joints []Joint
}

// NewChain returns a chain rooted at base. A nil base is the world origin.
func NewChain(base spatialmath.Pose, joints ...Joint) *Chain {
	if base == nil {
		base = spatialmath.NewZeroPose()
	}
	return &Chain{base: base, joints: append([]Joint{}, joints...)}
}

// Base returns the pose the chain starts from.
func (c *Chain) Base() spatialmath.Pose {
	return c.base
}

// Joints returns a copy of the joints in chain order.
func (c *Chain) Joints() []Joint {
	return append([]Joint{}, c.joints...)
}

// Len returns the number of joints.
func (c *Chain) Len() int {
	return len(c.joints)
}

// DoF returns the total number of state scalars.
func (c *Chain) DoF() int {
	return lo.SumBy(c.joints, func(j Joint) int { return j.DoF() })
}

// MaxReach returns the sum of all bone lengths.
func (c *Chain) MaxReach() float64 {
	return lo.SumBy(c.joints, func(j Joint) float64 {
		if j.Kind == Bone {
			return j.Length
		}
		return 0
	})
}

// ZeroState returns an all-zero state for the chain.
func (c *Chain) ZeroState() State {
	return ZeroState(c.joints)
}

// withJoint returns a new chain with j appended.
func (c *Chain) withJoint(j Joint) *Chain {
	return &Chain{base: c.base, joints: append(c.Joints(), j)}
}

// Forward returns the end effector pose for the given state.
func (c *Chain) Forward(state State) (spatialmath.Pose, error) {
	m, err := c.walk(state, nil)
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPoseFromHomogeneous(m), nil
}

// JointPoses returns the pose at the input of every joint followed by the end effector pose, so the
// result has Len()+1 entries.
func (c *Chain) JointPoses(state State) ([]spatialmath.Pose, error) {
	poses := make([]spatialmath.Pose, 0, len(c.joints)+1)
	m, err := c.walk(state, func(m mgl64.Mat4) {
		poses = append(poses, spatialmath.NewPoseFromHomogeneous(m))
	})
	if err != nil {
		return nil, err
	}
	return append(poses, spatialmath.NewPoseFromHomogeneous(m)), nil
}

// walk composes the chain from the base, calling visit with the running frame before each joint.
func (c *Chain) walk(state State, visit func(mgl64.Mat4)) (mgl64.Mat4, error) {
	if len(state) != len(c.joints) {
		return mgl64.Ident4(), NewShapeMismatchError("state", len(state), len(c.joints))
	}
	m := c.base.Homogeneous()
	for i, j := range c.joints {
		if visit != nil {
			visit(m)
		}
		local, err := j.Transform(state[i])
		if err != nil {
			return mgl64.Ident4(), errors.Wrapf(err, "joint %d", i)
		}
		m = m.Mul4(local)
	}
	return m, nil
}
