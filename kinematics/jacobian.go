package kinematics

import (
	"context"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/ikchain/spatialmath"
	"go.viam.com/ikchain/utils"
)

// JacobianOptions control how a numerical jacobian is estimated.
type JacobianOptions struct {
	// Epsilon is the perturbation added to each scalar, in radians.
	Epsilon float64
	// Central uses (f(x+e)-f(x-e))/2e instead of (f(x+e)-f(x))/e.
	Central bool
	// Parallel computes columns on separate goroutines, each with its own copy of the state.
	Parallel bool
}

// NewDefaultJacobianOptions returns forward-difference, serial options with the default epsilon.
func NewDefaultJacobianOptions() JacobianOptions {
	return JacobianOptions{Epsilon: DefaultJacobianEpsilon}
}

// Jacobian returns the 3xN matrix of end effector position derivatives with respect to every state
// scalar, in flattened chain order. A chain with no degrees of freedom yields an empty matrix.
func (c *Chain) Jacobian(state State, opts JacobianOptions) (*mat.Dense, error) {
	return c.jacobian(state, opts, false)
}

// JacobianWithOrientation returns a 6xN jacobian. Rows 0-2 are position derivatives; rows 3-5 are the
// rotation vector of the end effector orientation change, in the world frame, divided by epsilon.
func (c *Chain) JacobianWithOrientation(state State, opts JacobianOptions) (*mat.Dense, error) {
	return c.jacobian(state, opts, true)
}

// dofRef locates one scalar of a State.
type dofRef struct {
	joint, value int
}

// dofIndex maps flattened DOF positions to (joint, value) pairs.
func (c *Chain) dofIndex() []dofRef {
	var index []dofRef
	for i, j := range c.joints {
		for v := 0; v < j.DoF(); v++ {
			index = append(index, dofRef{i, v})
		}
	}
	return index
}

func (c *Chain) jacobian(state State, opts JacobianOptions, withOrientation bool) (*mat.Dense, error) {
	if opts.Epsilon <= 0 {
		return nil, errors.Errorf("jacobian epsilon must be positive, got %v", opts.Epsilon)
	}
	if err := state.checkShape(c.joints); err != nil {
		return nil, err
	}
	index := c.dofIndex()
	if len(index) == 0 {
		return &mat.Dense{}, nil
	}
	rows := 3
	if withOrientation {
		rows = 6
	}

	base, err := c.Forward(state)
	if err != nil {
		return nil, err
	}
	jac := mat.NewDense(rows, len(index), nil)

	if !opts.Parallel {
		st := state.Copy()
		for k, at := range index {
			if err := c.column(jac, k, st, at, base, opts); err != nil {
				return nil, err
			}
		}
		return jac, nil
	}

	// each column writes distinct matrix entries and works on its own state copy
	errs := make([]error, len(index))
	err = utils.GroupWorkParallel(context.Background(), len(index), func(k int) {
		errs[k] = c.column(jac, k, state.Copy(), index[k], base, opts)
	})
	if err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return jac, nil
}

// column fills column k of jac by perturbing the scalar at in st. st is restored before returning.
func (c *Chain) column(jac *mat.Dense, k int, st State, at dofRef, base spatialmath.Pose, opts JacobianOptions) error {
	orig := st[at.joint][at.value]
	defer func() { st[at.joint][at.value] = orig }()

	st[at.joint][at.value] = orig + opts.Epsilon
	plus, err := c.Forward(st)
	if err != nil {
		return err
	}
	from, span := base, opts.Epsilon
	if opts.Central {
		st[at.joint][at.value] = orig - opts.Epsilon
		if from, err = c.Forward(st); err != nil {
			return err
		}
		span = 2 * opts.Epsilon
	}

	dp := plus.Point().Sub(from.Point()).Mul(1 / span)
	jac.Set(0, k, dp.X)
	jac.Set(1, k, dp.Y)
	jac.Set(2, k, dp.Z)
	if rows, _ := jac.Dims(); rows == 6 {
		dr := spatialmath.OrientationDelta(from.Orientation(), plus.Orientation()).Mul(1 / span)
		jac.Set(3, k, dr.X)
		jac.Set(4, k, dr.Y)
		jac.Set(5, k, dr.Z)
	}
	return nil
}
