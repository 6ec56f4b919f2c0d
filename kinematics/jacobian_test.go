package kinematics

import (
	"errors"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestJacobianHingeBone(t *testing.T) {
	const length = 2.
	c := planarChain(t, 1, length)
	jac, err := c.Jacobian(c.ZeroState(), NewDefaultJacobianOptions())
	test.That(t, err, test.ShouldBeNil)
	rows, cols := jac.Dims()
	test.That(t, rows, test.ShouldEqual, 3)
	test.That(t, cols, test.ShouldEqual, 1)

	// rotating about X moves the tip of a bone along +Z toward -Y
	test.That(t, jac.At(0, 0), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, jac.At(1, 0), test.ShouldAlmostEqual, -length, 1e-5)
	test.That(t, jac.At(2, 0), test.ShouldAlmostEqual, 0, 1e-2)

	central, err := c.Jacobian(c.ZeroState(), JacobianOptions{Epsilon: DefaultJacobianEpsilon, Central: true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, central.At(1, 0), test.ShouldAlmostEqual, -length, 1e-5)
	test.That(t, central.At(2, 0), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestJacobianShape(t *testing.T) {
	joints := testJoints(t)
	c := NewChain(nil, joints...)
	state := State{{0.1, -0.2, 0.3}, {}, {0.4}, {}, {0.5}}

	jac, err := c.Jacobian(state, NewDefaultJacobianOptions())
	test.That(t, err, test.ShouldBeNil)
	rows, cols := jac.Dims()
	test.That(t, rows, test.ShouldEqual, 3)
	test.That(t, cols, test.ShouldEqual, 5)

	// the axial joint sits at the tip and cannot move it
	test.That(t, mat.Norm(jac.ColView(4), 2), test.ShouldAlmostEqual, 0, 1e-12)

	full, err := c.JacobianWithOrientation(state, NewDefaultJacobianOptions())
	test.That(t, err, test.ShouldBeNil)
	rows, cols = full.Dims()
	test.That(t, rows, test.ShouldEqual, 6)
	test.That(t, cols, test.ShouldEqual, 5)
	test.That(t, mat.Equal(full.Slice(0, 3, 0, 5), jac), test.ShouldBeTrue)
	// but it does turn the end effector at unit rate
	test.That(t, mat.Norm(full.Slice(3, 6, 4, 5), 2), test.ShouldAlmostEqual, 1, 1e-6)

	test.That(t, state, test.ShouldResemble, State{{0.1, -0.2, 0.3}, {}, {0.4}, {}, {0.5}})
}

func TestJacobianParallel(t *testing.T) {
	c := planarChain(t, 6, 0.5)
	state := c.ZeroState()
	for i, v := range state {
		for j := range v {
			v[j] = 0.1 * float64(i+j)
		}
	}
	serial, err := c.Jacobian(state, NewDefaultJacobianOptions())
	test.That(t, err, test.ShouldBeNil)
	parallel, err := c.Jacobian(state, JacobianOptions{Epsilon: DefaultJacobianEpsilon, Parallel: true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(serial, parallel), test.ShouldBeTrue)
}

func TestJacobianEdgeCases(t *testing.T) {
	b, err := NewBone("b", 1)
	test.That(t, err, test.ShouldBeNil)
	bonesOnly := NewChain(nil, b, b)
	jac, err := bonesOnly.Jacobian(bonesOnly.ZeroState(), NewDefaultJacobianOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, jac.IsEmpty(), test.ShouldBeTrue)

	c := planarChain(t, 1, 1)
	_, err = c.Jacobian(State{{}, {}}, NewDefaultJacobianOptions())
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)

	_, err = c.Jacobian(c.ZeroState(), JacobianOptions{})
	test.That(t, err, test.ShouldNotBeNil)
}
