package kinematics

import (
	"errors"
	"testing"

	"go.viam.com/test"
)

func testJoints(t *testing.T) []Joint {
	t.Helper()
	b, err := NewBone("b", 1)
	test.That(t, err, test.ShouldBeNil)
	return []Joint{NewBall("s"), b, NewHinge("h"), b, NewAxial("a")}
}

func TestStateShape(t *testing.T) {
	joints := testJoints(t)
	s := ZeroState(joints)
	test.That(t, len(s), test.ShouldEqual, len(joints))
	for i, j := range joints {
		test.That(t, len(s[i]), test.ShouldEqual, j.DoF())
	}
	test.That(t, s.DoF(), test.ShouldEqual, 5)
	test.That(t, s.checkShape(joints), test.ShouldBeNil)

	s[1] = []float64{1}
	test.That(t, errors.Is(s.checkShape(joints), ErrShapeMismatch), test.ShouldBeTrue)
	test.That(t, errors.Is(s[:2].checkShape(joints), ErrShapeMismatch), test.ShouldBeTrue)
}

func TestStateCopy(t *testing.T) {
	s := State{{1, 2, 3}, {}, {4}}
	c := s.Copy()
	test.That(t, c, test.ShouldResemble, s)
	c[0][1] = 10
	test.That(t, s[0][1], test.ShouldEqual, 2.)
}

func TestStateFlat(t *testing.T) {
	joints := testJoints(t)
	flat := []float64{1, 2, 3, 4, 5}
	s, err := StateFromFlat(joints, flat)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s[0], test.ShouldResemble, []float64{1, 2, 3})
	test.That(t, len(s[1]), test.ShouldEqual, 0)
	test.That(t, s[2], test.ShouldResemble, []float64{4})
	test.That(t, s[4], test.ShouldResemble, []float64{5})
	test.That(t, s.Flatten(), test.ShouldResemble, flat)

	_, err = StateFromFlat(joints, flat[:4])
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
}

func TestMaxAbsDiff(t *testing.T) {
	a := State{{1, 2}, {}, {3}}
	b := State{{1.5, 2}, {}, {1}}
	d, err := MaxAbsDiff(a, b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 2.)

	_, err = MaxAbsDiff(a, State{{1, 2}, {}})
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
	_, err = MaxAbsDiff(a, State{{1}, {}, {3}})
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
}
