package control

import (
	"fmt"
	"sync"
	"testing"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/ikchain/kinematics"
)

type stepCall struct {
	Target   r3.Vector
	TimeStep float64
}

type fakeStepper struct {
	mu     sync.Mutex
	model  *kinematics.Model
	calls  []stepCall
	resets int
	err    error
}

func (s *fakeStepper) Step(target r3.Vector, timeStep float64) (kinematics.StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return kinematics.StepResult{}, s.err
	}
	s.calls = append(s.calls, stepCall{target, timeStep})
	return kinematics.StepResult{ErrorNorm: target.Norm()}, nil
}

func (s *fakeStepper) Model() *kinematics.Model {
	return s.model
}

func (s *fakeStepper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *fakeStepper) Calls() []stepCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stepCall(nil), s.calls...)
}

func planarModel(t *testing.T, n int) *kinematics.Model {
	t.Helper()
	m := kinematics.NewModel("planar")
	for i := 0; i < n; i++ {
		test.That(t, m.AddJoint(kinematics.NewHinge(fmt.Sprintf("h%d", i))), test.ShouldBeNil)
		b, err := kinematics.NewBone(fmt.Sprintf("b%d", i), 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.AddJoint(b), test.ShouldBeNil)
	}
	return m
}

func TestNewLoop(t *testing.T) {
	logger := golog.NewTestLogger(t)
	stepper := &fakeStepper{}

	for _, freq := range []float64{0, -1, 201} {
		_, err := NewLoop(logger, LoopConfig{Frequency: freq}, stepper, nil)
		test.That(t, err, test.ShouldNotBeNil)
	}
	_, err := NewLoop(logger, LoopConfig{Frequency: 10, TimeScale: -1}, stepper, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewLoop(logger, LoopConfig{Frequency: 10}, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)

	l, err := NewLoop(logger, LoopConfig{Frequency: 100}, stepper, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.Frequency(), test.ShouldEqual, 100.)
	test.That(t, l.TimeStep(), test.ShouldAlmostEqual, 0.01)

	l, err = NewLoop(logger, LoopConfig{Frequency: 100, TimeScale: 100}, stepper, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.TimeStep(), test.ShouldAlmostEqual, 1.)
}

func TestLoopTick(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("no target means no step", func(t *testing.T) {
		stepper := &fakeStepper{}
		l, err := NewLoop(logger, LoopConfig{Frequency: 50}, stepper, nil)
		test.That(t, err, test.ShouldBeNil)
		l.tick(time.Now())
		test.That(t, stepper.Calls(), test.ShouldBeEmpty)
		_, ok := l.Target()
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("set target is stepped toward", func(t *testing.T) {
		stepper := &fakeStepper{}
		l, err := NewLoop(logger, LoopConfig{Frequency: 50, TimeScale: 2}, stepper, nil)
		test.That(t, err, test.ShouldBeNil)
		target := r3.Vector{X: 1, Y: 2, Z: 3}
		l.SetTarget(target)
		l.tick(time.Now())
		l.tick(time.Now())
		want := []stepCall{{target, 0.04}, {target, 0.04}}
		test.That(t, cmp.Diff(want, stepper.Calls()), test.ShouldBeEmpty)
		res, n := l.LastResult()
		test.That(t, n, test.ShouldEqual, 2)
		test.That(t, res.ErrorNorm, test.ShouldAlmostEqual, target.Norm())
	})

	t.Run("source overrides target only when ok", func(t *testing.T) {
		stepper := &fakeStepper{}
		calls := 0
		src := TargetFunc(func(time.Time) (r3.Vector, bool) {
			calls++
			return r3.Vector{X: float64(calls)}, calls%2 == 1
		})
		l, err := NewLoop(logger, LoopConfig{Frequency: 50}, stepper, src)
		test.That(t, err, test.ShouldBeNil)
		for i := 0; i < 3; i++ {
			l.tick(time.Now())
		}
		got := stepper.Calls()
		test.That(t, len(got), test.ShouldEqual, 3)
		test.That(t, got[0].Target.X, test.ShouldEqual, 1.)
		test.That(t, got[1].Target.X, test.ShouldEqual, 1.)
		test.That(t, got[2].Target.X, test.ShouldEqual, 3.)
	})

	t.Run("step errors are not counted", func(t *testing.T) {
		stepper := &fakeStepper{err: errors.New("bad step")}
		l, err := NewLoop(logger, LoopConfig{Frequency: 50}, stepper, nil)
		test.That(t, err, test.ShouldBeNil)
		l.SetTarget(r3.Vector{X: 1})
		l.tick(time.Now())
		_, n := l.LastResult()
		test.That(t, n, test.ShouldEqual, 0)
	})

	t.Run("target is filtered before stepping", func(t *testing.T) {
		stepper := &fakeStepper{}
		l, err := NewLoop(logger, LoopConfig{Frequency: 10, MaxTargetSpeed: 5}, stepper, nil)
		test.That(t, err, test.ShouldBeNil)
		l.SetTarget(r3.Vector{})
		l.tick(time.Now())
		l.SetTarget(r3.Vector{X: 10})
		l.tick(time.Now())
		test.That(t, l.CommandedTarget().X, test.ShouldAlmostEqual, 0.5)

		l.Reset()
		test.That(t, stepper.resets, test.ShouldEqual, 1)
		l.tick(time.Now())
		test.That(t, l.CommandedTarget().X, test.ShouldAlmostEqual, 10.)
	})
}

func TestLoopDrivesSolver(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := planarModel(t, 3)
	solver, err := kinematics.CreateJacobianIKSolver(model, kinematics.NewDefaultSolverConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	l, err := NewLoop(logger, LoopConfig{Frequency: 100, TimeScale: 100}, solver, nil)
	test.That(t, err, test.ShouldBeNil)
	target := r3.Vector{Y: 1.5, Z: 1.5}
	l.SetTarget(target)
	for i := 0; i < 20; i++ {
		l.tick(time.Now())
	}
	res, _ := l.LastResult()
	test.That(t, res.Converged, test.ShouldBeTrue)

	poses, err := l.JointPoses()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(poses), test.ShouldEqual, 7)
	test.That(t, poses[6].Point().Sub(target).Norm(), test.ShouldBeLessThan, 1e-3)
	test.That(t, len(l.State()), test.ShouldEqual, 6)

	l.Reset()
	for _, v := range l.State().Flatten() {
		test.That(t, v, test.ShouldEqual, 0.)
	}
}

func TestLoopStartStop(t *testing.T) {
	logger := golog.NewTestLogger(t)
	mockClock := clk.NewMock()
	stepper := &fakeStepper{}
	l, err := NewLoop(logger, LoopConfig{Frequency: 20}, stepper, nil)
	test.That(t, err, test.ShouldBeNil)
	l.SetClock(mockClock)
	l.SetTarget(r3.Vector{Z: 1})

	test.That(t, l.Start(), test.ShouldBeNil)
	test.That(t, l.Start(), test.ShouldNotBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		mockClock.Add(50 * time.Millisecond)
		_, n := l.LastResult()
		test.That(tb, n, test.ShouldBeGreaterThanOrEqualTo, 3)
	})
	l.Stop()

	_, stopped := l.LastResult()
	mockClock.Add(time.Second)
	_, n := l.LastResult()
	test.That(t, n, test.ShouldEqual, stopped)
	for _, c := range stepper.Calls() {
		test.That(t, c.TimeStep, test.ShouldAlmostEqual, 0.05)
	}

	test.That(t, l.Start(), test.ShouldBeNil)
	l.Close()
	test.That(t, l.Start(), test.ShouldNotBeNil)
}

func TestTargetFilters(t *testing.T) {
	t.Run("moving average", func(t *testing.T) {
		f := &movingAverageFilter{filterSize: 3}
		want := []float64{3, 4.5, 6, 9}
		for i, x := range []float64{3, 6, 9, 12} {
			test.That(t, f.Next(r3.Vector{X: x}).X, test.ShouldAlmostEqual, want[i])
		}
		f.Reset()
		test.That(t, f.Next(r3.Vector{X: 1}).X, test.ShouldEqual, 1.)
	})

	t.Run("rate limit", func(t *testing.T) {
		f := &rateLimitFilter{maxStep: 1}
		test.That(t, f.Next(r3.Vector{}), test.ShouldResemble, r3.Vector{})
		test.That(t, f.Next(r3.Vector{X: 3, Y: 4}).Norm(), test.ShouldAlmostEqual, 1.)
		got := f.Next(r3.Vector{X: 3, Y: 4})
		test.That(t, got.X, test.ShouldAlmostEqual, 1.2)
		test.That(t, got.Y, test.ShouldAlmostEqual, 1.6)
		f.Next(r3.Vector{X: 1.3, Y: 1.6})
		test.That(t, f.Next(r3.Vector{X: 1.3, Y: 1.6}).X, test.ShouldAlmostEqual, 1.3)
	})
}
