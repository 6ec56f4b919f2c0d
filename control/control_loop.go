// Package control drives an IK stepper at a fixed rate toward a target that may move between ticks.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/ikchain/kinematics"
	"go.viam.com/ikchain/spatialmath"
)

// Stepper is advanced once per tick. *kinematics.JacobianIK satisfies it.
type Stepper interface {
	Step(target r3.Vector, timeStep float64) (kinematics.StepResult, error)
	Model() *kinematics.Model
	Reset()
}

// TargetSource is polled every tick for the current target. ok=false keeps the previous target.
type TargetSource interface {
	Target(now time.Time) (target r3.Vector, ok bool)
}

// TargetFunc adapts a function to a TargetSource.
type TargetFunc func(now time.Time) (r3.Vector, bool)

// Target calls f.
func (f TargetFunc) Target(now time.Time) (r3.Vector, bool) {
	return f(now)
}

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Frequency is the tick rate in Hz, in (0, 200].
	Frequency float64 `json:"frequency"`
	// TimeScale multiplies the tick period to give the solver time step. 0 means 1.
	TimeScale float64 `json:"time_scale,omitempty"`
	// FilterSize > 1 averages the last FilterSize targets.
	FilterSize int `json:"filter_size,omitempty"`
	// MaxTargetSpeed > 0 limits how fast the commanded target may move, in units per second.
	MaxTargetSpeed float64 `json:"max_target_speed,omitempty"`
}

// Loop steps a Stepper once per tick toward its current target.
type Loop struct {
	mu      sync.Mutex
	cfg     LoopConfig
	stepper Stepper
	source  TargetSource
	filters []targetFilter
	logger  golog.Logger
	clock   clock.Clock
	dt      time.Duration

	target     r3.Vector
	hasTarget  bool
	commanded  r3.Vector
	lastResult kinematics.StepResult
	steps      int

	ticker                  *clock.Ticker
	stop                    chan struct{}
	activeBackgroundWorkers sync.WaitGroup
	cancelCtx               context.Context
	cancel                  context.CancelFunc
	running                 bool
}

// NewLoop constructs a new control loop for a stepper. source may be nil, in which case targets only
// come from SetTarget.
func NewLoop(logger golog.Logger, cfg LoopConfig, stepper Stepper, source TargetSource) (*Loop, error) {
	if stepper == nil {
		return nil, errors.New("control loop needs a stepper")
	}
	if cfg.Frequency <= 0.0 || cfg.Frequency > 200 {
		return nil, errors.New("loop frequency shouldn't be 0 or above 200Hz")
	}
	if cfg.TimeScale < 0 || cfg.FilterSize < 0 || cfg.MaxTargetSpeed < 0 {
		return nil, errors.Errorf("time_scale, filter_size and max_target_speed cannot be negative: %+v", cfg)
	}
	if cfg.TimeScale == 0 {
		cfg.TimeScale = 1
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		cfg:       cfg,
		stepper:   stepper,
		source:    source,
		logger:    logger,
		clock:     clock.New(),
		dt:        time.Duration(float64(time.Second) * (1.0 / cfg.Frequency)),
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}
	if cfg.FilterSize > 1 {
		l.filters = append(l.filters, &movingAverageFilter{filterSize: cfg.FilterSize})
	}
	if cfg.MaxTargetSpeed > 0 {
		l.filters = append(l.filters, &rateLimitFilter{maxStep: cfg.MaxTargetSpeed * l.dt.Seconds()})
	}
	return l, nil
}

// SetClock replaces the clock driving the ticker. It has no effect on a running loop.
func (l *Loop) SetClock(clk clock.Clock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = clk
}

// Frequency returns the loop's frequency.
func (l *Loop) Frequency() float64 {
	return l.cfg.Frequency
}

// TimeStep returns the time step handed to the stepper each tick.
func (l *Loop) TimeStep() float64 {
	return l.dt.Seconds() * l.cfg.TimeScale
}

// SetTarget sets the raw target the loop steps toward.
func (l *Loop) SetTarget(target r3.Vector) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.target = target
	l.hasTarget = true
}

// Target returns the raw target and whether one has been set.
func (l *Loop) Target() (r3.Vector, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target, l.hasTarget
}

// CommandedTarget returns the filtered target used on the last tick.
func (l *Loop) CommandedTarget() r3.Vector {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commanded
}

// State returns a copy of the stepper's model state.
func (l *Loop) State() kinematics.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stepper.Model().CopyState()
}

// JointPoses returns the world poses of the stepper's joints.
func (l *Loop) JointPoses() ([]spatialmath.Pose, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stepper.Model().JointPoses()
}

// LastResult returns the result of the most recent step and how many steps have run.
func (l *Loop) LastResult() (kinematics.StepResult, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastResult, l.steps
}

// Reset zeroes the stepper state and the target filters.
func (l *Loop) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stepper.Reset()
	for _, f := range l.filters {
		f.Reset()
	}
	l.lastResult = kinematics.StepResult{}
	l.steps = 0
}

// Start starts the loop.
func (l *Loop) Start() error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("control loop already running")
	}
	if l.cancelCtx.Err() != nil {
		l.mu.Unlock()
		return errors.New("control loop was closed")
	}
	l.logger.Infof("Running loop on %1.4f Hz (%v), time step %v", l.cfg.Frequency, l.dt, l.TimeStep())
	l.ticker = l.clock.Ticker(l.dt)
	l.stop = make(chan struct{})
	l.running = true
	ticker, stop := l.ticker, l.stop
	l.mu.Unlock()

	l.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			select {
			case now := <-ticker.C:
				l.tick(now)
			case <-stop:
				return
			case <-l.cancelCtx.Done():
				return
			}
		}
	}, l.activeBackgroundWorkers.Done)
	return nil
}

func (l *Loop) tick(now time.Time) {
	var target r3.Vector
	var ok bool
	if l.source != nil {
		target, ok = l.source.Target(now)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if ok {
		l.target = target
		l.hasTarget = true
	}
	if !l.hasTarget {
		return
	}
	commanded := l.target
	for _, f := range l.filters {
		commanded = f.Next(commanded)
	}
	l.commanded = commanded

	res, err := l.stepper.Step(commanded, l.TimeStep())
	if err != nil {
		l.logger.Errorw("control loop step failed", "error", err, "target", commanded)
		return
	}
	l.lastResult = res
	l.steps++
}

// Stop stops the loop. It can be started again.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.logger.Debug("closing loop")
	l.ticker.Stop()
	close(l.stop)
	l.running = false
	l.mu.Unlock()
	l.activeBackgroundWorkers.Wait()
}

// Close stops the loop for good.
func (l *Loop) Close() {
	l.Stop()
	l.cancel()
	l.activeBackgroundWorkers.Wait()
}
