package kinematics

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Defaults used by NewDefaultSolverConfig. Angles are in radians.
const (
	DefaultJacobianEpsilon      = 1e-3
	DefaultConvergenceThreshold = 1e-3
	DefaultMaxChange            = 0.5
	DefaultSmallUpdateThreshold = 0.1
	DefaultStagnationLimit      = 10
	DefaultPerturbationScale    = 0.5
	DefaultRCond                = 1e-6
	DefaultMaxIterations        = 2000
	DefaultOrientationWeight    = 1.0
)

// SolverConfig holds the tunables of the jacobian solver.
type SolverConfig struct {
	// Epsilon is the finite-difference step used to estimate the jacobian.
	Epsilon float64 `json:"epsilon" yaml:"epsilon" jsonschema:"exclusiveMinimum=0"`
	// CentralDifference estimates the jacobian with (f(x+e)-f(x-e))/2e instead of a forward difference.
	CentralDifference bool `json:"central_difference,omitempty" yaml:"central_difference,omitempty"`
	// ParallelJacobian computes jacobian columns concurrently.
	ParallelJacobian bool `json:"parallel_jacobian,omitempty" yaml:"parallel_jacobian,omitempty"`

	// ConvergenceThreshold is the position error below which a step does nothing.
	ConvergenceThreshold float64 `json:"convergence_threshold" yaml:"convergence_threshold" jsonschema:"exclusiveMinimum=0"`
	// MaxChange bounds the largest single-DOF update of a step before scaling by the time step.
	MaxChange float64 `json:"max_change" yaml:"max_change" jsonschema:"exclusiveMinimum=0"`

	SmallUpdateThreshold float64 `json:"small_update_threshold" yaml:"small_update_threshold" jsonschema:"minimum=0"`
	StagnationLimit      int     `json:"stagnation_limit" yaml:"stagnation_limit" jsonschema:"minimum=1"`
	PerturbationScale    float64 `json:"perturbation_scale" yaml:"perturbation_scale" jsonschema:"minimum=0"`

	// Damping > 0 turns the pseudo-inverse into damped least squares.
	Damping float64 `json:"damping,omitempty" yaml:"damping,omitempty" jsonschema:"minimum=0"`
	// RCond truncates singular values smaller than RCond times the largest one.
	RCond float64 `json:"rcond" yaml:"rcond" jsonschema:"minimum=0,exclusiveMaximum=1"`

	MaxIterations     int     `json:"max_iterations" yaml:"max_iterations" jsonschema:"minimum=1"`
	OrientationWeight float64 `json:"orientation_weight" yaml:"orientation_weight" jsonschema:"minimum=0"`
}

// NewDefaultSolverConfig returns the default solver configuration.
func NewDefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Epsilon:              DefaultJacobianEpsilon,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		MaxChange:            DefaultMaxChange,
		SmallUpdateThreshold: DefaultSmallUpdateThreshold,
		StagnationLimit:      DefaultStagnationLimit,
		PerturbationScale:    DefaultPerturbationScale,
		RCond:                DefaultRCond,
		MaxIterations:        DefaultMaxIterations,
		OrientationWeight:    DefaultOrientationWeight,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg SolverConfig) Validate() error {
	var err error
	if cfg.Epsilon <= 0 {
		err = multierr.Append(err, errors.Errorf("epsilon must be positive, got %v", cfg.Epsilon))
	}
	if cfg.ConvergenceThreshold <= 0 {
		err = multierr.Append(err, errors.Errorf("convergence_threshold must be positive, got %v", cfg.ConvergenceThreshold))
	}
	if cfg.MaxChange <= 0 {
		err = multierr.Append(err, errors.Errorf("max_change must be positive, got %v", cfg.MaxChange))
	}
	if cfg.SmallUpdateThreshold < 0 {
		err = multierr.Append(err, errors.Errorf("small_update_threshold cannot be negative, got %v", cfg.SmallUpdateThreshold))
	}
	if cfg.StagnationLimit < 1 {
		err = multierr.Append(err, errors.Errorf("stagnation_limit must be at least 1, got %d", cfg.StagnationLimit))
	}
	if cfg.PerturbationScale < 0 {
		err = multierr.Append(err, errors.Errorf("perturbation_scale cannot be negative, got %v", cfg.PerturbationScale))
	}
	if cfg.Damping < 0 {
		err = multierr.Append(err, errors.Errorf("damping cannot be negative, got %v", cfg.Damping))
	}
	if cfg.RCond < 0 || cfg.RCond >= 1 {
		err = multierr.Append(err, errors.Errorf("rcond must be in [0, 1), got %v", cfg.RCond))
	}
	if cfg.MaxIterations < 1 {
		err = multierr.Append(err, errors.Errorf("max_iterations must be at least 1, got %d", cfg.MaxIterations))
	}
	if cfg.OrientationWeight < 0 {
		err = multierr.Append(err, errors.Errorf("orientation_weight cannot be negative, got %v", cfg.OrientationWeight))
	}
	return err
}

func (cfg SolverConfig) jacobianOptions() JacobianOptions {
	return JacobianOptions{
		Epsilon:  cfg.Epsilon,
		Central:  cfg.CentralDifference,
		Parallel: cfg.ParallelJacobian,
	}
}
