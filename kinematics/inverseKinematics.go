// Package kinematics models serial chains of bones and rotational joints and solves their inverse
// kinematics numerically with a pseudo-inverse jacobian step.
package kinematics

import (
	"context"

	"github.com/golang/geo/r3"
)

// InverseKinematics is anything that can drive a model's end effector to a position.
type InverseKinematics interface {
	// Solve steps the model until its end effector is within the convergence threshold of target. It
	// returns the number of steps taken.
	Solve(ctx context.Context, target r3.Vector, timeStep float64) (int, error)
	// Model returns the model whose state the solver writes.
	Model() *Model
}

// SquaredNorm returns the dot product of a vector with itself.
func SquaredNorm(vec []float64) float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	return norm
}

// WeightedSquaredNorm returns the dot product of a vector with itself, applying the given weights to each piece.
func WeightedSquaredNorm(vec, weights []float64) float64 {
	norm := 0.0
	for i, v := range vec {
		norm += v * v * weights[i]
	}
	return norm
}
