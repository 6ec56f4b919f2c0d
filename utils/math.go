// Package utils contains small numeric and concurrency helpers shared by the solver packages.
package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// DegsToRads converts every element of degrees to radians.
func DegsToRads(degrees []float64) []float64 {
	rads := make([]float64, len(degrees))
	for i, d := range degrees {
		rads[i] = DegToRad(d)
	}
	return rads
}

// RadsToDegs converts every element of radians to degrees.
func RadsToDegs(radians []float64) []float64 {
	degs := make([]float64, len(radians))
	for i, r := range radians {
		degs[i] = RadToDeg(r)
	}
	return degs
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Square is faster than math.Pow(n, 2).
func Square(n float64) float64 {
	return n * n
}

// MaxInt returns the larger of two ints.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MaxAbs returns the largest absolute value in values, or 0 for an empty slice.
func MaxAbs(values []float64) float64 {
	largest := 0.
	for _, v := range values {
		if a := math.Abs(v); a > largest {
			largest = a
		}
	}
	return largest
}

// IsFinite returns false for NaN and +/-Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
