package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// R3ToSlice returns the components of v as [x, y, z].
func R3ToSlice(v r3.Vector) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
