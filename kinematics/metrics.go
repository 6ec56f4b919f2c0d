package kinematics

import (
	"go.viam.com/ikchain/spatialmath"
)

// Metric measures how far apart two poses are.
type Metric interface {
	Distance(from, to spatialmath.Pose) float64
}

type flexibleMetric struct {
	f func(spatialmath.Pose, spatialmath.Pose) float64
}

func (m *flexibleMetric) Distance(from, to spatialmath.Pose) float64 {
	return m.f(from, to)
}

// NewBasicMetric wraps a distance function.
func NewBasicMetric(f func(spatialmath.Pose, spatialmath.Pose) float64) Metric {
	return &flexibleMetric{f}
}

// NewPositionOnlyMetric returns the squared euclidean distance between the two points and ignores
// orientation.
func NewPositionOnlyMetric() Metric {
	return &flexibleMetric{func(from, to spatialmath.Pose) float64 {
		return SquaredNorm(spatialmath.R3ToSlice(to.Point().Sub(from.Point())))
	}}
}

// NewSquaredNormMetric returns the squared norm of the pose delta, with the rotation vector part
// scaled by orientationWeight squared.
func NewSquaredNormMetric(orientationWeight float64) Metric {
	w := orientationWeight * orientationWeight
	weights := []float64{1, 1, 1, w, w, w}
	return &flexibleMetric{func(from, to spatialmath.Pose) float64 {
		return WeightedSquaredNorm(spatialmath.PoseDelta(from, to), weights)
	}}
}
