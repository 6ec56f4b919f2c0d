package kinematics

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// State holds one slice of values per joint in chain order, each sized to that joint's DoF. Bones
// hold an empty slice.
type State [][]float64

// ZeroState returns an all-zero state shaped for the given joints.
func ZeroState(joints []Joint) State {
	return lo.Map(joints, func(j Joint, _ int) []float64 {
		return make([]float64, j.DoF())
	})
}

// Copy returns a deep copy of the state.
func (s State) Copy() State {
	out := make(State, len(s))
	for i, v := range s {
		out[i] = append(make([]float64, 0, len(v)), v...)
	}
	return out
}

// Flatten returns every scalar in chain order.
func (s State) Flatten() []float64 {
	return lo.Flatten([][]float64(s))
}

// DoF returns the number of scalars in the state.
func (s State) DoF() int {
	return lo.SumBy(s, func(v []float64) int { return len(v) })
}

// checkShape returns an ErrShapeMismatch error when s does not fit joints.
func (s State) checkShape(joints []Joint) error {
	if len(s) != len(joints) {
		return NewShapeMismatchError("state", len(s), len(joints))
	}
	for i, j := range joints {
		if len(s[i]) != j.DoF() {
			return NewShapeMismatchError(fmt.Sprintf("state entry %d (%s joint %q)", i, j.Kind, j.Name), len(s[i]), j.DoF())
		}
	}
	return nil
}

// StateFromFlat splits flat into a State shaped for joints.
func StateFromFlat(joints []Joint, flat []float64) (State, error) {
	n := lo.SumBy(joints, func(j Joint) int { return j.DoF() })
	if len(flat) != n {
		return nil, NewShapeMismatchError("flat state", len(flat), n)
	}
	out := make(State, len(joints))
	idx := 0
	for i, j := range joints {
		out[i] = append(make([]float64, 0, j.DoF()), flat[idx:idx+j.DoF()]...)
		idx += j.DoF()
	}
	return out, nil
}

// MaxAbsDiff returns the largest absolute elementwise difference between two states of the same
// shape.
func MaxAbsDiff(a, b State) (float64, error) {
	if len(a) != len(b) {
		return 0, NewShapeMismatchError("state", len(b), len(a))
	}
	diff := 0.
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return 0, NewShapeMismatchError(fmt.Sprintf("state entry %d", i), len(b[i]), len(a[i]))
		}
		for j := range a[i] {
			diff = math.Max(diff, math.Abs(a[i][j]-b[i][j]))
		}
	}
	return diff, nil
}

// addFlat adds scale*(delta[k]+extra[k]) to the k-th scalar. extra may be nil.
func (s State) addFlat(scale float64, delta, extra []float64) {
	k := 0
	for i := range s {
		for j := range s[i] {
			d := delta[k]
			if extra != nil {
				d += extra[k]
			}
			s[i][j] += scale * d
			k++
		}
	}
}
