package kinematics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PseudoInverse returns the Moore-Penrose pseudo-inverse of j computed from a thin SVD. Singular
// values at or below rcond times the largest one are treated as zero. With damping > 0 each kept
// singular value s is inverted as s/(s^2+damping^2), which is damped least squares.
// An ill-conditioned or rank-deficient j is not an error; a non-finite one is.
func PseudoInverse(j mat.Matrix, damping, rcond float64) (*mat.Dense, error) {
	r, c := j.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}, nil
	}
	for row := 0; row < r; row++ {
		for col := 0; col < c; col++ {
			if v := j.At(row, col); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Errorf("cannot invert matrix with non-finite entry %v at (%d, %d)", v, row, col)
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(j, mat.SVDThin); !ok {
		return nil, errors.New("singular value decomposition failed")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// values are sorted in decreasing order
	cutoff := rcond * values[0]
	inv := mat.NewDense(c, r, nil)
	for i, s := range values {
		if s <= cutoff || s == 0 {
			break
		}
		scale := s / (s*s + damping*damping)
		var outer mat.Dense
		outer.Outer(scale, v.ColView(i), u.ColView(i))
		inv.Add(inv, &outer)
	}
	return inv, nil
}
