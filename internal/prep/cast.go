package prep

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CastFeatures returns a copy of x with every value truncated toward zero.
// The input is not modified.
func CastFeatures(x mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Trunc(v)
	}, x)
	return &out
}
