//go:build !fastmath

package dynamics

import (
	"math"

	"github.com/cwbudde/algo-duck/dsp/core"
)

// approxMath reports whether the per-sample path uses approximations.
const approxMath = false

// mathSqrt computes sqrt(x) using standard library math.
func mathSqrt(x float64) float64 {
	return math.Sqrt(x)
}

// sigmoid computes e^x/(1+e^x) using standard library math.
func sigmoid(x float64) float64 {
	return core.Sigmoid(x)
}
