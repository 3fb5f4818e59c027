//go:build fastmath

package dynamics

import (
	"github.com/meko-christian/algo-approx"
)

// approxMath reports whether the per-sample path uses approximations.
const approxMath = true

// sigmoidLimit bounds the exponent handed to the approximation; beyond it the
// logistic curve is already saturated in float64.
const sigmoidLimit = 40.0

// mathSqrt computes sqrt(x) using fast approximation.
func mathSqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}

	return approx.FastSqrt(x)
}

// sigmoid computes e^x/(1+e^x) using fast approximation.
func sigmoid(x float64) float64 {
	switch {
	case x > sigmoidLimit:
		return 1
	case x < -sigmoidLimit:
		return 0
	case x >= 0:
		return 1 / (1 + approx.FastExp(-x))
	default:
		e := approx.FastExp(x)
		return e / (1 + e)
	}
}
