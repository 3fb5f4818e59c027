package core

import "math"

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// DBToGain converts dB to linear amplitude (20*log10 convention).
func DBToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// GainToDB converts linear amplitude to dB (20*log10 convention).
//
// The input is not guarded: zero yields -Inf and negative values yield NaN.
// Display code relies on this to show "-Inf dB" for a fully closed range.
func GainToDB(gain float64) float64 {
	return 20 * math.Log10(gain)
}

// Rectify returns |x| raised to at least floor.
// A positive floor keeps envelope followers from stalling on digital silence.
func Rectify(x, floor float64) float64 {
	return math.Max(math.Abs(x), floor)
}

// Sigmoid is the logistic function e^x/(1+e^x).
//
// It is evaluated in the branch that cannot overflow, so large |x| saturates
// to exactly 0 or 1 instead of producing NaN.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}

	e := math.Exp(x)

	return e / (1 + e)
}
