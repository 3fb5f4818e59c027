package dynamics

import "math"

// feedforwardRMS is the RMS-detecting, sigmoid-curve variant.
type feedforwardRMS struct {
	// rms is the one-pole smoothed mean square of the mono sidechain.
	rms float64
	// q is the gain-reduction state. Unclamped unless clamp is set.
	q float64

	coeff      float64
	sampleRate float64
	clamp      bool
}

func (f *feedforwardRMS) reset() {
	f.rms = 0
	f.q = 0
}

// overshoot updates the RMS detector and returns how far the detected level
// sits above threshold, as a ratio minus one.
func (f *feedforwardRMS) overshoot(mono, threshold float64) float64 {
	f.rms = mono*mono*f.coeff + f.rms*(1-f.coeff)
	return math.Max(0, mathSqrt(f.rms)/threshold-1)
}

// integrate advances q: it rises toward the sidechain at 1/attack and
// always leaks toward zero at 1/release.
func (f *feedforwardRMS) integrate(sidechain, attack, release float64) {
	rise := 0.0
	if sidechain > f.q {
		rise = (sidechain - f.q) / attack
	}

	f.q += (rise - f.q/release) / f.sampleRate

	if f.clamp && f.q < 0 {
		f.q = 0
	}
}

// step processes one frame and returns the stage gain and output scale.
func (f *feedforwardRMS) step(left, right float64, p *Values) (gain, scale float64) {
	sidechain := f.overshoot(0.5*(left+right), p.Threshold)
	f.integrate(sidechain, p.Attack, p.Release)

	return feedforwardGain(f.q, p.Ratio, p.Range), p.Makeup
}

// feedforwardGain maps q to 1-(1-floor)*sigmoid(ratio*(q-0.5)). The result
// approaches 1 for small q and floor for large q.
func feedforwardGain(q, ratio, floor float64) float64 {
	return 1 - (1-floor)*sigmoid(ratio*(q-0.5))
}
