// Package level accumulates level statistics of host-format audio blocks.
package level

import "math"

// Level holds the statistics of everything seen by a Meter.
//
//nolint:revive
type Level struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max |x|
	Peak_dB        float64
	PeakPos        int
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
}

// Meter accumulates Level statistics across blocks. Blocks split at any
// point give the same result as one block.
type Meter struct {
	n       int
	sum     float64
	sumSq   float64
	peak    float64
	peakPos int
}

// Update adds a block of samples.
func (m *Meter) Update(samples []float32) {
	for _, v := range samples {
		x := float64(v)

		m.sum += x
		m.sumSq += x * x

		if a := math.Abs(x); a > m.peak {
			m.peak = a
			m.peakPos = m.n
		}

		m.n++
	}
}

// Result computes the statistics of all samples so far.
func (m *Meter) Result() Level {
	if m.n == 0 {
		return Level{
			RMS_dB:         math.Inf(-1),
			Peak_dB:        math.Inf(-1),
			CrestFactor_dB: math.Inf(-1),
		}
	}

	nf := float64(m.n)
	rms := math.Sqrt(m.sumSq / nf)

	var crest float64
	if rms > 0 {
		crest = m.peak / rms
	}

	return Level{
		Length:         m.n,
		DC:             m.sum / nf,
		RMS:            rms,
		RMS_dB:         ampTodB(rms),
		Peak:           m.peak,
		Peak_dB:        ampTodB(m.peak),
		PeakPos:        m.peakPos,
		CrestFactor:    crest,
		CrestFactor_dB: ampTodB(crest),
	}
}

// Reset clears all accumulated data.
func (m *Meter) Reset() {
	*m = Meter{}
}

// Calculate is a one-shot Meter over signal.
func Calculate(signal []float32) Level {
	var m Meter
	m.Update(signal)

	return m.Result()
}

// Difference returns b minus a in dB of RMS, the level change a
// processor applied to a signal.
func Difference(a, b Level) float64 {
	return b.RMS_dB - a.RMS_dB
}

// ampTodB converts an amplitude value to decibels. Returns -Inf for zero.
func ampTodB(value float64) float64 {
	if value == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(value)
}
