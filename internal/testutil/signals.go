// Package testutil holds deterministic fixtures shared by package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Stereo is a planar two-channel float32 block, as a plugin host hands it over.
type Stereo [2][]float32

// NewStereo allocates a silent block of n frames.
func NewStereo(n int) Stereo {
	return Stereo{make([]float32, n), make([]float32, n)}
}

// StereoDC fills both channels with constant values.
func StereoDC(left, right float32, n int) Stereo {
	s := NewStereo(n)
	for i := range n {
		s[0][i], s[1][i] = left, right
	}
	return s
}

// StereoSine puts a sine on both channels, the right one scaled by balance.
func StereoSine(freqHz, sampleRate, amplitude, balance float64, n int) Stereo {
	s := NewStereo(n)
	for i, v := range DeterministicSine(freqHz, sampleRate, amplitude, n) {
		s[0][i] = float32(v)
		s[1][i] = float32(v * balance)
	}
	return s
}

// Clone returns a deep copy of s.
func (s Stereo) Clone() Stereo {
	return Stereo{append([]float32(nil), s[0]...), append([]float32(nil), s[1]...)}
}
