package playback

import "math"

// ToneBursts is a sine that alternates between a loud and a quiet level,
// the simplest input on which ducking is audible.
type ToneBursts struct {
	Freq       float64 // Hz
	SampleRate float64
	Loud       float64 // linear amplitude during a burst
	Quiet      float64 // linear amplitude between bursts
	Burst      float64 // seconds
	Period     float64 // seconds, burst start to burst start

	phase float64
	t     int64
}

// Fill implements Source.
func (g *ToneBursts) Fill(block [2][]float32) {
	step := 2 * math.Pi * g.Freq / g.SampleRate
	burst := int64(g.Burst * g.SampleRate)
	period := max(int64(g.Period*g.SampleRate), 1)

	n := min(len(block[0]), len(block[1]))
	for i := range n {
		amp := g.Quiet
		if g.t%period < burst {
			amp = g.Loud
		}

		v := float32(amp * math.Sin(g.phase))
		block[0][i], block[1][i] = v, v

		g.phase += step
		if g.phase >= 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
		g.t++
	}
}
