package dynamics

import (
	"math"

	"github.com/cwbudde/algo-duck/dsp/core"
)

const (
	feedbackSidechainScale = 50.0
	feedbackRectifyFloor   = 0.1
	feedbackRateDivisor    = 100.0
	feedbackOutputScale    = 4.0
)

// feedbackRectified is the output-detecting, linear-gain variant.
type feedbackRectified struct {
	q float64
}

func (f *feedbackRectified) reset() {
	f.q = 0
}

// step processes one frame and returns the stage gain and output scale.
// The detector listens to the frame after gain has been applied.
func (f *feedbackRectified) step(left, right float64, p *Values) (gain, scale float64) {
	gain = linearGain(f.q)

	reduced := 0.5 * (left*gain + right*gain)
	sidechain := core.Rectify(feedbackSidechainScale*p.Threshold*reduced, feedbackRectifyFloor)

	f.q += (p.Attack*sidechain - (p.Attack+p.Release)*f.q) / feedbackRateDivisor
	f.q = math.Max(f.q, 0)

	return gain, feedbackOutputScale * p.Makeup
}

func linearGain(q float64) float64 {
	return math.Max(0, 1-q)
}
