package dynamics_test

import (
	"fmt"

	"github.com/cwbudde/algo-duck/dsp/dynamics"
)

// ExampleDucker demonstrates feedforward ducking of a loud stereo block.
func ExampleDucker() {
	params := dynamics.NewParameterSet(dynamics.MappingTimed)
	params.SetNormalized(2, 0.5) // threshold -20 dB
	params.SetNormalized(3, 0.1) // ratio ~10.9

	duck, err := dynamics.NewDucker(params, dynamics.WithSampleRate(48000))
	if err != nil {
		panic(err)
	}

	left := make([]float64, 4800)
	right := make([]float64, 4800)
	for i := range left {
		left[i], right[i] = 0.8, 0.8
	}

	duck.ProcessStereoInPlace(left, right)

	fmt.Println("strategy:", duck.Strategy())
	fmt.Println("reducing:", duck.State().GainReduction > 0)
	fmt.Println("attenuated:", left[len(left)-1] < 0.8)
	// Output:
	// strategy: feedforward-rms
	// reducing: true
	// attenuated: true
}

// ExampleParameterSet_Text shows the display strings of the default controls.
func ExampleParameterSet_Text() {
	params := dynamics.NewParameterSet(dynamics.MappingTimed)

	for i := range params.Count() {
		fmt.Printf("%s: %s\n", params.Name(i), params.Text(i))
	}
	// Output:
	// Attack: 30.00 ms
	// Release: 400.00 ms
	// Threshold: 0.00 dB
	// Ratio: 1:0.10
	// Make-up gain: 0.00 dB
	// Range: -Inf dB
}
