package main

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-duck/dsp/core"
	"github.com/cwbudde/algo-duck/measure/level"
	"github.com/cwbudde/algo-duck/measure/thd"
)

// MeasureCmd drives the processor with a stereo sine and reports the
// settled state.
type MeasureCmd struct {
	ProcessorFlags

	Freq    float64 `default:"1000" help:"Test tone frequency in Hz"`
	Amp     float64 `default:"0.5" help:"Test tone amplitude (linear)"`
	Seconds float64 `default:"2" help:"Signal length in seconds"`
	Block   int     `default:"256" help:"Host block size in frames"`
	FFTSize int     `name:"fft-size" default:"8192" help:"FFT size for the THD analysis (power of two)"`
}

// Run implements the measure command.
func (cmd *MeasureCmd) Run(g *Globals) error {
	if cmd.Block <= 0 {
		return fmt.Errorf("block must be > 0: %d", cmd.Block)
	}

	c, _, err := cmd.build(g.Log)
	if err != nil {
		return err
	}

	sampleRate := c.SampleRate()
	frames := int(cmd.Seconds * sampleRate)

	if frames < cmd.FFTSize {
		return fmt.Errorf("signal of %d frames is shorter than the fft size %d", frames, cmd.FFTSize)
	}

	calc, err := thd.NewCalculator(thd.Config{
		SampleRate:      sampleRate,
		FFTSize:         cmd.FFTSize,
		FundamentalFreq: cmd.Freq,
	})
	if err != nil {
		return err
	}

	in := [2][]float32{make([]float32, cmd.Block), make([]float32, cmd.Block)}
	out := [2][]float32{make([]float32, cmd.Block), make([]float32, cmd.Block)}
	inTail := make([]float32, 0, frames)
	tail := make([]float32, 0, frames)

	step := 2 * math.Pi * cmd.Freq / sampleRate

	for start := 0; start < frames; start += cmd.Block {
		n := min(cmd.Block, frames-start)
		for i := range n {
			v := float32(cmd.Amp * math.Sin(step*float64(start+i)))
			in[0][i], in[1][i] = v, v
		}

		c.Process([2][]float32{in[0][:n], in[1][:n]}, [2][]float32{out[0][:n], out[1][:n]})
		inTail = append(inTail, in[0][:n]...)
		tail = append(tail, out[0][:n]...)
	}

	settledIn := inTail[len(inTail)-cmd.FFTSize:]
	settledOut := tail[len(tail)-cmd.FFTSize:]

	inLevel := level.Calculate(settledIn)
	outLevel := level.Calculate(settledOut)

	analysis := make([]float64, cmd.FFTSize)
	core.Widen(analysis, settledOut)

	res, err := calc.AnalyzeSignal(analysis)
	if err != nil {
		return err
	}

	d := c.Ducker()
	state := d.State()
	metrics := d.Metrics()

	PrintTitle(fmt.Sprintf("Measurement (%s, %.0f Hz)", d.Strategy(), sampleRate))
	PrintKV("test tone", fmt.Sprintf("%.1f Hz at %.2f dBFS", cmd.Freq, core.GainToDB(cmd.Amp)))
	PrintKV("settled gain", fmt.Sprintf("%.6f (%.2f dB)", d.Gain(), core.GainToDB(d.Gain())))
	PrintKV("gain reduction state", fmt.Sprintf("%.6f", state.GainReduction))
	PrintKV("rms filter state", fmt.Sprintf("%.6f", state.RMSFilterState))
	PrintKV("input peak", fmt.Sprintf("%.2f dB", core.GainToDB(metrics.InputPeak)))
	PrintKV("output peak", fmt.Sprintf("%.2f dB", core.GainToDB(metrics.OutputPeak)))
	PrintKV("settled input", fmt.Sprintf("%.2f dB RMS", inLevel.RMS_dB))
	PrintKV("settled output", fmt.Sprintf("%.2f dB RMS, crest %.2f dB", outLevel.RMS_dB, outLevel.CrestFactor_dB))
	PrintKV("level change", fmt.Sprintf("%.2f dB", level.Difference(inLevel, outLevel)))
	PrintKV("minimum gain", fmt.Sprintf("%.2f dB", core.GainToDB(metrics.MinGain)))
	PrintKV("THD", fmt.Sprintf("%.4f%% (%.1f dB)", res.THD*100, res.THD_dB))
	PrintKV("THD+N", fmt.Sprintf("%.4f%% (%.1f dB)", res.THDN*100, res.THDN_dB))

	return nil
}
