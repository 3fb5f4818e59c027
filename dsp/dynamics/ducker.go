package dynamics

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-duck/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// DefaultRMSTimeConstant is the RMS detector smoothing time in seconds.
	DefaultRMSTimeConstant = 0.010

	maxBlockSize = 1 << 16
)

var errNilParams = errors.New("dynamics: parameter set must not be nil")

// Config holds the construction-time settings of a Ducker. It is immutable
// once the Ducker exists; build a new Ducker to change it.
type Config struct {
	core.ProcessorConfig

	// RMSTimeConstant is the detector smoothing time in seconds
	// (feedforward only). It is independent of attack and release.
	RMSTimeConstant float64
	Strategy        DetectorStrategy
	// ClampGainReduction floors the feedforward gain-reduction state at 0.
	// The feedback strategy is always clamped.
	ClampGainReduction bool
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the feedforward configuration at the default rate.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		RMSTimeConstant: DefaultRMSTimeConstant,
		Strategy:        StrategyFeedforwardRMS,
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(c *Config) { c.SampleRate = sampleRate }
}

// WithBlockSize sets the scratch size used by ProcessStereoInPlace.
func WithBlockSize(blockSize int) Option {
	return func(c *Config) { c.BlockSize = blockSize }
}

// WithRMSTimeConstant sets the RMS detector time constant in seconds.
func WithRMSTimeConstant(seconds float64) Option {
	return func(c *Config) { c.RMSTimeConstant = seconds }
}

// WithStrategy selects the detector strategy.
func WithStrategy(s DetectorStrategy) Option {
	return func(c *Config) { c.Strategy = s }
}

// WithClampedGainReduction floors the feedforward gain-reduction state at 0.
func WithClampedGainReduction(enable bool) Option {
	return func(c *Config) { c.ClampGainReduction = enable }
}

// DetectorState is the continuously evolving detector memory.
type DetectorState struct {
	// RMSFilterState is the smoothed mean square (feedforward only).
	RMSFilterState float64
	// GainReduction is the integrator state Q that drives the gain curve.
	GainReduction float64
}

// Metrics holds metering information since the last reset.
type Metrics struct {
	InputPeak  float64 // Maximum input level
	OutputPeak float64 // Maximum output level
	MinGain    float64 // Minimum stage gain, excluding make-up
}

// Ducker is the stereo envelope follower and gain stage.
//
// Process calls must be serialized. The parameter set it reads may be
// written from other goroutines.
type Ducker struct {
	cfg    Config
	params *ParameterSet

	ff feedforwardRMS
	fb feedbackRectified

	gain    float64
	gains   []float64
	metrics Metrics
}

// NewDucker creates a Ducker reading its controls from params.
func NewDucker(params *ParameterSet, opts ...Option) (*Ducker, error) {
	if params == nil {
		return nil, errNilParams
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	err := cfg.validate()
	if err != nil {
		return nil, err
	}

	d := &Ducker{
		cfg:    cfg,
		params: params,
		gains:  make([]float64, cfg.BlockSize),
	}

	d.ff.coeff = 1 / (cfg.RMSTimeConstant * cfg.SampleRate)
	d.ff.sampleRate = cfg.SampleRate
	d.ff.clamp = cfg.ClampGainReduction

	d.Reset()

	return d, nil
}

func (c Config) validate() error {
	if c.SampleRate <= 0 || !isFinite(c.SampleRate) {
		return fmt.Errorf("ducker sample rate must be positive and finite: %f", c.SampleRate)
	}

	if c.BlockSize <= 0 || c.BlockSize > maxBlockSize {
		return fmt.Errorf("ducker block size must be in [1, %d]: %d", maxBlockSize, c.BlockSize)
	}

	if !isFinite(c.RMSTimeConstant) || c.RMSTimeConstant*c.SampleRate < 1 {
		return fmt.Errorf("rms time constant must span at least one sample: %f s at %f Hz",
			c.RMSTimeConstant, c.SampleRate)
	}

	if !c.Strategy.valid() {
		return fmt.Errorf("invalid detector strategy: %d", c.Strategy)
	}

	return nil
}

func isFinite(v float64) bool {
	return !(math.IsNaN(v) || math.IsInf(v, 0))
}

// Config returns the construction-time configuration.
func (d *Ducker) Config() Config { return d.cfg }

// SampleRate returns the sample rate in Hz.
func (d *Ducker) SampleRate() float64 { return d.cfg.SampleRate }

// Strategy returns the detector strategy.
func (d *Ducker) Strategy() DetectorStrategy { return d.cfg.Strategy }

// Params returns the parameter set the Ducker reads.
func (d *Ducker) Params() *ParameterSet { return d.params }

// Gain returns the stage gain of the most recent frame, before make-up.
func (d *Ducker) Gain() float64 { return d.gain }

// State returns a copy of the detector state.
func (d *Ducker) State() DetectorState {
	if d.cfg.Strategy == StrategyFeedbackRectified {
		return DetectorState{GainReduction: d.fb.q}
	}

	return DetectorState{RMSFilterState: d.ff.rms, GainReduction: d.ff.q}
}

// Reset zeroes the detector state and metrics. Steady-state behaviour is
// unchanged; the next frame behaves like the first after construction.
func (d *Ducker) Reset() {
	d.ff.reset()
	d.fb.reset()
	d.gain = d.GainForReduction(0)
	d.ResetMetrics()
}

// Metrics returns current metering values.
func (d *Ducker) Metrics() Metrics { return d.metrics }

// ResetMetrics clears metering state.
func (d *Ducker) ResetMetrics() {
	d.metrics = Metrics{MinGain: math.Inf(1)}
}

// GainForReduction evaluates the static gain curve at gain-reduction q with
// the current parameters. It does not touch detector state.
func (d *Ducker) GainForReduction(q float64) float64 {
	if d.cfg.Strategy == StrategyFeedbackRectified {
		return linearGain(q)
	}

	p := d.params.Snapshot()

	return feedforwardGain(q, p.Ratio, p.Range)
}

// step advances the detector by one frame and returns the total multiplier
// applied to both channels.
func (d *Ducker) step(left, right float64) float64 {
	p := d.params.Snapshot()

	var gain, scale float64
	if d.cfg.Strategy == StrategyFeedbackRectified {
		gain, scale = d.fb.step(left, right, &p)
	} else {
		gain, scale = d.ff.step(left, right, &p)
	}

	d.gain = gain
	total := gain * scale

	in := math.Max(math.Abs(left), math.Abs(right))
	if in > d.metrics.InputPeak {
		d.metrics.InputPeak = in
	}

	if out := in * math.Abs(total); out > d.metrics.OutputPeak {
		d.metrics.OutputPeak = out
	}

	if gain < d.metrics.MinGain {
		d.metrics.MinGain = gain
	}

	return total
}

// ProcessFrame processes one stereo frame.
func (d *Ducker) ProcessFrame(left, right float64) (float64, float64) {
	total := d.step(left, right)
	return left * total, right * total
}

// ComputeGains advances the detector over a block and writes the total
// per-frame multiplier into gains. The inputs are not modified. Only the
// common length of the three slices is processed.
func (d *Ducker) ComputeGains(left, right, gains []float64) int {
	n := min(len(left), len(right), len(gains))
	for i := range n {
		gains[i] = d.step(left[i], right[i])
	}

	return n
}

// ProcessStereoInPlace processes a block of stereo frames in place.
// Blocks longer than the configured block size are processed in chunks.
func (d *Ducker) ProcessStereoInPlace(left, right []float64) {
	n := min(len(left), len(right))
	for start := 0; start < n; start += len(d.gains) {
		end := min(start+len(d.gains), n)
		l, r := left[start:end], right[start:end]
		gains := d.gains[:end-start]

		d.ComputeGains(l, r, gains)
		vecmath.MulBlockInPlace(l, gains)
		vecmath.MulBlockInPlace(r, gains)
	}
}
