package plugin

import (
	"github.com/cwbudde/algo-duck/dsp/core"
	"github.com/cwbudde/algo-duck/dsp/dynamics"
	"github.com/sirupsen/logrus"
)

type options struct {
	processor       core.ProcessorConfig
	strategy        dynamics.DetectorStrategy
	mapping         dynamics.MappingPolicy
	mappingSet      bool
	clamp           bool
	rmsTimeConstant float64
	logger          logrus.FieldLogger
}

// Option configures a DuckComp at construction.
type Option func(*options)

func defaultOptions() options {
	return options{
		processor:       core.DefaultProcessorConfig(),
		strategy:        dynamics.StrategyFeedforwardRMS,
		rmsTimeConstant: dynamics.DefaultRMSTimeConstant,
		logger:          logrus.StandardLogger(),
	}
}

// WithProcessorOptions applies sample rate and block size options.
// Non-positive values are ignored; use SetSampleRate for validated changes.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(o *options) {
		for _, opt := range opts {
			if opt != nil {
				opt(&o.processor)
			}
		}
	}
}

// WithStrategy selects the detector strategy. Unless WithMapping is given,
// the strategy's own mapping policy is used.
func WithStrategy(s dynamics.DetectorStrategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithMapping overrides the parameter mapping policy.
func WithMapping(m dynamics.MappingPolicy) Option {
	return func(o *options) {
		o.mapping = m
		o.mappingSet = true
	}
}

// WithClampedGainReduction floors the feedforward gain-reduction state at 0.
func WithClampedGainReduction(enable bool) Option {
	return func(o *options) { o.clamp = enable }
}

// WithRMSTimeConstant sets the RMS detector smoothing time in seconds.
func WithRMSTimeConstant(seconds float64) Option {
	return func(o *options) { o.rmsTimeConstant = seconds }
}

// WithLogger sets the logger used for lifecycle and configuration events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func (o options) mappingPolicy() dynamics.MappingPolicy {
	if o.mappingSet {
		return o.mapping
	}

	return o.strategy.Mapping()
}

func (o options) duckerOptions() []dynamics.Option {
	return []dynamics.Option{
		dynamics.WithSampleRate(o.processor.SampleRate),
		dynamics.WithBlockSize(o.processor.BlockSize),
		dynamics.WithStrategy(o.strategy),
		dynamics.WithRMSTimeConstant(o.rmsTimeConstant),
		dynamics.WithClampedGainReduction(o.clamp),
	}
}
