// Package plugin exposes the ducking compressor to a plugin host: parameter
// access by index, display strings, metadata and float32 block processing.
//
// Process, SetParameter and the parameter getters never fail and never
// allocate. Configuration calls (New, SetSampleRate, SetBlockSize) must not
// overlap Process; they validate, log and may allocate.
package plugin

import (
	"fmt"

	"github.com/cwbudde/algo-duck/dsp/core"
	"github.com/cwbudde/algo-duck/dsp/dynamics"
	"github.com/sirupsen/logrus"
)

// DuckComp is one plugin instance.
type DuckComp struct {
	opts   options
	log    logrus.FieldLogger
	params *dynamics.ParameterSet
	duck   *dynamics.Ducker

	// float64 scratch for one chunk of frames
	left  []float64
	right []float64
}

// New creates a DuckComp with construction-default parameters.
func New(opts ...Option) (*DuckComp, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	c := &DuckComp{
		opts:   o,
		log:    o.logger.WithField("plugin", Name),
		params: dynamics.NewParameterSet(o.mappingPolicy()),
	}

	err := c.rebuild(o)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"function": "New",
			"error":    err,
		}).Error("Duck Comp construction failed")

		return nil, fmt.Errorf("plugin: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"function":    "New",
		"strategy":    o.strategy.String(),
		"mapping":     c.params.Policy().String(),
		"sample_rate": o.processor.SampleRate,
		"block_size":  o.processor.BlockSize,
		"parameters":  c.params.Count(),
	}).Info("Duck Comp instance created")

	return c, nil
}

// rebuild replaces the Ducker and scratch buffers for o. Detector state is
// reset; parameter values are kept.
func (c *DuckComp) rebuild(o options) error {
	duck, err := dynamics.NewDucker(c.params, o.duckerOptions()...)
	if err != nil {
		return err
	}

	c.opts = o
	c.duck = duck
	c.left = core.EnsureLen(c.left, o.processor.BlockSize)
	c.right = core.EnsureLen(c.right, o.processor.BlockSize)

	return nil
}

// Info returns the metadata declared to hosts.
func (c *DuckComp) Info() Info {
	return Info{
		Name:       Name,
		Vendor:     Vendor,
		UniqueID:   UniqueID,
		Version:    Version,
		Inputs:     2,
		Outputs:    2,
		Parameters: c.params.Count(),
		Category:   CategoryEffect,
	}
}

// ParameterCount returns 6 for the timed mapping and 4 for the raw one.
func (c *DuckComp) ParameterCount() int { return c.params.Count() }

// Parameter returns the stored engineering value at index, 0 if unknown.
func (c *DuckComp) Parameter(index int) float32 { return c.params.Value(index) }

// SetParameter writes a normalized value. Unknown indices are ignored.
// Safe to call from a UI goroutine while Process runs.
func (c *DuckComp) SetParameter(index int, value float32) {
	c.params.SetNormalized(index, value)
}

// ParameterName returns the display name at index, "" if unknown.
func (c *DuckComp) ParameterName(index int) string { return c.params.Name(index) }

// ParameterText returns the formatted value at index, "" if unknown.
func (c *DuckComp) ParameterText(index int) string { return c.params.Text(index) }

// Params exposes the parameter set for engineering-unit access.
func (c *DuckComp) Params() *dynamics.ParameterSet { return c.params }

// Ducker exposes the processing stage for metering.
func (c *DuckComp) Ducker() *dynamics.Ducker { return c.duck }

// Strategy returns the detector strategy.
func (c *DuckComp) Strategy() dynamics.DetectorStrategy { return c.opts.strategy }

// SampleRate returns the current sample rate in Hz.
func (c *DuckComp) SampleRate() float64 { return c.opts.processor.SampleRate }

// BlockSize returns the scratch chunk size in frames.
func (c *DuckComp) BlockSize() int { return c.opts.processor.BlockSize }

// Process runs len frames from in to out, where len is the shortest of the
// four channel slices. out may alias in.
func (c *DuckComp) Process(in, out [2][]float32) {
	n := min(len(in[0]), len(in[1]), len(out[0]), len(out[1]))
	chunk := len(c.left)

	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		l := c.left[:end-start]
		r := c.right[:end-start]

		core.Widen(l, in[0][start:end])
		core.Widen(r, in[1][start:end])

		c.duck.ProcessStereoInPlace(l, r)

		core.Narrow(out[0][start:end], l)
		core.Narrow(out[1][start:end], r)
	}
}

// Reset clears the detector state without touching parameters.
func (c *DuckComp) Reset() {
	c.duck.Reset()
	c.log.WithField("function", "Reset").Debug("Detector state reset")
}

// SetSampleRate applies a host-supplied sample rate. The detector restarts
// from zero. On error the previous configuration stays active.
func (c *DuckComp) SetSampleRate(sampleRate float64) error {
	o := c.opts
	o.processor.SampleRate = sampleRate

	return c.reconfigure("SetSampleRate", o, logrus.Fields{
		"old_sample_rate": c.opts.processor.SampleRate,
		"new_sample_rate": sampleRate,
	})
}

// SetBlockSize sets the number of frames converted per scratch chunk.
// Host blocks of any length are still accepted by Process.
func (c *DuckComp) SetBlockSize(blockSize int) error {
	o := c.opts
	o.processor.BlockSize = blockSize

	return c.reconfigure("SetBlockSize", o, logrus.Fields{
		"old_block_size": c.opts.processor.BlockSize,
		"new_block_size": blockSize,
	})
}

func (c *DuckComp) reconfigure(function string, o options, fields logrus.Fields) error {
	entry := c.log.WithFields(fields).WithField("function", function)

	err := c.rebuild(o)
	if err != nil {
		entry.WithField("error", err).Error("Configuration rejected")
		return fmt.Errorf("plugin: %w", err)
	}

	entry.Info("Configuration applied")

	return nil
}
