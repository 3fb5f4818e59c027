package main

import (
	"fmt"

	"github.com/cwbudde/algo-duck/dsp/dynamics"
	"github.com/cwbudde/algo-duck/internal/preset"
	"github.com/cwbudde/algo-duck/plugin"
	"github.com/sirupsen/logrus"
)

// ProcessorFlags select the processor a command works on.
type ProcessorFlags struct {
	Preset   string `short:"p" type:"existingfile" help:"TOML preset to load"`
	Strategy string `short:"s" help:"Detector strategy (feedforward-rms, feedback-rectified); overrides the preset"`
}

// load returns the preset named by the flags, or an empty one.
func (f ProcessorFlags) load() (preset.Preset, error) {
	var p preset.Preset

	if f.Preset != "" {
		var err error

		p, err = preset.Load(f.Preset)
		if err != nil {
			return preset.Preset{}, err
		}
	}

	if f.Strategy != "" {
		_, err := dynamics.ParseStrategy(f.Strategy)
		if err != nil {
			return preset.Preset{}, err
		}

		p.Strategy = f.Strategy
	}

	return p, nil
}

// build creates a plugin with the selected preset applied.
func (f ProcessorFlags) build(log *logrus.Logger) (*plugin.DuckComp, preset.Preset, error) {
	p, err := f.load()
	if err != nil {
		return nil, preset.Preset{}, err
	}

	c, err := p.New(plugin.WithLogger(log))
	if err != nil {
		return nil, preset.Preset{}, fmt.Errorf("build processor: %w", err)
	}

	return c, p, nil
}
