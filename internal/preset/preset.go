// Package preset loads Duck Comp settings from TOML files and applies them
// to a plugin instance.
//
// A preset stores host-side normalized values in [0, 1], exactly what a host
// would send through SetParameter:
//
//	name = "voice over music"
//	strategy = "feedforward-rms"
//	sample_rate = 48000
//
//	[parameters]
//	attack = 0.1
//	release = 0.35
//	threshold = 0.6
package preset

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cwbudde/algo-duck/dsp/core"
	"github.com/cwbudde/algo-duck/dsp/dynamics"
	"github.com/cwbudde/algo-duck/plugin"
)

// Preset is one stored plugin setting.
type Preset struct {
	Name               string             `toml:"name,omitempty"`
	Strategy           string             `toml:"strategy,omitempty"`
	SampleRate         float64            `toml:"sample_rate,omitempty"`
	BlockSize          int                `toml:"block_size,omitempty"`
	ClampGainReduction bool               `toml:"clamp_gain_reduction,omitempty"`
	Parameters         map[string]float64 `toml:"parameters,omitempty"`
}

var errNilPlugin = errors.New("preset: nil plugin")

// parameter keys as written in preset files
var paramKeys = map[string]dynamics.ParamID{
	"attack":    dynamics.ParamAttack,
	"release":   dynamics.ParamRelease,
	"threshold": dynamics.ParamThreshold,
	"ratio":     dynamics.ParamRatio,
	"makeup":    dynamics.ParamMakeup,
	"range":     dynamics.ParamRange,
}

// Keys returns the accepted parameter keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(paramKeys))
	for k := range paramKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Load reads and validates a preset file.
func Load(path string) (Preset, error) {
	var p Preset

	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Preset{}, fmt.Errorf("preset: decode %s: %w", path, err)
	}

	return p, check(md, p)
}

// Parse decodes and validates a preset from TOML text.
func Parse(data string) (Preset, error) {
	var p Preset

	md, err := toml.Decode(data, &p)
	if err != nil {
		return Preset{}, fmt.Errorf("preset: decode: %w", err)
	}

	return p, check(md, p)
}

func check(md toml.MetaData, p Preset) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return fmt.Errorf("preset: unknown keys: %s", strings.Join(keys, ", "))
	}

	return p.Validate()
}

// Validate checks the strategy name, the processor settings and every
// parameter key and value.
func (p Preset) Validate() error {
	_, err := dynamics.ParseStrategy(p.Strategy)
	if err != nil {
		return fmt.Errorf("preset: %w", err)
	}

	if p.SampleRate < 0 {
		return fmt.Errorf("preset sample rate must be >= 0: %f", p.SampleRate)
	}

	if p.BlockSize < 0 {
		return fmt.Errorf("preset block size must be >= 0: %d", p.BlockSize)
	}

	for key, v := range p.Parameters {
		if _, ok := paramKeys[key]; !ok {
			return fmt.Errorf("preset: unknown parameter %q", key)
		}

		if v < 0 || v > 1 {
			return fmt.Errorf("preset parameter %q must be in [0, 1]: %f", key, v)
		}
	}

	return nil
}

// Options returns the plugin construction options the preset implies.
// Zero sample rate and block size keep the plugin defaults.
func (p Preset) Options() ([]plugin.Option, error) {
	strategy, err := dynamics.ParseStrategy(p.Strategy)
	if err != nil {
		return nil, fmt.Errorf("preset: %w", err)
	}

	return []plugin.Option{
		plugin.WithStrategy(strategy),
		plugin.WithClampedGainReduction(p.ClampGainReduction),
		plugin.WithProcessorOptions(
			core.WithSampleRate(p.SampleRate),
			core.WithBlockSize(p.BlockSize),
		),
	}, nil
}

// Apply writes the preset's parameters into c through the host interface.
// Parameters the plugin's mapping does not expose are skipped and returned.
func (p Preset) Apply(c *plugin.DuckComp) ([]string, error) {
	if c == nil {
		return nil, errNilPlugin
	}

	err := p.Validate()
	if err != nil {
		return nil, err
	}

	var skipped []string

	for _, key := range Keys() {
		v, ok := p.Parameters[key]
		if !ok {
			continue
		}

		index := c.Params().Index(paramKeys[key])
		if index < 0 {
			skipped = append(skipped, key)
			continue
		}

		c.SetParameter(index, float32(v))
	}

	return skipped, nil
}

// Encode writes p as TOML.
func (p Preset) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// New builds a plugin configured by p with its parameters applied.
func (p Preset) New(opts ...plugin.Option) (*plugin.DuckComp, error) {
	presetOpts, err := p.Options()
	if err != nil {
		return nil, err
	}

	c, err := plugin.New(append(presetOpts, opts...)...)
	if err != nil {
		return nil, err
	}

	_, err = p.Apply(c)
	if err != nil {
		return nil, err
	}

	return c, nil
}
