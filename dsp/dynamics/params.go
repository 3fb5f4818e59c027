package dynamics

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-duck/dsp/core"
)

// Construction defaults in engineering units.
const (
	DefaultAttack    = 0.03
	DefaultRelease   = 0.4
	DefaultThreshold = 1.0
	DefaultRatio     = 0.1
	DefaultMakeup    = 1.0
	DefaultRange     = 0.0
)

// Mapping curve bounds for the timed policy.
const (
	minAttackSeconds  = 0.005
	maxAttackSeconds  = 0.300
	minReleaseSeconds = 0.010
	maxReleaseSeconds = 1.0
	minMakeupDB       = -12.0
	maxMakeupDB       = 20.0
	rangeSpanDB       = 60.0
	maxRatio          = 100.0
)

// MappingPolicy selects how normalized host values become engineering values
// and which parameters are exposed.
type MappingPolicy int

const (
	// MappingTimed exposes six parameters; attack and release map to seconds.
	MappingTimed MappingPolicy = iota
	// MappingRaw exposes four parameters; attack and release pass through
	// as unitless rates.
	MappingRaw
)

func (m MappingPolicy) String() string {
	switch m {
	case MappingTimed:
		return "timed"
	case MappingRaw:
		return "raw"
	default:
		return fmt.Sprintf("MappingPolicy(%d)", int(m))
	}
}

// ParamID identifies a parameter independently of its host index.
type ParamID int

const (
	ParamAttack ParamID = iota
	ParamRelease
	ParamThreshold
	ParamRatio
	ParamMakeup
	ParamRange
)

var (
	timedLayout = []ParamID{ParamAttack, ParamRelease, ParamThreshold, ParamRatio, ParamMakeup, ParamRange}
	rawLayout   = []ParamID{ParamAttack, ParamRelease, ParamThreshold, ParamMakeup}
)

var paramNames = [...]string{
	ParamAttack:    "Attack",
	ParamRelease:   "Release",
	ParamThreshold: "Threshold",
	ParamRatio:     "Ratio",
	ParamMakeup:    "Make-up gain",
	ParamRange:     "Range",
}

func (id ParamID) String() string {
	if id < 0 || int(id) >= len(paramNames) {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}

	return paramNames[id]
}

// atomicFloat32 stores a float32 as its bit pattern so single-field reads
// and writes are never torn.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (f *atomicFloat32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *atomicFloat32) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}

// Values is a per-frame snapshot of the engineering parameter values.
// Fields are loaded one by one; no cross-field consistency is implied.
type Values struct {
	Attack    float64
	Release   float64
	Threshold float64
	Ratio     float64
	Makeup    float64
	Range     float64
}

// ParameterSet holds the user controls in engineering units.
//
// All methods are safe to call concurrently with Snapshot. Writers on
// different goroutines racing on the same field resolve last-write-wins.
type ParameterSet struct {
	policy MappingPolicy
	layout []ParamID

	attack    atomicFloat32
	release   atomicFloat32
	threshold atomicFloat32
	ratio     atomicFloat32
	makeup    atomicFloat32
	rng       atomicFloat32
}

// NewParameterSet returns a parameter set with construction defaults.
// Unknown policies fall back to MappingTimed.
func NewParameterSet(policy MappingPolicy) *ParameterSet {
	p := &ParameterSet{policy: policy, layout: timedLayout}
	if policy == MappingRaw {
		p.layout = rawLayout
	} else {
		p.policy = MappingTimed
	}

	p.attack.Store(DefaultAttack)
	p.release.Store(DefaultRelease)
	p.threshold.Store(DefaultThreshold)
	p.ratio.Store(DefaultRatio)
	p.makeup.Store(DefaultMakeup)
	p.rng.Store(DefaultRange)

	return p
}

// Policy returns the mapping policy fixed at construction.
func (p *ParameterSet) Policy() MappingPolicy { return p.policy }

// Count returns the number of host-visible parameters.
func (p *ParameterSet) Count() int { return len(p.layout) }

// ID resolves a host index to its parameter.
func (p *ParameterSet) ID(index int) (ParamID, bool) {
	if index < 0 || index >= len(p.layout) {
		return 0, false
	}

	return p.layout[index], true
}

// Index returns the host index of id, or -1 when the policy does not expose it.
func (p *ParameterSet) Index(id ParamID) int {
	for i, v := range p.layout {
		if v == id {
			return i
		}
	}

	return -1
}

// SetNormalized maps a normalized host value onto the parameter at index.
// Values outside [0, 1] are not clamped. Unknown indices are ignored.
func (p *ParameterSet) SetNormalized(index int, value float32) {
	id, ok := p.ID(index)
	if !ok {
		return
	}

	v := float64(value)

	switch id {
	case ParamAttack:
		if p.policy == MappingRaw {
			p.attack.Store(value)
			return
		}
		p.attack.Store(float32(minAttackSeconds + v*(maxAttackSeconds-minAttackSeconds)))
	case ParamRelease:
		if p.policy == MappingRaw {
			p.release.Store(value)
			return
		}
		p.release.Store(float32(minReleaseSeconds + v*(maxReleaseSeconds-minReleaseSeconds)))
	case ParamThreshold:
		p.threshold.Store(float32(math.Pow(10, 2*(v-1))))
	case ParamRatio:
		p.ratio.Store(float32(v*(maxRatio-1) + 1))
	case ParamMakeup:
		p.makeup.Store(float32(core.DBToGain(minMakeupDB + v*(maxMakeupDB-minMakeupDB))))
	case ParamRange:
		p.rng.Store(float32(core.DBToGain((v - 1) * rangeSpanDB)))
	}
}

// Value returns the stored engineering value at index, or 0 for unknown
// indices. It is not the inverse of SetNormalized.
func (p *ParameterSet) Value(index int) float32 {
	id, ok := p.ID(index)
	if !ok {
		return 0
	}

	return p.load(id)
}

// Name returns the display name at index, or "" for unknown indices.
func (p *ParameterSet) Name(index int) string {
	id, ok := p.ID(index)
	if !ok {
		return ""
	}

	return id.String()
}

// Text formats the engineering value at index with its unit.
// Display only; nothing in the signal path parses it back.
func (p *ParameterSet) Text(index int) string {
	id, ok := p.ID(index)
	if !ok {
		return ""
	}

	v := float64(p.load(id))

	switch id {
	case ParamAttack, ParamRelease:
		if p.policy == MappingRaw {
			return fmt.Sprintf("%.2f", v)
		}
		return fmt.Sprintf("%.2f ms", v*1000)
	case ParamRatio:
		return fmt.Sprintf("1:%.2f", v)
	default:
		return fmt.Sprintf("%.2f dB", core.GainToDB(v))
	}
}

func (p *ParameterSet) load(id ParamID) float32 {
	switch id {
	case ParamAttack:
		return p.attack.Load()
	case ParamRelease:
		return p.release.Load()
	case ParamThreshold:
		return p.threshold.Load()
	case ParamRatio:
		return p.ratio.Load()
	case ParamMakeup:
		return p.makeup.Load()
	case ParamRange:
		return p.rng.Load()
	default:
		return 0
	}
}

// Snapshot loads every field for one frame of processing.
func (p *ParameterSet) Snapshot() Values {
	return Values{
		Attack:    float64(p.attack.Load()),
		Release:   float64(p.release.Load()),
		Threshold: float64(p.threshold.Load()),
		Ratio:     float64(p.ratio.Load()),
		Makeup:    float64(p.makeup.Load()),
		Range:     float64(p.rng.Load()),
	}
}

// SetAttack stores the attack in engineering units (seconds, or a raw rate).
func (p *ParameterSet) SetAttack(v float64) { p.attack.Store(float32(v)) }

// SetRelease stores the release in engineering units.
func (p *ParameterSet) SetRelease(v float64) { p.release.Store(float32(v)) }

// SetThreshold stores the threshold as linear amplitude.
func (p *ParameterSet) SetThreshold(v float64) { p.threshold.Store(float32(v)) }

// SetRatio stores the gain-curve steepness.
func (p *ParameterSet) SetRatio(v float64) { p.ratio.Store(float32(v)) }

// SetMakeup stores the make-up gain as a linear factor.
func (p *ParameterSet) SetMakeup(v float64) { p.makeup.Store(float32(v)) }

// SetRange stores the attenuation floor as a linear factor.
func (p *ParameterSet) SetRange(v float64) { p.rng.Store(float32(v)) }

func (p *ParameterSet) Attack() float64    { return float64(p.attack.Load()) }
func (p *ParameterSet) Release() float64   { return float64(p.release.Load()) }
func (p *ParameterSet) Threshold() float64 { return float64(p.threshold.Load()) }
func (p *ParameterSet) Ratio() float64     { return float64(p.ratio.Load()) }
func (p *ParameterSet) Makeup() float64    { return float64(p.makeup.Load()) }
func (p *ParameterSet) Range() float64     { return float64(p.rng.Load()) }
