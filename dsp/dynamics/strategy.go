package dynamics

import (
	"fmt"
	"strings"
)

// DetectorStrategy selects the detector topology and gain law.
type DetectorStrategy int

const (
	// StrategyFeedforwardRMS detects from the RMS of the input and maps the
	// gain-reduction state through a sigmoid curve.
	StrategyFeedforwardRMS DetectorStrategy = iota
	// StrategyFeedbackRectified detects from the rectified, gain-reduced
	// output and applies a linear gain law.
	StrategyFeedbackRectified
)

func (s DetectorStrategy) String() string {
	switch s {
	case StrategyFeedforwardRMS:
		return "feedforward-rms"
	case StrategyFeedbackRectified:
		return "feedback-rectified"
	default:
		return fmt.Sprintf("DetectorStrategy(%d)", int(s))
	}
}

// Mapping returns the parameter mapping policy the strategy was designed for.
func (s DetectorStrategy) Mapping() MappingPolicy {
	if s == StrategyFeedbackRectified {
		return MappingRaw
	}

	return MappingTimed
}

func (s DetectorStrategy) valid() bool {
	return s == StrategyFeedforwardRMS || s == StrategyFeedbackRectified
}

// ParseStrategy resolves a strategy name as printed by String.
// The short aliases "a"/"feedforward" and "b"/"feedback" are accepted too.
func ParseStrategy(name string) (DetectorStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a", "feedforward", "feedforward-rms", "rms":
		return StrategyFeedforwardRMS, nil
	case "b", "feedback", "feedback-rectified", "rectified":
		return StrategyFeedbackRectified, nil
	default:
		return 0, fmt.Errorf("unknown detector strategy: %q", name)
	}
}
