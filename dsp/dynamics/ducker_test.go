package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-duck/internal/testutil"
)

// curveTolerance absorbs the error of the fastmath build.
func curveTolerance() float64 {
	if approxMath {
		return 1e-3
	}

	return 1e-12
}

func newTestDucker(t *testing.T, p *ParameterSet, opts ...Option) *Ducker {
	t.Helper()

	d, err := NewDucker(p, opts...)
	if err != nil {
		t.Fatalf("NewDucker() error = %v", err)
	}

	return d
}

func TestNewDucker(t *testing.T) {
	p := NewParameterSet(MappingTimed)

	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{"defaults", nil, false},
		{"valid 48000", []Option{WithSampleRate(48000)}, false},
		{"valid feedback", []Option{WithStrategy(StrategyFeedbackRectified)}, false},
		{"invalid zero rate", []Option{WithSampleRate(0)}, true},
		{"invalid negative rate", []Option{WithSampleRate(-1)}, true},
		{"invalid NaN rate", []Option{WithSampleRate(math.NaN())}, true},
		{"invalid +Inf rate", []Option{WithSampleRate(math.Inf(1))}, true},
		{"invalid block size", []Option{WithBlockSize(0)}, true},
		{"invalid huge block size", []Option{WithBlockSize(1 << 20)}, true},
		{"invalid rms time constant", []Option{WithRMSTimeConstant(0)}, true},
		{"rms shorter than a sample", []Option{WithSampleRate(1000), WithRMSTimeConstant(0.0005)}, true},
		{"invalid strategy", []Option{WithStrategy(DetectorStrategy(7))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDucker(p, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewDucker() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && d == nil {
				t.Fatal("NewDucker() returned nil without error")
			}
		})
	}

	if _, err := NewDucker(nil); err == nil {
		t.Fatal("expected error for nil parameter set")
	}
}

func TestDuckerDefaults(t *testing.T) {
	d := newTestDucker(t, NewParameterSet(MappingTimed))
	cfg := d.Config()

	if cfg.SampleRate != 41400 {
		t.Errorf("SampleRate = %v, want 41400", cfg.SampleRate)
	}
	if cfg.RMSTimeConstant != DefaultRMSTimeConstant {
		t.Errorf("RMSTimeConstant = %v, want %v", cfg.RMSTimeConstant, DefaultRMSTimeConstant)
	}
	if d.Strategy() != StrategyFeedforwardRMS {
		t.Errorf("Strategy = %v, want feedforward", d.Strategy())
	}
	if cfg.ClampGainReduction {
		t.Error("gain reduction should be unclamped by default")
	}
	if d.State() != (DetectorState{}) {
		t.Errorf("State() = %+v, want zero", d.State())
	}
}

// TestFeedforwardMatchesReference replays the per-sample recurrence by hand.
func TestFeedforwardMatchesReference(t *testing.T) {
	const sampleRate = 48000.0

	p := NewParameterSet(MappingTimed)
	p.SetThreshold(0.2)
	p.SetRatio(8)
	p.SetRange(0.1)
	p.SetMakeup(1.5)

	d := newTestDucker(t, p, WithSampleRate(sampleRate))
	v := p.Snapshot()

	k := 1 / (0.01 * sampleRate)
	rms, q := 0.0, 0.0

	left := testutil.DeterministicSine(220, sampleRate, 0.9, 4000)
	right := testutil.DeterministicNoise(3, 0.4, 4000)

	for i := range left {
		mono := 0.5 * (left[i] + right[i])
		rms = mono*mono*k + rms*(1-k)
		sc := math.Max(0, math.Sqrt(rms)/v.Threshold-1)

		rise := 0.0
		if sc > q {
			rise = (sc - q) / v.Attack
		}
		q += (rise - q/v.Release) / sampleRate

		arg := v.Ratio * (q - 0.5)
		gain := 1 - (1-v.Range)*math.Exp(arg)/(1+math.Exp(arg))

		gotL, gotR := d.ProcessFrame(left[i], right[i])
		wantL := left[i] * gain * v.Makeup
		wantR := right[i] * gain * v.Makeup

		if math.Abs(gotL-wantL) > curveTolerance() || math.Abs(gotR-wantR) > curveTolerance() {
			t.Fatalf("frame %d: got (%v, %v), want (%v, %v)", i, gotL, gotR, wantL, wantR)
		}
	}

	if st := d.State(); math.Abs(st.GainReduction-q) > curveTolerance() {
		t.Fatalf("GainReduction = %v, want %v", st.GainReduction, q)
	}
}

// TestFeedbackMatchesReference replays the feedback recurrence by hand.
func TestFeedbackMatchesReference(t *testing.T) {
	p := NewParameterSet(MappingRaw)
	p.SetAttack(0.2)
	p.SetRelease(0.05)
	p.SetThreshold(0.5)
	p.SetMakeup(0.5)

	d := newTestDucker(t, p, WithStrategy(StrategyFeedbackRectified))
	v := p.Snapshot()

	left := testutil.DeterministicSine(440, 41400, 0.8, 2000)
	right := testutil.DeterministicSine(660, 41400, 0.3, 2000)
	q := 0.0

	for i := range left {
		gain := math.Max(0, 1-q)
		outL, outR := left[i]*gain, right[i]*gain
		sc := math.Max(math.Abs(50*v.Threshold*0.5*(outL+outR)), 0.1)
		q += (v.Attack*sc - (v.Attack+v.Release)*q) / 100
		q = math.Max(q, 0)

		gotL, gotR := d.ProcessFrame(left[i], right[i])
		wantL, wantR := outL*4*v.Makeup, outR*4*v.Makeup

		if math.Abs(gotL-wantL) > 1e-12 || math.Abs(gotR-wantR) > 1e-12 {
			t.Fatalf("frame %d: got (%v, %v), want (%v, %v)", i, gotL, gotR, wantL, wantR)
		}
	}
}

// TestDefaultScenario runs the construction defaults against a full-scale DC
// frame. With a unity threshold the RMS level never exceeds threshold, so the
// gain must hold still rather than rise.
func TestDefaultScenario(t *testing.T) {
	d := newTestDucker(t, NewParameterSet(MappingTimed))

	initial := d.Gain()
	prev := initial

	for i := range 1000 {
		outL, outR := d.ProcessFrame(1, 1)
		gain := d.Gain()

		if gain > prev {
			t.Fatalf("frame %d: gain rose from %v to %v", i, prev, gain)
		}
		if gain < 0 || gain > 1 {
			t.Fatalf("frame %d: gain %v outside [range, 1]", i, gain)
		}
		if outL != gain || outR != gain {
			t.Fatalf("frame %d: output (%v, %v) != input*gain*makeup %v", i, outL, outR, gain)
		}

		prev = gain
	}

	if q := d.State().GainReduction; q != 0 {
		t.Fatalf("GainReduction = %v, want 0", q)
	}
}

func TestLoudInputDecreasesGain(t *testing.T) {
	p := NewParameterSet(MappingTimed)
	p.SetThreshold(0.1)

	d := newTestDucker(t, p)
	initial := d.Gain()
	prev := initial

	for i := range 1000 {
		d.ProcessFrame(1, 1)

		gain := d.Gain()
		if gain > prev {
			t.Fatalf("frame %d: gain rose from %v to %v", i, prev, gain)
		}
		prev = gain
	}

	if prev >= initial {
		t.Fatalf("gain did not fall: initial %v, final %v", initial, prev)
	}
}

func TestSteadyToneReachesFixedPoint(t *testing.T) {
	const sampleRate = 41400.0

	p := NewParameterSet(MappingTimed)
	p.SetThreshold(0.1)
	p.SetRatio(4)

	d := newTestDucker(t, p, WithSampleRate(sampleRate))
	v := p.Snapshot()

	// sqrt(0.25)/0.1 - 1 = 4, and rise equals leak at s*r/(a+r).
	fixed := 4 * v.Release / (v.Attack + v.Release)

	prevQ := 0.0
	var lastSecondMin, lastSecondMax float64 = math.Inf(1), math.Inf(-1)

	frames := int(5 * sampleRate)
	for i := range frames {
		d.ProcessFrame(0.5, 0.5)

		q := d.State().GainReduction
		if q < prevQ-curveTolerance() {
			t.Fatalf("frame %d: Q fell from %v to %v", i, prevQ, q)
		}
		prevQ = q

		if i >= frames-int(sampleRate) {
			lastSecondMin = math.Min(lastSecondMin, d.Gain())
			lastSecondMax = math.Max(lastSecondMax, d.Gain())
		}
	}

	if math.Abs(prevQ-fixed) > 1e-3 {
		t.Fatalf("Q = %v, want fixed point %v", prevQ, fixed)
	}
	if lastSecondMax-lastSecondMin > 1e-4 {
		t.Fatalf("gain still moving in last second: [%v, %v]", lastSecondMin, lastSecondMax)
	}
}

func TestSilenceReleasesFeedforward(t *testing.T) {
	const sampleRate = 41400.0

	p := NewParameterSet(MappingTimed)
	p.SetThreshold(0.1)

	d := newTestDucker(t, p, WithSampleRate(sampleRate))

	for range int(sampleRate) {
		d.ProcessFrame(0.8, -0.2)
	}

	if d.State().GainReduction <= 0 {
		t.Fatal("expected gain reduction after loud input")
	}

	for i := range int(10 * sampleRate) {
		outL, outR := d.ProcessFrame(0, 0)
		if outL != 0 || outR != 0 {
			t.Fatalf("frame %d: silence produced (%v, %v)", i, outL, outR)
		}
	}

	st := d.State()
	if math.Abs(st.GainReduction) > 1e-6 {
		t.Fatalf("GainReduction = %v, want ~0", st.GainReduction)
	}
	if st.RMSFilterState > 1e-12 {
		t.Fatalf("RMSFilterState = %v, want ~0", st.RMSFilterState)
	}
}

func TestSilenceReleasesFeedback(t *testing.T) {
	p := NewParameterSet(MappingRaw)
	d := newTestDucker(t, p, WithStrategy(StrategyFeedbackRectified))

	for range 2000 {
		d.ProcessFrame(1, 1)
	}

	if d.State().GainReduction < 0.5 {
		t.Fatalf("expected strong reduction, Q = %v", d.State().GainReduction)
	}

	for range 8000 {
		d.ProcessFrame(0, 0)
	}

	// The rectifier floor keeps a small residual reduction alive.
	v := p.Snapshot()
	residual := feedbackRectifyFloor * v.Attack / (v.Attack + v.Release)

	if q := d.State().GainReduction; math.Abs(q-residual) > 1e-9 {
		t.Fatalf("Q = %v, want residual %v", q, residual)
	}

	// Without attack the floor has no effect and the gain returns to unity.
	p.SetAttack(0)

	for range 5000 {
		d.ProcessFrame(0, 0)
	}

	if g := d.GainForReduction(d.State().GainReduction); math.Abs(g-1) > 1e-9 {
		t.Fatalf("gain = %v, want 1", g)
	}
}

func TestFeedbackConvergesMonotonically(t *testing.T) {
	p := NewParameterSet(MappingRaw)
	d := newTestDucker(t, p, WithStrategy(StrategyFeedbackRectified))
	v := p.Snapshot()

	a, r := v.Attack, v.Release
	fixed := feedbackSidechainScale * a / (feedbackSidechainScale*a + a + r)

	prev := 0.0
	for i := range 3000 {
		d.ProcessFrame(1, 1)

		q := d.State().GainReduction
		if q < prev {
			t.Fatalf("frame %d: Q fell from %v to %v", i, prev, q)
		}
		prev = q
	}

	if math.Abs(prev-fixed) > 1e-9 {
		t.Fatalf("Q = %v, want fixed point %v", prev, fixed)
	}
}

func TestFeedforwardGainBounded(t *testing.T) {
	p := NewParameterSet(MappingTimed)
	d := newTestDucker(t, p)

	for _, floor := range []float64{0, 0.001, 0.1, 0.5, 1} {
		for _, ratio := range []float64{0.1, 1, 10, 100} {
			p.SetRange(floor)
			p.SetRatio(ratio)
			lo := float64(float32(floor))

			for q := -100.0; q <= 1000; q += 0.37 {
				g := d.GainForReduction(q)
				if g < lo-curveTolerance() || g > 1+curveTolerance() {
					t.Fatalf("range=%v ratio=%v q=%v: gain %v outside [%v, 1]", floor, ratio, q, g, lo)
				}
			}

			if hi := d.GainForReduction(-1e6); math.Abs(hi-1) > curveTolerance() {
				t.Fatalf("range=%v ratio=%v: upper asymptote %v, want 1", floor, ratio, hi)
			}
			if low := d.GainForReduction(1e6); math.Abs(low-lo) > curveTolerance() {
				t.Fatalf("range=%v ratio=%v: lower asymptote %v, want %v", floor, ratio, low, lo)
			}
		}
	}
}

func TestClampedGainReduction(t *testing.T) {
	p := NewParameterSet(MappingTimed)
	p.SetThreshold(0.1)

	unclamped := newTestDucker(t, p)
	clamped := newTestDucker(t, p, WithClampedGainReduction(true))

	for range 2000 {
		unclamped.ProcessFrame(0.5, 0.5)
		clamped.ProcessFrame(0.5, 0.5)
	}

	// A release shorter than one sample makes the leak overshoot zero.
	p.SetRelease(1e-5)

	minUnclamped, minClamped := math.Inf(1), math.Inf(1)
	for range 50 {
		unclamped.ProcessFrame(0, 0)
		clamped.ProcessFrame(0, 0)

		minUnclamped = math.Min(minUnclamped, unclamped.State().GainReduction)
		minClamped = math.Min(minClamped, clamped.State().GainReduction)
	}

	if minUnclamped >= 0 {
		t.Fatalf("unclamped Q never went negative (min %v)", minUnclamped)
	}
	if minClamped < 0 {
		t.Fatalf("clamped Q went negative: %v", minClamped)
	}
}

func TestDeterminism(t *testing.T) {
	left := testutil.DeterministicNoise(11, 0.9, 8192)
	right := testutil.DeterministicSine(97, 41400, 0.7, 8192)

	for _, strategy := range []DetectorStrategy{StrategyFeedforwardRMS, StrategyFeedbackRectified} {
		run := func() ([]float64, []float64) {
			p := NewParameterSet(strategy.Mapping())
			p.SetThreshold(0.2)

			d := newTestDucker(t, p, WithStrategy(strategy))
			l := append([]float64(nil), left...)
			r := append([]float64(nil), right...)
			d.ProcessStereoInPlace(l, r)

			return l, r
		}

		l1, r1 := run()
		l2, r2 := run()

		for i := range l1 {
			if l1[i] != l2[i] || r1[i] != r2[i] {
				t.Fatalf("%v: frame %d differs between runs", strategy, i)
			}
		}
	}
}

func TestBlockMatchesFrame(t *testing.T) {
	left := testutil.DeterministicNoise(5, 1, 3000)
	right := testutil.DeterministicNoise(6, 1, 3000)

	for _, strategy := range []DetectorStrategy{StrategyFeedforwardRMS, StrategyFeedbackRectified} {
		p := NewParameterSet(strategy.Mapping())
		p.SetThreshold(0.05)

		frame := newTestDucker(t, p, WithStrategy(strategy))
		block := newTestDucker(t, p, WithStrategy(strategy), WithBlockSize(128))

		wantL := make([]float64, len(left))
		wantR := make([]float64, len(right))
		for i := range left {
			wantL[i], wantR[i] = frame.ProcessFrame(left[i], right[i])
		}

		gotL := append([]float64(nil), left...)
		gotR := append([]float64(nil), right...)
		block.ProcessStereoInPlace(gotL, gotR)

		testutil.RequireSliceNearlyEqual(t, gotL, wantL, 1e-12)
		testutil.RequireSliceNearlyEqual(t, gotR, wantR, 1e-12)

		if frame.State() != block.State() {
			t.Fatalf("%v: state diverged: %+v vs %+v", strategy, frame.State(), block.State())
		}
	}
}

func TestComputeGainsCommonLength(t *testing.T) {
	d := newTestDucker(t, NewParameterSet(MappingTimed))

	gains := make([]float64, 4)
	n := d.ComputeGains([]float64{1, 1, 1}, []float64{1, 1}, gains)

	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if gains[2] != 0 || gains[3] != 0 {
		t.Fatalf("gains beyond n were written: %v", gains)
	}
}

func TestReset(t *testing.T) {
	p := NewParameterSet(MappingTimed)
	p.SetThreshold(0.05)

	d := newTestDucker(t, p)
	fresh := newTestDucker(t, p)

	for range 5000 {
		d.ProcessFrame(0.7, 0.7)
	}

	d.Reset()

	if d.State() != (DetectorState{}) {
		t.Fatalf("State() after Reset = %+v", d.State())
	}
	if d.Gain() != fresh.Gain() {
		t.Fatalf("Gain() after Reset = %v, want %v", d.Gain(), fresh.Gain())
	}

	for i := range 500 {
		gotL, gotR := d.ProcessFrame(0.3, -0.1)
		wantL, wantR := fresh.ProcessFrame(0.3, -0.1)

		if gotL != wantL || gotR != wantR {
			t.Fatalf("frame %d: reset ducker diverged from fresh one", i)
		}
	}
}

func TestMetrics(t *testing.T) {
	p := NewParameterSet(MappingTimed)
	p.SetThreshold(0.1)

	d := newTestDucker(t, p)
	d.ProcessStereoInPlace([]float64{0.2, -0.9, 0.1}, []float64{0.5, 0.3, 0})

	m := d.Metrics()
	if m.InputPeak != 0.9 {
		t.Errorf("InputPeak = %v, want 0.9", m.InputPeak)
	}
	if m.OutputPeak <= 0 || m.OutputPeak > m.InputPeak {
		t.Errorf("OutputPeak = %v, want in (0, %v]", m.OutputPeak, m.InputPeak)
	}
	if m.MinGain > 1 || m.MinGain <= 0 {
		t.Errorf("MinGain = %v, want in (0, 1]", m.MinGain)
	}

	d.ResetMetrics()
	if d.Metrics().InputPeak != 0 || !math.IsInf(d.Metrics().MinGain, 1) {
		t.Errorf("metrics not cleared: %+v", d.Metrics())
	}
}

func TestProcessStereoInPlaceNoAllocs(t *testing.T) {
	d := newTestDucker(t, NewParameterSet(MappingTimed), WithBlockSize(64))
	left := testutil.DeterministicNoise(1, 0.5, 1000)
	right := testutil.DeterministicNoise(2, 0.5, 1000)

	allocs := testing.AllocsPerRun(20, func() {
		d.ProcessStereoInPlace(left, right)
	})
	if allocs != 0 {
		t.Fatalf("ProcessStereoInPlace allocated %v times per run", allocs)
	}
}
