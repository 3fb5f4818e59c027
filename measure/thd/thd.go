// Package thd measures harmonic distortion of a processed test tone.
//
// A ducking stage with a short attack modulates its gain within one period
// of a low tone; the modulation shows up as harmonics of the fundamental.
package thd

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-duck/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultRangeLowerHz = 20.0
	defaultRangeUpperHz = 20000.0
	defaultCaptureBins  = 2 // Hann main lobe half width
)

var errEmptySignal = errors.New("thd: empty signal")

// Config holds THD calculation parameters.
type Config struct {
	SampleRate      float64
	FFTSize         int
	FundamentalFreq float64 // 0 searches the loudest bin in range
	RangeLowerFreq  float64
	RangeUpperFreq  float64
	CaptureBins     int
	MaxHarmonics    int
}

// Result holds THD measurement results. Levels are linear magnitudes
// summed over the capture bins.
//
//nolint:revive
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64
	THD              float64
	THDN             float64
	THD_dB           float64
	THDN_dB          float64
	Harmonics        []float64 // relative to the fundamental, H2 first
	SINAD            float64
}

// Calculator performs THD analysis. It owns its FFT plan and buffers, so a
// Calculator must not be shared between goroutines.
type Calculator struct {
	cfg  Config
	plan *algofft.Plan[complex128]
	win  []float64
	buf  []float64
	in   []complex128
	out  []complex128
	mag  []float64
}

// NewCalculator creates a calculator for signals of up to cfg.FFTSize samples.
func NewCalculator(cfg Config) (*Calculator, error) {
	cfg = normalizeConfig(cfg)

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("thd sample rate must be > 0: %f", cfg.SampleRate)
	}

	if cfg.FFTSize < 2 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("thd fft size must be a power of two >= 2: %d", cfg.FFTSize)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("thd: %w", err)
	}

	return &Calculator{
		cfg:  cfg,
		plan: plan,
		win:  hann(cfg.FFTSize),
		buf:  make([]float64, cfg.FFTSize),
		in:   make([]complex128, cfg.FFTSize),
		out:  make([]complex128, cfg.FFTSize),
		mag:  make([]float64, cfg.FFTSize/2+1),
	}, nil
}

// AnalyzeSignal is a one-shot THD analysis of a time-domain signal. A zero
// FFTSize uses the next power of two of len(signal).
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if len(signal) == 0 {
		return Result{}, errEmptySignal
	}

	if cfg.FFTSize <= 0 {
		cfg.FFTSize = nextPowerOf2(len(signal))
	}

	calc, err := NewCalculator(cfg)
	if err != nil {
		return Result{}, err
	}

	return calc.AnalyzeSignal(signal)
}

// Config returns the normalized configuration.
func (c *Calculator) Config() Config { return c.cfg }

// AnalyzeSignal windows the last FFTSize samples of signal (zero padded when
// shorter), transforms them and evaluates THD metrics.
func (c *Calculator) AnalyzeSignal(signal []float64) (Result, error) {
	if len(signal) == 0 {
		return Result{}, errEmptySignal
	}

	n := c.cfg.FFTSize
	if len(signal) > n {
		signal = signal[len(signal)-n:]
	}

	core.Zero(c.buf)
	copy(c.buf, signal)

	if len(signal) == n {
		vecmath.MulBlockInPlace(c.buf, c.win)
	} else {
		// shorter input gets a window of its own length
		w := hann(len(signal))
		vecmath.MulBlockInPlace(c.buf[:len(signal)], w)
	}

	for i, v := range c.buf {
		c.in[i] = complex(v, 0)
	}

	err := c.plan.Forward(c.out, c.in)
	if err != nil {
		return Result{}, fmt.Errorf("thd: %w", err)
	}

	for i := range c.mag {
		x := c.out[i]
		c.mag[i] = real(x)*real(x) + imag(x)*imag(x)
	}

	return c.CalculateFromMagnitude(c.mag), nil
}

// CalculateFromMagnitude computes THD metrics from a squared-magnitude spectrum.
// magSquared is expected to contain non-negative-frequency bins [0..Nyquist].
func (c *Calculator) CalculateFromMagnitude(magSquared []float64) Result {
	if len(magSquared) <= 1 {
		return Result{}
	}

	cfg := c.cfg
	maxBin := len(magSquared) - 1

	binHz := cfg.SampleRate / float64(2*maxBin)

	lowerBin := clampInt(int(math.Round(cfg.RangeLowerFreq/binHz)), 1, maxBin)
	upperBin := clampInt(int(math.Round(cfg.RangeUpperFreq/binHz)), lowerBin, maxBin)

	fundamentalBin := c.findFundamentalBin(magSquared, lowerBin, upperBin, binHz)

	captureBins := min(cfg.CaptureBins, fundamentalBin/2)

	fundamentalLevel := binLevel(magSquared, fundamentalBin, captureBins)
	if fundamentalLevel <= 0 {
		return Result{FundamentalFreq: float64(fundamentalBin) * binHz}
	}

	var harmonicSum float64

	harmonics := make([]float64, 0, 8)

	for k := 2; ; k++ {
		if cfg.MaxHarmonics > 0 && len(harmonics) >= cfg.MaxHarmonics {
			break
		}

		bin := k * fundamentalBin
		if bin > upperBin {
			break
		}

		level := binLevel(magSquared, bin, captureBins)
		harmonicSum += level
		harmonics = append(harmonics, level/fundamentalLevel)
	}

	var total float64
	for i := lowerBin; i <= upperBin; i++ {
		total += sqrtPositive(magSquared[i])
	}

	thd := harmonicSum / fundamentalLevel
	thdn := math.Max(total-fundamentalLevel, 0) / fundamentalLevel

	sinad := math.Inf(1)
	if thdn > 0 {
		sinad = -20 * math.Log10(thdn)
	}

	return Result{
		FundamentalFreq:  float64(fundamentalBin) * binHz,
		FundamentalLevel: fundamentalLevel,
		THD:              thd,
		THDN:             thdn,
		THD_dB:           ratioToDB(thd),
		THDN_dB:          ratioToDB(thdn),
		Harmonics:        harmonics,
		SINAD:            sinad,
	}
}

func (c *Calculator) findFundamentalBin(magSquared []float64, lowerBin, upperBin int, binHz float64) int {
	if c.cfg.FundamentalFreq > 0 {
		return clampInt(int(math.Round(c.cfg.FundamentalFreq/binHz)), lowerBin, upperBin)
	}

	best := lowerBin
	for i := lowerBin + 1; i <= upperBin; i++ {
		if magSquared[i] > magSquared[best] {
			best = i
		}
	}

	return best
}

func normalizeConfig(cfg Config) Config {
	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultRangeLowerHz
	}

	if cfg.RangeUpperFreq <= 0 {
		cfg.RangeUpperFreq = defaultRangeUpperHz
	}

	cfg.RangeUpperFreq = math.Max(cfg.RangeUpperFreq, cfg.RangeLowerFreq)

	if cfg.CaptureBins <= 0 {
		cfg.CaptureBins = defaultCaptureBins
	}

	cfg.MaxHarmonics = max(cfg.MaxHarmonics, 0)

	return cfg
}

// hann returns a periodic Hann window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}

	return w
}

func binLevel(magSquared []float64, bin, captureBins int) float64 {
	lo := max(bin-captureBins, 0)
	hi := min(bin+captureBins, len(magSquared)-1)

	var sum float64
	for i := lo; i <= hi; i++ {
		sum += sqrtPositive(magSquared[i])
	}

	return sum
}

func sqrtPositive(v float64) float64 {
	if v <= 0 {
		return 0
	}

	return math.Sqrt(v)
}

func ratioToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(v)
}

func clampInt(val, lo, hi int) int {
	return min(max(val, lo), hi)
}

func nextPowerOf2(n int) int {
	p := 2
	for p < n {
		p <<= 1
	}

	return p
}
