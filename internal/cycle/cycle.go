// Package cycle estimates dominant periodic cycles in a uniformly sampled
// price series: linear detrend, Hann window, zero-pad to a power of two,
// forward FFT, normalized power per period and local-maximum peak picking.
//
// Every function is pure and allocates its own buffers, so concurrent calls
// need no coordination.
package cycle

import (
	"fmt"
	"math"

	"CycleSentinel/internal/model"
)

const (
	// DefaultMinPeriodDays is the shortest period reported as a cycle.
	DefaultMinPeriodDays = 5
	// DefaultMaxCycles caps the ranked cycle list.
	DefaultMaxCycles = 3
)

// Option configures ComputeCycles.
type Option func(*config)

type config struct {
	minPeriodDays float64
	maxCycles     int
}

// WithMinPeriodDays overrides the minimum reported period. Negative values
// are ignored.
func WithMinPeriodDays(days float64) Option {
	return func(c *config) {
		if days >= 0 && !math.IsInf(days, 0) && !math.IsNaN(days) {
			c.minPeriodDays = days
		}
	}
}

// WithMaxCycles overrides how many ranked cycles are returned. Non-positive
// values are ignored.
func WithMaxCycles(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxCycles = n
		}
	}
}

// ComputeCycles runs the full detection pipeline over closes.
// samplingIntervalDays is the number of days one sample represents
// (1 daily, 7 weekly, 30 monthly) and only scales the reported periods.
//
// At least two closes are required. Shorter-than-useful series (under a few
// dozen points) still produce a NaN-free result, just with coarse resolution.
func ComputeCycles(closes []float64, samplingIntervalDays float64, opts ...Option) (*model.CycleResult, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientData, len(closes))
	}
	if samplingIntervalDays <= 0 || math.IsInf(samplingIntervalDays, 0) || math.IsNaN(samplingIntervalDays) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSamplingInterval, samplingIntervalDays)
	}
	for i, v := range closes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w at index %d", ErrNonFiniteValue, i)
		}
	}

	cfg := config{minPeriodDays: DefaultMinPeriodDays, maxCycles: DefaultMaxCycles}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	detrended, err := Detrend(closes)
	if err != nil {
		return nil, fmt.Errorf("detrend: %w", err)
	}
	windowed, err := ApplyHann(detrended)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	bins, err := Transform(PadPow2(windowed))
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	spectrum := NormalizePower(bins, samplingIntervalDays)
	return &model.CycleResult{
		Spectrum:  spectrum,
		Detrended: detrended,
		TopCycles: SelectPeaks(spectrum, cfg.minPeriodDays, cfg.maxCycles),
	}, nil
}
