package cycle

import (
	"github.com/cwbudde/algo-dsp/dsp/spectrum"

	"CycleSentinel/internal/model"
)

// NormalizePower converts bins 1..N/2-1 of a real-input spectrum to
// (period, power) pairs and scales power so the strongest bin equals 1.
// DC, Nyquist and the mirrored upper half are dropped. The scale factor is
// taken only after every raw power is known; an all-zero spectrum is left
// unscaled.
func NormalizePower(bins []complex128, samplingIntervalDays float64) []model.SpectrumPoint {
	n := len(bins)
	half := n / 2
	if half < 2 {
		return []model.SpectrumPoint{}
	}

	count := half - 1
	power := spectrum.Power(bins[1:half])

	maxPower := 0.0
	for _, p := range power {
		if p > maxPower {
			maxPower = p
		}
	}
	if maxPower == 0 {
		maxPower = 1
	}

	points := make([]model.SpectrumPoint, count)
	for i, p := range power {
		k := i + 1
		points[i] = model.SpectrumPoint{
			PeriodDays: float64(n) / float64(k) * samplingIntervalDays,
			Power:      p / maxPower,
		}
	}
	return points
}
