package cycle

import (
	"sort"

	"CycleSentinel/internal/model"
)

// SelectPeaks returns up to maxPeaks strict interior local maxima of the
// spectrum whose period is at least minPeriodDays, strongest first. Equal
// powers keep their spectrum order. An empty result means no dominant cycle.
func SelectPeaks(spectrum []model.SpectrumPoint, minPeriodDays float64, maxPeaks int) []model.SpectrumPoint {
	peaks := make([]model.SpectrumPoint, 0)
	if maxPeaks <= 0 {
		return peaks
	}

	for i := 1; i < len(spectrum)-1; i++ {
		p := spectrum[i]
		if p.Power > spectrum[i-1].Power &&
			p.Power > spectrum[i+1].Power &&
			p.PeriodDays >= minPeriodDays {
			peaks = append(peaks, p)
		}
	}

	sort.SliceStable(peaks, func(a, b int) bool { return peaks[a].Power > peaks[b].Power })
	if len(peaks) > maxPeaks {
		peaks = peaks[:maxPeaks]
	}
	return peaks
}
