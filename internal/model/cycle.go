package model

import "time"

// SpectrumPoint is one frequency bin expressed as a period in days.
type SpectrumPoint struct {
	PeriodDays float64 `json:"period_days"`
	Power      float64 `json:"power"`
}

// CycleResult is the output of one cycle-detection pass.
type CycleResult struct {
	// Spectrum is ordered by ascending bin index, i.e. descending period.
	// DC and Nyquist bins are excluded.
	Spectrum []SpectrumPoint `json:"spectrum"`
	// Detrended is the input with its least-squares line removed.
	Detrended []float64 `json:"detrended"`
	// TopCycles holds at most three peaks ordered by descending power.
	TopCycles []SpectrumPoint `json:"top_cycles"`
}

// Analysis ties a cycle result to the request that produced it.
type Analysis struct {
	RunID      string
	Symbol     string
	Interval   Interval
	Range      string
	Series     *PriceSeries
	Result     *CycleResult
	AnalyzedAt time.Time
}
