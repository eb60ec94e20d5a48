package recorder

import (
	"time"

	"CycleSentinel/internal/model"
)

// AnalysisRecord is a stored cycle analysis run. Price bars are never stored,
// only the run metadata and its ranked cycles.
type AnalysisRecord struct {
	RunID      string                `json:"run_id"`
	Symbol     string                `json:"symbol"`
	Interval   string                `json:"interval"`
	Range      string                `json:"range"`
	Bars       int                   `json:"bars"`
	FirstClose float64               `json:"first_close"`
	LastClose  float64               `json:"last_close"`
	AnalyzedAt time.Time             `json:"analyzed_at"`
	Cycles     []model.SpectrumPoint `json:"cycles"`
}

// Recorder persists analysis results for later inspection.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) error
	// RecentAnalyses returns the newest runs first. An empty symbol matches all.
	RecentAnalyses(symbol string, limit int) ([]AnalysisRecord, error)
	Close() error
}
