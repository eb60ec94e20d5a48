package recorder

import "CycleSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ *model.Analysis) error { return nil }
func (n *NoopRecorder) RecentAnalyses(_ string, _ int) ([]AnalysisRecord, error) {
	return []AnalysisRecord{}, nil
}
func (n *NoopRecorder) Close() error { return nil }
