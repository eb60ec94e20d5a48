package collector

import (
	"context"
	"math"
	"time"

	"CycleSentinel/internal/model"
)

// MockCycle is one sinusoid injected by MockFetcher, with its period in bars.
type MockCycle struct {
	PeriodBars float64
	Amplitude  float64
}

// MockFetcher returns deterministic synthetic bars for development and testing.
type MockFetcher struct {
	BasePrice float64
	Drift     float64 // price change per bar
	Cycles    []MockCycle
	Bars      []model.OHLCV // returned as-is when set
	Err       error
}

// NewMockFetcher returns a fetcher producing an uptrend with 20- and 60-bar cycles.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		BasePrice: 1000,
		Drift:     0.5,
		Cycles: []MockCycle{
			{PeriodBars: 20, Amplitude: 25},
			{PeriodBars: 60, Amplitude: 12},
		},
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, _ string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}

	step := time.Duration(interval.Days()*24) * time.Hour
	var bars []model.OHLCV
	i := 0
	for t := start; !t.After(end); t = t.Add(step) {
		p := m.BasePrice + m.Drift*float64(i)
		for _, c := range m.Cycles {
			p += c.Amplitude * math.Sin(2*math.Pi*float64(i)/c.PeriodBars)
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars, nil
}
