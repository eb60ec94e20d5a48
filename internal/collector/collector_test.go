package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/cycle"
	"CycleSentinel/internal/logger"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/model"
)

var fixedNow = time.Date(2024, 6, 28, 10, 0, 0, 0, time.UTC)

func newTestCollector(f Fetcher) *Collector {
	c := NewCollector(f, DefaultOptions, metrics.New(), logger.Component(logger.Discard(), "collector"))
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestCollector_AnalyzeMockCycles(t *testing.T) {
	c := newTestCollector(NewMockFetcher())

	a, err := c.Analyze(context.Background(), Request{Symbol: "reliance", Range: "2y", Interval: model.IntervalDaily})
	require.NoError(t, err)

	assert.Equal(t, "RELIANCE.NS", a.Symbol)
	assert.Equal(t, "2y", a.Range)
	assert.NotEmpty(t, a.RunID)
	assert.Equal(t, fixedNow, a.AnalyzedAt)
	require.NotEmpty(t, a.Result.TopCycles)
	assert.InEpsilon(t, 20, a.Result.TopCycles[0].PeriodDays, 0.05)
	assert.Len(t, a.Result.Detrended, len(a.Series.Bars))
}

func TestCollector_HistoryCleansBars(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &MockFetcher{Bars: []model.OHLCV{
		{Time: base.AddDate(0, 0, 2), Close: 102},
		{Time: base, Close: 100},
		{Time: base.AddDate(0, 0, 1), Close: math.NaN()},
		{Time: base.AddDate(0, 0, 3), Close: 0},
		{Close: 50},
	}}
	c := newTestCollector(f)

	s, err := c.History(context.Background(), Request{Symbol: "tcs.bo", Interval: "1mo"})
	require.NoError(t, err)
	assert.Equal(t, "TCS.BO", s.Symbol)
	assert.Equal(t, model.IntervalMonthly, s.Interval)
	assert.Equal(t, []float64{100, 102}, s.Closes())
	assert.Equal(t, []model.Candle{{Date: "2024-01-01", Close: 100}, {Date: "2024-01-03", Close: 102}}, s.Candles())
}

func TestCollector_Errors(t *testing.T) {
	c := newTestCollector(NewMockFetcher())
	_, err := c.History(context.Background(), Request{Symbol: "  "})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	c = newTestCollector(&MockFetcher{Err: errors.New("connection reset")})
	_, err = c.Analyze(context.Background(), Request{Symbol: "TCS"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "connection reset")

	c = newTestCollector(NewMockFetcher())
	_, err = c.Analyze(context.Background(), Request{Symbol: "TCS", Range: "10d"})
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestCollector_MinBarsFloor(t *testing.T) {
	c := NewCollector(NewMockFetcher(), Options{MinBars: 0}, nil, logger.Component(logger.Discard(), "collector"))
	assert.Equal(t, 2, c.Opts.MinBars)
}

func TestCollector_CycleOptions(t *testing.T) {
	opts := DefaultOptions
	opts.MaxCycles = 1
	opts.MinPeriodDays = 30
	c := NewCollector(NewMockFetcher(), opts, nil, logger.Component(logger.Discard(), "collector"))
	c.now = func() time.Time { return fixedNow }

	a, err := c.Analyze(context.Background(), Request{Symbol: "TCS", Range: "2y"})
	require.NoError(t, err)
	require.Len(t, a.Result.TopCycles, 1)
	assert.GreaterOrEqual(t, a.Result.TopCycles[0].PeriodDays, 30.0)
	assert.Equal(t, cycle.DefaultMaxCycles, DefaultOptions.MaxCycles)
}

func TestRateLimitedFetcher(t *testing.T) {
	f := NewRateLimitedFetcher(NewMockFetcher(), 1, 1)
	assert.Equal(t, "mock", f.Name())

	ctx := context.Background()
	_, err := f.FetchHistory(ctx, "TCS.NS", fixedNow.AddDate(0, -1, 0), fixedNow, model.IntervalDaily)
	require.NoError(t, err)

	// The bucket is empty now; a short deadline cannot be met.
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = f.FetchHistory(short, "TCS.NS", fixedNow.AddDate(0, -1, 0), fixedNow, model.IntervalDaily)
	assert.Error(t, err)

	unlimited := NewRateLimitedFetcher(NewMockFetcher(), 0, 0)
	for i := 0; i < 5; i++ {
		_, err := unlimited.FetchHistory(ctx, "TCS.NS", fixedNow.AddDate(0, -1, 0), fixedNow, model.IntervalDaily)
		require.NoError(t, err)
	}
}
