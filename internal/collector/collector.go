package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"CycleSentinel/internal/cycle"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/model"
)

var (
	// ErrInvalidRequest is returned for a request without a usable symbol.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream wraps failures of the configured data source.
	ErrUpstream = errors.New("upstream fetch failed")
	// ErrNotEnoughData is returned when fewer than MinBars closes are available.
	ErrNotEnoughData = errors.New("not enough price data for cycle analysis")
)

// Options tunes symbol handling and analysis.
type Options struct {
	DefaultSuffix string
	MinBars       int
	MinPeriodDays float64
	MaxCycles     int
}

// DefaultOptions mirrors the configuration defaults.
var DefaultOptions = Options{
	DefaultSuffix: ".NS",
	MinBars:       32,
	MinPeriodDays: cycle.DefaultMinPeriodDays,
	MaxCycles:     cycle.DefaultMaxCycles,
}

// Collector fetches price history and runs cycle analysis over it.
type Collector struct {
	Fetcher Fetcher
	Opts    Options
	Metrics *metrics.Metrics
	Log     *logrus.Entry

	now func() time.Time
}

// NewCollector creates a new Collector. m may be nil.
func NewCollector(fetcher Fetcher, opts Options, m *metrics.Metrics, log *logrus.Entry) *Collector {
	if opts.MinBars < 2 {
		opts.MinBars = 2
	}
	return &Collector{Fetcher: fetcher, Opts: opts, Metrics: m, Log: log, now: time.Now}
}

// History fetches, cleans and orders the closes for req.
func (c *Collector) History(ctx context.Context, req Request) (*model.PriceSeries, error) {
	symbol := NormalizeSymbol(req.Symbol, c.Opts.DefaultSuffix)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	interval := ParseInterval(string(req.Interval))
	start, end := ParseRange(req.Range, c.now())

	began := time.Now()
	bars, err := c.Fetcher.FetchHistory(ctx, symbol, start, end, interval)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), err, time.Since(began))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUpstream, c.Fetcher.Name(), symbol, err)
	}

	clean := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Time.IsZero() || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			continue
		}
		clean = append(clean, b)
	}
	sort.SliceStable(clean, func(i, j int) bool { return clean[i].Time.Before(clean[j].Time) })

	c.Log.WithFields(logrus.Fields{
		"symbol":   symbol,
		"interval": interval,
		"fetched":  len(bars),
		"kept":     len(clean),
	}).Debug("price history fetched")

	return &model.PriceSeries{
		Symbol:    symbol,
		Interval:  interval,
		Bars:      clean,
		FetchedAt: c.now(),
	}, nil
}

// Analyze fetches history for req and estimates its dominant cycles.
func (c *Collector) Analyze(ctx context.Context, req Request) (*model.Analysis, error) {
	series, err := c.History(ctx, req)
	if err != nil {
		c.Metrics.AnalysisFailed("fetch")
		return nil, err
	}
	if len(series.Bars) < c.Opts.MinBars {
		c.Metrics.AnalysisFailed("insufficient_data")
		return nil, fmt.Errorf("%w: %s has %d bars, need %d", ErrNotEnoughData, series.Symbol, len(series.Bars), c.Opts.MinBars)
	}

	result, err := cycle.ComputeCycles(series.Closes(), series.Interval.Days(),
		cycle.WithMinPeriodDays(c.Opts.MinPeriodDays),
		cycle.WithMaxCycles(c.Opts.MaxCycles),
	)
	if err != nil {
		c.Metrics.AnalysisFailed("compute")
		return nil, fmt.Errorf("compute cycles for %s: %w", series.Symbol, err)
	}

	a := &model.Analysis{
		RunID:      uuid.NewString(),
		Symbol:     series.Symbol,
		Interval:   series.Interval,
		Range:      NormalizeRange(req.Range),
		Series:     series,
		Result:     result,
		AnalyzedAt: c.now(),
	}
	c.Metrics.AnalysisSucceeded(a)

	fields := logrus.Fields{"symbol": a.Symbol, "interval": a.Interval, "bars": len(series.Bars), "cycles": len(result.TopCycles)}
	if len(result.TopCycles) > 0 {
		fields["dominant_period_days"] = math.Round(result.TopCycles[0].PeriodDays*10) / 10
	}
	c.Log.WithFields(fields).Info("cycle analysis complete")
	return a, nil
}
