package collector

import (
	"context"
	"time"

	"CycleSentinel/internal/model"
)

// Fetcher defines the interface for fetching price history.
// Implementations return bars in chronological order.
type Fetcher interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error)
	Name() string
}
