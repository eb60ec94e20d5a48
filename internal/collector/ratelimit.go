package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"CycleSentinel/internal/model"
)

// RateLimitedFetcher throttles calls to an upstream Fetcher.
type RateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher wraps next with a token bucket of rps requests per
// second and the given burst. A non-positive rps disables throttling.
func NewRateLimitedFetcher(next Fetcher, rps float64, burst int) *RateLimitedFetcher {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedFetcher{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (f *RateLimitedFetcher) Name() string { return f.next.Name() }

func (f *RateLimitedFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return f.next.FetchHistory(ctx, symbol, start, end, interval)
}
