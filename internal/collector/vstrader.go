package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"CycleSentinel/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

var vsResolution = map[model.Interval]string{
	model.IntervalDaily:   "daily",
	model.IntervalWeekly:  "weekly",
	model.IntervalMonthly: "monthly",
}

// FetchHistory fetches bars for the window. When the weekly or monthly
// endpoint fails, daily bars are fetched and aggregated locally.
func (f *VsTraderFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error) {
	res, ok := vsResolution[interval]
	if !ok {
		res = "daily"
	}
	bars, err := f.fetchBars(ctx, res, symbol, start, end)
	if err == nil || interval == model.IntervalDaily || ctx.Err() != nil {
		return bars, err
	}

	daily, dailyErr := f.fetchBars(ctx, "daily", symbol, start, end)
	if dailyErr != nil {
		return nil, fmt.Errorf("%s fetch failed: %w; daily fallback also failed: %w", res, err, dailyErr)
	}
	if interval == model.IntervalMonthly {
		return aggregateBars(daily, monthKey), nil
	}
	return aggregateBars(daily, isoWeekKey), nil
}

func (f *VsTraderFetcher) fetchBars(ctx context.Context, resolution, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", strconv.FormatInt(start.Unix(), 10))
	q.Set("to", strconv.FormatInt(end.Unix(), 10))
	endpoint := fmt.Sprintf("%s/api/v1/bars/%s?%s", f.BaseURL, resolution, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var vsBars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&vsBars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.OHLCV{
			Time:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func isoWeekKey(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}

func monthKey(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// aggregateBars merges consecutive daily bars sharing the same bucket key
// into one bar: first open, max high, min low, last close, summed volume.
func aggregateBars(daily []model.OHLCV, key func(time.Time) int) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var out []model.OHLCV
	cur := daily[0]
	curKey := key(cur.Time)
	for _, d := range daily[1:] {
		if k := key(d.Time); k != curKey {
			out = append(out, cur)
			cur, curKey = d, k
			continue
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return append(out, cur)
}
