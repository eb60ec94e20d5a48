package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/model"
)

const chartBody = `{"chart":{"result":[{
  "timestamp":[1700179200,1700006400,1700092800],
  "indicators":{"quote":[{
    "open":[101,99,null],
    "high":[103,100,null],
    "low":[100,98,null],
    "close":[102.5,99.5,null],
    "volume":[1200,1000,null]
  }]}
}],"error":null}}`

func TestYahooFetcher_FetchHistory(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL

	start := time.Unix(1699900000, 0)
	end := time.Unix(1700200000, 0)
	bars, err := f.FetchHistory(context.Background(), "^NSEI", start, end, model.IntervalWeekly)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^NSEI", gotPath)
	assert.Equal(t, []string{"1699900000"}, gotQuery["period1"])
	assert.Equal(t, []string{"1700200000"}, gotQuery["period2"])
	assert.Equal(t, []string{"1wk"}, gotQuery["interval"])

	require.Len(t, bars, 2, "null close must be skipped")
	assert.Equal(t, 99.5, bars[0].Close)
	assert.Equal(t, 102.5, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 1200.0, bars[1].Volume)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusNotFound, `{"chart":{"result":null}}`},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"empty result", http.StatusOK, `{"chart":{"result":[]}}`},
		{"bad json", http.StatusOK, `{"chart":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("", time.Second)
			f.BaseURL = srv.URL
			_, err := f.FetchHistory(context.Background(), "TCS.NS", time.Now().AddDate(-1, 0, 0), time.Now(), model.IntervalDaily)
			assert.Error(t, err)
		})
	}
}

func TestCollector_HistoryResolvesIndexAlias(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	c := newTestCollector(f)

	series, err := c.History(context.Background(), Request{Symbol: "nifty", Range: "1y"})
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/^NSEI", gotPath)
	assert.Equal(t, "^NSEI", series.Symbol)
	assert.Len(t, series.Bars, 2)
}
