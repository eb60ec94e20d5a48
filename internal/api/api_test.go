package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/logger"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/recorder"
)

func newTestServer(t *testing.T, f collector.Fetcher) *Server {
	t.Helper()
	log := logger.Component(logger.Discard(), "api")
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	m := metrics.New()
	return NewServer(":0", gin.TestMode, Deps{
		Collector: collector.NewCollector(f, collector.DefaultOptions, m, log),
		Recorder:  rec,
		Metrics:   m,
		Log:       log,
	})
}

func get(t *testing.T, s *Server, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, collector.NewMockFetcher())
	var body map[string]string
	w := get(t, s, "/health", &body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "mock", body["provider"])
}

func TestHistory(t *testing.T) {
	s := newTestServer(t, collector.NewMockFetcher())

	var body historyResponse
	w := get(t, s, "/api/history?symbol=reliance&range=30d", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RELIANCE.NS", body.Symbol)
	require.Len(t, body.Data, 31)
	for i := 1; i < len(body.Data); i++ {
		assert.Less(t, body.Data[i-1].Date, body.Data[i].Date)
	}
	assert.Len(t, body.Data[0].Date, len("2006-01-02"))
}

func TestHistory_Errors(t *testing.T) {
	s := newTestServer(t, collector.NewMockFetcher())

	var bad errorResponse
	w := get(t, s, "/api/history", &bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid parameters", bad.Error)

	w = get(t, s, "/api/history?symbol=%20%20", &bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := collector.NewMockFetcher()
	failing.Err = errors.New("connection reset")
	s = newTestServer(t, failing)
	var upstream errorResponse
	w = get(t, s, "/api/history?symbol=TCS", &upstream)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to fetch data", upstream.Error)
	assert.Contains(t, upstream.Detail, "connection reset")
}

func TestCycles(t *testing.T) {
	s := newTestServer(t, collector.NewMockFetcher())

	var body cyclesResponse
	w := get(t, s, "/api/cycles?symbol=TCS&range=2y&interval=1d", &body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "TCS.NS", body.Symbol)
	assert.Equal(t, "2y", body.Range)
	assert.EqualValues(t, "1d", body.Interval)
	assert.Equal(t, 1.0, body.SamplingIntervalDays)
	assert.NotEmpty(t, body.RunID)
	assert.NotEmpty(t, body.Points)
	assert.NotEmpty(t, body.Spectrum)
	require.NotEmpty(t, body.TopCycles)
	assert.InDelta(t, 20, body.TopCycles[0].PeriodDays, 1)
	assert.Equal(t, 1.0, body.TopCycles[0].Power)

	var runs runsResponse
	w = get(t, s, "/api/runs?symbol=tcs", &runs)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, body.RunID, runs.Runs[0].RunID)
	assert.Equal(t, body.TopCycles, runs.Runs[0].Cycles)
}

func TestCycles_NotEnoughData(t *testing.T) {
	s := newTestServer(t, collector.NewMockFetcher())
	var body errorResponse
	w := get(t, s, "/api/cycles?symbol=TCS&range=10d", &body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Not enough data", body.Error)
}

func TestRuns_InvalidLimit(t *testing.T) {
	s := newTestServer(t, collector.NewMockFetcher())
	w := get(t, s, "/api/runs?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = get(t, s, "/api/runs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, collector.NewMockFetcher())
	get(t, s, "/health", nil)

	w := get(t, s, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{endpoint="/health",method="GET",status="200"} 1`)
}

func TestCycles_MetricsBoundedAcrossSymbols(t *testing.T) {
	failing := collector.NewMockFetcher()
	failing.Err = errors.New("connection reset")
	s := newTestServer(t, failing)

	for i := 0; i < 100; i++ {
		w := get(t, s, fmt.Sprintf("/api/cycles?symbol=ZZ%d", i), nil)
		require.Equal(t, http.StatusBadGateway, w.Code)
	}

	w := get(t, s, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cycle_analyses_total{status="fetch"} 100`)
	assert.NotContains(t, w.Body.String(), "ZZ1")
}
