package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleSentinel/internal/logger"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/recorder"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("token", "42", "", logger.Component(logger.Discard(), "telegram"))
	n.APIBase = url
	n.retryUnit = time.Millisecond
	return n
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	require.NoError(t, n.SendWithRetry(context.Background(), "hello", 3))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "hello", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFormatCycleReport(t *testing.T) {
	at := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	a := &model.Analysis{
		Symbol:   "TCS.NS",
		Interval: model.IntervalDaily,
		Range:    "5y",
		Series:   &model.PriceSeries{Bars: []model.OHLCV{{Time: at, Close: 3890.5}}},
		Result: &model.CycleResult{TopCycles: []model.SpectrumPoint{
			{PeriodDays: 20.48, Power: 1},
			{PeriodDays: 63.6, Power: 0.42},
		}},
	}

	msg := FormatCycleReport(a)
	assert.Contains(t, msg, "TCS.NS")
	assert.Contains(t, msg, "Last close: 3890.50 (2024-06-28)")
	assert.Contains(t, msg, "1. ~20 days, power 100%")
	assert.Contains(t, msg, "2. ~64 days, power 42%")

	a.Result.TopCycles = nil
	assert.Contains(t, FormatCycleReport(a), "No dominant cycle detected.")
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, FormatHistory("TCS.NS", nil), "No recorded analyses.")

	msg := FormatHistory("TCS.NS", []recorder.AnalysisRecord{
		{AnalyzedAt: time.Date(2024, 6, 28, 16, 30, 0, 0, time.UTC), Range: "5y", Interval: "1d",
			Cycles: []model.SpectrumPoint{{PeriodDays: 21.3, Power: 1}}},
		{AnalyzedAt: time.Date(2024, 6, 27, 16, 30, 0, 0, time.UTC), Range: "1y", Interval: "1wk"},
	})
	assert.Contains(t, msg, "2024-06-28 16:30  5y/1d  ~21 days")
	assert.Contains(t, msg, "2024-06-27 16:30  1y/1wk  no dominant cycle")
}

func TestStartPolling(t *testing.T) {
	var polls atomic.Int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottoken/getUpdates":
			if polls.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /help "}}]}`))
				return
			}
			assert.Equal(t, "8", r.URL.Query().Get("offset"))
			time.Sleep(10 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/bottoken/sendMessage":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			replies <- body["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "reply to /help", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
}
