package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"CycleSentinel/internal/model"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	fetchDuration       *prometheus.HistogramVec
	analysesTotal       *prometheus.CounterVec
	cyclePeriodDays     *prometheus.GaugeVec
	cyclePower          *prometheus.GaugeVec

	// tracked bounds the symbol label of the cycle gauges.
	tracked map[string]bool
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors. Cycle gauges are published only for the
// given symbols; ad-hoc requests for other symbols are counted but not
// labelled.
func New(trackedSymbols ...string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		tracked:  make(map[string]bool, len(trackedSymbols)),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "price_fetch_duration_seconds",
				Help:    "Duration of upstream price history fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "status"},
		),
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cycle_analyses_total",
				Help: "Total number of cycle analyses by outcome",
			},
			[]string{"status"},
		),
		cyclePeriodDays: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cycle_period_days",
				Help: "Period in days of the ranked dominant cycles from the latest analysis",
			},
			[]string{"symbol", "interval", "rank"},
		),
		cyclePower: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cycle_power_normalized",
				Help: "Normalized power of the ranked dominant cycles from the latest analysis",
			},
			[]string{"symbol", "interval", "rank"},
		),
	}

	for _, s := range trackedSymbols {
		m.tracked[s] = true
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.fetchDuration,
		m.analysesTotal,
		m.cyclePeriodDays,
		m.cyclePower,
	)
	return m
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// ObserveFetch records one upstream fetch.
func (m *Metrics) ObserveFetch(provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchDuration.WithLabelValues(provider, status).Observe(elapsed.Seconds())
}

// AnalysisFailed counts an analysis that did not produce a result.
func (m *Metrics) AnalysisFailed(reason string) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(reason).Inc()
}

// AnalysisSucceeded counts a completed analysis and, for tracked symbols,
// publishes its ranked cycles. Ranks no longer present are removed.
func (m *Metrics) AnalysisSucceeded(a *model.Analysis) {
	if m == nil || a == nil || a.Result == nil {
		return
	}
	m.analysesTotal.WithLabelValues("ok").Inc()
	if !m.tracked[a.Symbol] {
		return
	}

	interval := string(a.Interval)
	m.cyclePeriodDays.DeletePartialMatch(prometheus.Labels{"symbol": a.Symbol, "interval": interval})
	m.cyclePower.DeletePartialMatch(prometheus.Labels{"symbol": a.Symbol, "interval": interval})
	for i, c := range a.Result.TopCycles {
		rank := strconv.Itoa(i + 1)
		m.cyclePeriodDays.WithLabelValues(a.Symbol, interval, rank).Set(c.PeriodDays)
		m.cyclePower.WithLabelValues(a.Symbol, interval, rank).Set(c.Power)
	}
}
