package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/recorder"
)

type seriesQuery struct {
	Symbol   string `form:"symbol" binding:"required"`
	Range    string `form:"range"`
	Interval string `form:"interval"`
}

func (q seriesQuery) request() collector.Request {
	return collector.Request{
		Symbol:   q.Symbol,
		Range:    q.Range,
		Interval: collector.ParseInterval(q.Interval),
	}
}

type runsQuery struct {
	Symbol string `form:"symbol"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type historyResponse struct {
	Symbol string         `json:"symbol"`
	Data   []model.Candle `json:"data"`
}

type cyclesResponse struct {
	RunID                string                `json:"run_id"`
	Symbol               string                `json:"symbol"`
	Range                string                `json:"range"`
	Interval             model.Interval        `json:"interval"`
	SamplingIntervalDays float64               `json:"sampling_interval_days"`
	Points               []model.Candle        `json:"points"`
	Spectrum             []model.SpectrumPoint `json:"spectrum"`
	TopCycles            []model.SpectrumPoint `json:"top_cycles"`
}

type runsResponse struct {
	Runs []recorder.AnalysisRecord `json:"runs"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": s.collector.Fetcher.Name(),
	})
}

// history handles GET /api/history.
func (s *Server) history(c *gin.Context) {
	var q seriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid parameters"})
		return
	}

	series, err := s.collector.History(c.Request.Context(), q.request())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{Symbol: series.Symbol, Data: series.Candles()})
}

// cycles handles GET /api/cycles.
func (s *Server) cycles(c *gin.Context) {
	var q seriesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid parameters"})
		return
	}

	a, err := s.collector.Analyze(c.Request.Context(), q.request())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.recorder.RecordAnalysis(a); err != nil {
		c.Error(err)
		s.log.WithField("run_id", a.RunID).WithError(err).Error("record analysis")
	}

	c.JSON(http.StatusOK, cyclesResponse{
		RunID:                a.RunID,
		Symbol:               a.Symbol,
		Range:                a.Range,
		Interval:             a.Interval,
		SamplingIntervalDays: a.Interval.Days(),
		Points:               a.Series.Candles(),
		Spectrum:             a.Result.Spectrum,
		TopCycles:            a.Result.TopCycles,
	})
}

// runs handles GET /api/runs.
func (s *Server) runs(c *gin.Context) {
	var q runsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid parameters"})
		return
	}
	symbol := q.Symbol
	if symbol != "" {
		symbol = collector.NormalizeSymbol(symbol, s.collector.Opts.DefaultSuffix)
	}

	records, err := s.recorder.RecentAnalyses(symbol, q.Limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, runsResponse{Runs: records})
}

func (s *Server) writeError(c *gin.Context, err error) {
	c.Error(err)
	switch {
	case errors.Is(err, collector.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid parameters"})
	case errors.Is(err, collector.ErrNotEnoughData):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "Not enough data", Detail: err.Error()})
	case errors.Is(err, collector.ErrUpstream):
		c.JSON(http.StatusBadGateway, errorResponse{Error: "Failed to fetch data", Detail: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal error", Detail: err.Error()})
	}
}
