package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/recorder"
)

// Deps are the services the HTTP API serves from.
type Deps struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Log       *logrus.Entry
}

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	collector *collector.Collector
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	log       *logrus.Entry
}

// NewServer creates the API server listening on addr. mode is a gin mode
// (debug, release, test); anything else is treated as release.
func NewServer(addr, mode string, deps Deps) *Server {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}

	s := &Server{
		router:    gin.New(),
		collector: deps.Collector,
		recorder:  deps.Recorder,
		metrics:   deps.Metrics,
		log:       deps.Log,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.log))
	s.router.Use(metricsMiddleware(s.metrics))

	s.router.GET("/health", s.health)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := s.router.Group("/api")
	{
		api.GET("/history", s.history)
		api.GET("/cycles", s.cycles)
		api.GET("/runs", s.runs)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
