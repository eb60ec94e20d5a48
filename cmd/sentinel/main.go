package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"CycleSentinel/internal/api"
	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/config"
	"CycleSentinel/internal/logger"
	"CycleSentinel/internal/metrics"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/notifier"
	"CycleSentinel/internal/recorder"
	"CycleSentinel/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("config validation")
	}

	base := logger.New(cfg.Log)
	log := logger.Component(base, "main")
	log.Info("CycleSentinel starting")

	fetcher, err := newFetcher(cfg)
	if err != nil {
		log.WithError(err).Fatal("init data source")
	}
	fetcher = collector.NewRateLimitedFetcher(fetcher, cfg.DataSource.RequestsPerSecond, cfg.DataSource.Burst)
	log.WithField("provider", fetcher.Name()).Info("data source ready")

	tracked := make([]string, 0, len(cfg.Analysis.Symbols))
	for _, s := range cfg.Analysis.Symbols {
		tracked = append(tracked, collector.NormalizeSymbol(s, cfg.DataSource.DefaultSuffix))
	}
	m := metrics.New(tracked...)
	col := collector.NewCollector(fetcher, collector.Options{
		DefaultSuffix: cfg.DataSource.DefaultSuffix,
		MinBars:       cfg.Analysis.MinBars,
		MinPeriodDays: cfg.Analysis.MinPeriodDays,
		MaxCycles:     cfg.Analysis.MaxCycles,
	}, m, logger.Component(base, "collector"))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.Component(base, "recorder"))
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Component(base, "telegram"))
		n = tn
	} else {
		log.Info("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, col, n, rec, scheduler.Options{
		Symbols:     cfg.Analysis.Symbols,
		Range:       cfg.Analysis.Range,
		Interval:    model.Interval(cfg.Analysis.Interval),
		Concurrency: cfg.Analysis.Concurrency,
	}, logger.Component(base, "scheduler"))
	if err := sched.Register(cfg.Schedule.AnalysisCron); err != nil {
		log.WithError(err).Fatal("register cron task")
	}
	sched.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, running analysis now")
		go sched.RunNow(ctx)
	}

	srv := api.NewServer(cfg.Server.Addr, cfg.Server.Mode, api.Deps{
		Collector: col,
		Recorder:  rec,
		Metrics:   m,
		Log:       logger.Component(base, "api"),
	})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info("CycleSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutdown signal received, stopping")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("http server stopped")
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("http server shutdown")
	}
	sched.Stop()
	log.Info("CycleSentinel stopped")
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "yahoo":
		f := collector.NewYahooFetcher(cfg.Proxy, ds.Timeout)
		if ds.BaseURL != "" {
			f.BaseURL = ds.BaseURL
		}
		return f, nil
	case "vstrader":
		return collector.NewVsTraderFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout), nil
	case "mock":
		return collector.NewMockFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", ds.Provider)
	}
}
