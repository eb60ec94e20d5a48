package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"CycleSentinel/internal/collector"
	"CycleSentinel/internal/model"
	"CycleSentinel/internal/notifier"
	"CycleSentinel/internal/recorder"
)

const (
	sendRetries    = 3
	historyEntries = 5
)

// Notifier delivers formatted reports. *notifier.TelegramNotifier satisfies it.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options selects what the scheduled task analyses.
type Options struct {
	Symbols     []string
	Range       string
	Interval    model.Interval
	Concurrency int
}

// Outcome is the result of analysing one symbol.
type Outcome struct {
	Symbol   string
	Analysis *model.Analysis
	Err      error
}

// Scheduler runs the periodic cycle analysis and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  Notifier // nil disables notifications
	Recorder  recorder.Recorder
	Opts      Options
	Log       *logrus.Entry
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. Overlapping cron runs are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, n Notifier, rec recorder.Recorder, opts Options, log *logrus.Entry) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	cl := cron.PrintfLogger(log)
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		Collector: col,
		Notifier:  n,
		Recorder:  rec,
		Opts:      opts,
		Log:       log,
		Ctx:       ctx,
	}
}

// Register adds the analysis task under the given cron spec (with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.WithField("symbols", len(s.Opts.Symbols)).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

func (s *Scheduler) analysisTask() {
	s.RunNow(s.Ctx)
}

// RunNow analyses every configured symbol, at most Opts.Concurrency at a time.
// Outcomes are returned in the order of Opts.Symbols.
func (s *Scheduler) RunNow(ctx context.Context) []Outcome {
	s.Log.WithField("symbols", s.Opts.Symbols).Info("running cycle analysis")

	outcomes := make([]Outcome, len(s.Opts.Symbols))
	sem := make(chan struct{}, s.Opts.Concurrency)
	var wg sync.WaitGroup
	for i, symbol := range s.Opts.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[i] = Outcome{Symbol: symbol, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			a, err := s.analyze(ctx, collector.Request{Symbol: symbol, Range: s.Opts.Range, Interval: s.Opts.Interval})
			outcomes[i] = Outcome{Symbol: symbol, Analysis: a, Err: err}
			if err != nil {
				s.trySend(ctx, failureMessage(symbol, err))
				return
			}
			s.trySend(ctx, notifier.FormatCycleReport(a))
		}(i, symbol)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	s.Log.WithFields(logrus.Fields{"total": len(outcomes), "failed": failed}).Info("cycle analysis finished")
	return outcomes
}

// analyze runs one analysis and records it.
func (s *Scheduler) analyze(ctx context.Context, req collector.Request) (*model.Analysis, error) {
	a, err := s.Collector.Analyze(ctx, req)
	if err != nil {
		s.Log.WithField("symbol", req.Symbol).WithError(err).Error("cycle analysis")
		return nil, err
	}
	if err := s.Recorder.RecordAnalysis(a); err != nil {
		s.Log.WithField("run_id", a.RunID).WithError(err).Error("record analysis")
	}
	return a, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Commands may arrive as /cycles@BotName in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/cycles":
		if len(args) == 0 {
			return "Usage: /cycles SYMBOL [range] [interval]"
		}
		req := collector.Request{Symbol: args[0], Range: s.Opts.Range, Interval: s.Opts.Interval}
		if len(args) > 1 {
			req.Range = args[1]
		}
		if len(args) > 2 {
			req.Interval = collector.ParseInterval(args[2])
		}
		a, err := s.analyze(ctx, req)
		if err != nil {
			return commandError(args[0], err)
		}
		return notifier.FormatCycleReport(a)
	case "/history":
		if len(args) == 0 {
			return "Usage: /history SYMBOL"
		}
		symbol := collector.NormalizeSymbol(args[0], s.Collector.Opts.DefaultSuffix)
		records, err := s.Recorder.RecentAnalyses(symbol, historyEntries)
		if err != nil {
			s.Log.WithError(err).Error("load recent analyses")
			return "❌ Could not load recorded analyses."
		}
		return notifier.FormatHistory(symbol, records)
	default:
		return notifier.FormatHelp()
	}
}

// Messages are sent with HTML parse mode, so user input and upstream error
// bodies must be escaped.
func failureMessage(symbol string, err error) string {
	return fmt.Sprintf("❌ Cycle analysis failed for %s: %s",
		html.EscapeString(symbol), html.EscapeString(err.Error()))
}

func commandError(symbol string, err error) string {
	symbol = html.EscapeString(symbol)
	switch {
	case errors.Is(err, collector.ErrInvalidRequest):
		return "❌ Invalid symbol."
	case errors.Is(err, collector.ErrNotEnoughData):
		return fmt.Sprintf("❌ Not enough price history for %s.", symbol)
	case errors.Is(err, collector.ErrUpstream):
		return fmt.Sprintf("❌ Failed to fetch data for %s.", symbol)
	default:
		return fmt.Sprintf("❌ Cycle analysis failed for %s: %s", symbol, html.EscapeString(err.Error()))
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, sendRetries); err != nil {
		s.Log.WithError(err).Error("send notification")
	}
}
