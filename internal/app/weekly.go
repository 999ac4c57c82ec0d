package app

import (
	"context"
	"fmt"

	"github.com/newthinker/twquant/internal/backtest"
	"github.com/newthinker/twquant/internal/notifier"
	"github.com/newthinker/twquant/internal/report"
	"go.uber.org/zap"
)

// WeeklyRun is a generated weekly report.
type WeeklyRun struct {
	Path   string
	Text   string
	Screen *ScreenRun
}

// WeeklyReport screens the universe, backtests the selections against the
// benchmark and saves the markdown report under journal/weekly/. When
// notify is set the report is also sent to every notifier.
func (a *App) WeeklyReport(ctx context.Context, notify bool) (*WeeklyRun, error) {
	sr, err := a.Screen(ctx)
	if err != nil {
		return nil, err
	}

	selected := make([]string, len(sr.Summary.Selected))
	for i, s := range sr.Summary.Selected {
		selected[i] = s.Symbol
	}

	bt := backtest.New(memoryHistory(sr.Histories), a.cfg.BacktestRules(),
		backtest.WithLogger(a.logger),
		backtest.WithRecorder(a.metrics),
	)
	results := make(map[string]*backtest.Result, len(selected))
	for _, it := range bt.RunBatch(ctx, selected, sr.Start, sr.End, a.cfg.Collector.Workers) {
		if it.Err == nil {
			results[it.Symbol] = it.Result
		}
	}

	benchmark := a.cfg.Backtest.Benchmark
	benchReturn, err := a.benchmarkReturn(ctx, benchmark, sr)
	if err != nil {
		a.logger.Warn("benchmark unavailable", zap.String("symbol", benchmark), zap.Error(err))
	}

	text := report.Weekly(report.WeeklyInput{
		Date:            sr.Date,
		RulesVersion:    a.cfg.RulesVersion,
		UniverseSize:    len(a.cfg.Universe),
		Screening:       sr.Summary,
		Backtests:       results,
		BenchmarkSymbol: benchmark,
		BenchmarkReturn: benchReturn,
	})

	path := report.WeekPath(sr.Date)
	if err := a.store.Write(ctx, path, []byte(text)); err != nil {
		return nil, fmt.Errorf("saving weekly report: %w", err)
	}
	a.logger.Info("weekly report saved", zap.String("path", path))

	if notify {
		msg := notifier.Message{Title: "Weekly Report " + report.WeekLabel(sr.Date), Text: text}
		for name, err := range a.notifiers.NotifyAll(ctx, msg) {
			a.logger.Error("notifier failed", zap.String("notifier", name), zap.Error(err))
		}
	}

	return &WeeklyRun{Path: path, Text: text, Screen: sr}, nil
}

// benchmarkReturn is the buy-and-hold return of symbol over the screen
// window, as a fraction.
func (a *App) benchmarkReturn(ctx context.Context, symbol string, sr *ScreenRun) (float64, error) {
	if symbol == "" {
		return 0, nil
	}
	bars, ok := sr.Histories[symbol]
	if !ok {
		var err error
		if bars, err = a.collectors.FetchHistory(ctx, symbol, sr.Start, sr.End, "1d"); err != nil {
			return 0, err
		}
	}
	if len(bars) < 2 || bars[0].Close <= 0 {
		return 0, fmt.Errorf("benchmark %s has %d bars", symbol, len(bars))
	}
	return bars[len(bars)-1].Close/bars[0].Close - 1, nil
}
