package backtest

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"go.uber.org/zap"
)

// HistoryProvider defines the interface for fetching historical OHLCV data
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}

// Recorder receives run outcomes, typically a metrics registry.
type Recorder interface {
	RecordBacktest(status string, duration float64)
	RecordTrade(exit string)
}

type nopRecorder struct{}

func (nopRecorder) RecordBacktest(string, float64) {}
func (nopRecorder) RecordTrade(string)             {}

// Backtester fetches history and runs the simulator for one or many symbols
type Backtester struct {
	provider HistoryProvider
	rules    Rules
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Backtester
type Option func(*Backtester)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(b *Backtester) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRecorder sets the run recorder
func WithRecorder(r Recorder) Option {
	return func(b *Backtester) {
		if r != nil {
			b.recorder = r
		}
	}
}

// New creates a new Backtester with the given history provider and rules
func New(provider HistoryProvider, rules Rules, opts ...Option) *Backtester {
	b := &Backtester{
		provider: provider,
		rules:    rules,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Rules returns the rule set runs are simulated with
func (b *Backtester) Rules() Rules {
	return b.rules
}

// Run fetches daily bars for symbol over [start, end] and simulates them.
// Short or empty history yields a NoSignal result.
func (b *Backtester) Run(ctx context.Context, symbol string, start, end time.Time) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	began := time.Now()

	history, err := b.provider.FetchHistory(ctx, symbol, start, end, "1d")
	if err != nil {
		b.recorder.RecordBacktest("fetch_error", time.Since(began).Seconds())
		return nil, err
	}

	result, err := Simulate(symbol, history, b.rules)
	if err != nil {
		b.recorder.RecordBacktest("error", time.Since(began).Seconds())
		return nil, err
	}

	status := "ok"
	if result.NoSignal {
		status = "no_signal"
	}
	b.recorder.RecordBacktest(status, time.Since(began).Seconds())
	for _, t := range result.Trades {
		b.recorder.RecordTrade(string(t.ExitKind))
	}

	b.logger.Debug("backtest finished",
		zap.String("symbol", symbol),
		zap.Int("bars", len(history)),
		zap.Int("trades", len(result.Trades)),
		zap.Bool("no_signal", result.NoSignal),
	)

	return result, nil
}

// BatchItem is the outcome for one symbol of a batch
type BatchItem struct {
	Symbol string
	Result *Result
	Err    error
}

// RunBatch backtests symbols on up to workers goroutines. Items come back in
// input order; a failing symbol carries its error and does not stop the
// batch. Cancelling ctx stops symbols that have not started yet.
func (b *Backtester) RunBatch(ctx context.Context, symbols []string, start, end time.Time, workers int) []BatchItem {
	if workers <= 0 {
		workers = 1
	}

	items := make([]BatchItem, len(symbols))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(symbols)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				sym := symbols[i]
				res, err := b.Run(ctx, sym, start, end)
				if err != nil {
					b.logger.Warn("skipping symbol",
						zap.String("symbol", sym),
						zap.Error(err),
					)
				}
				items[i] = BatchItem{Symbol: sym, Result: res, Err: err}
			}
		}()
	}

feed:
	for i := range symbols {
		select {
		case <-ctx.Done():
			for j := i; j < len(symbols); j++ {
				items[j] = BatchItem{Symbol: symbols[j], Err: ctx.Err()}
			}
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return items
}
