package app

import (
	"context"

	"github.com/newthinker/twquant/internal/collector"
	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/strategy"
	"go.uber.org/zap"
)

// SignalsRun holds the signals of one pass over the universe.
type SignalsRun struct {
	Generated []core.Signal
	Routed    []core.Signal // generated signals that reached the notifiers
}

// Signals runs the live strategies on the latest bar of every universe
// symbol and routes what they emit.
func (a *App) Signals(ctx context.Context) (*SignalsRun, error) {
	start, end := a.window()
	now := a.now()

	data, err := a.fetchAll(ctx, a.cfg.UniverseSymbols(), start, end, false)
	if err != nil {
		return nil, err
	}

	run := &SignalsRun{}
	for _, d := range data {
		if d.Err != nil {
			continue
		}
		signals, err := a.strategies.Analyze(ctx, strategy.AnalysisContext{
			Symbol: d.Symbol,
			Market: collector.DetectMarket(d.Symbol),
			OHLCV:  d.History,
			Now:    now,
		})
		if err != nil {
			a.logger.Error("analysis failed", zap.String("symbol", d.Symbol), zap.Error(err))
			continue
		}
		for _, s := range signals {
			a.metrics.RecordSignal(s.Strategy, string(s.Action))
		}
		run.Generated = append(run.Generated, signals...)
	}

	routed, err := a.router.Route(ctx, run.Generated)
	if err != nil {
		return run, err
	}
	run.Routed = routed

	a.logger.Info("signals finished",
		zap.Int("generated", len(run.Generated)),
		zap.Int("routed", len(run.Routed)),
	)
	return run, nil
}
