package app

import (
	"context"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/screener"
	"go.uber.org/zap"
)

// ScreenRun is the outcome of screening the universe, with the bars that
// were screened so callers can reuse them.
type ScreenRun struct {
	Date      time.Time
	Start     time.Time
	End       time.Time
	Summary   screener.Summary
	Histories map[string][]core.OHLCV
	Skipped   []string // symbols whose data could not be fetched
}

// Screen fetches the configured universe and runs the stock screen.
func (a *App) Screen(ctx context.Context) (*ScreenRun, error) {
	start, end := a.window()
	symbols := a.cfg.UniverseSymbols()

	data, err := a.fetchAll(ctx, symbols, start, end, true)
	if err != nil {
		return nil, err
	}

	run := &ScreenRun{
		Date:      a.now(),
		Start:     start,
		End:       end,
		Histories: make(map[string][]core.OHLCV, len(data)),
	}

	inputs := make([]screener.Input, 0, len(data))
	for _, d := range data {
		if d.Err != nil {
			run.Skipped = append(run.Skipped, d.Symbol)
			continue
		}
		run.Histories[d.Symbol] = d.History
		inputs = append(inputs, screener.Input{
			Symbol:  d.Symbol,
			History: d.History,
			Info:    a.withConfiguredName(d.Symbol, d.Info),
		})
	}

	run.Summary = screener.Run(inputs, a.cfg.ScreenRules())

	for range run.Summary.Passed {
		a.metrics.RecordScreened("passed")
	}
	for range run.Summary.Failed {
		a.metrics.RecordScreened("failed")
	}
	for range run.Skipped {
		a.metrics.RecordScreened("skipped")
	}

	a.logger.Info("screen finished",
		zap.Int("universe", len(symbols)),
		zap.Int("passed", len(run.Summary.Passed)),
		zap.Int("selected", len(run.Summary.Selected)),
		zap.Int("skipped", len(run.Skipped)),
	)
	return run, nil
}

// withConfiguredName prefers the universe display name over the source's.
func (a *App) withConfiguredName(symbol string, info *core.Info) *core.Info {
	out := core.Info{Symbol: symbol}
	if info != nil {
		out = *info
	}
	if name := a.cfg.NameOf(symbol); name != symbol {
		out.Name = name
	}
	return &out
}
