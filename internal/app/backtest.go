package app

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/twquant/internal/backtest"
	"github.com/newthinker/twquant/internal/config"
	"github.com/newthinker/twquant/internal/report"
	"go.uber.org/zap"
)

// BacktestRun is one archived batch of backtests.
type BacktestRun struct {
	ID        string
	CreatedAt time.Time
	Start     time.Time
	End       time.Time
	Rules     backtest.Rules
	Items     []backtest.BatchItem
}

// RunPath is the archive directory of a run.
func RunPath(id string) string {
	return "runs/" + id
}

// Backtest fetches history for symbols (the configured universe when empty),
// simulates each and archives the results under runs/<id>/.
func (a *App) Backtest(ctx context.Context, symbols []string) (*BacktestRun, error) {
	if len(symbols) == 0 {
		symbols = a.cfg.UniverseSymbols()
	}
	start, end := a.window()

	bt := backtest.New(a.collectors, a.cfg.BacktestRules(),
		backtest.WithLogger(a.logger),
		backtest.WithRecorder(a.metrics),
	)

	a.logger.Info("backtest started",
		zap.Int("symbols", len(symbols)),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	run := &BacktestRun{
		ID:        uuid.NewString(),
		CreatedAt: a.now(),
		Start:     start,
		End:       end,
		Rules:     bt.Rules(),
		Items:     bt.RunBatch(ctx, symbols, start, end, a.cfg.Collector.Workers),
	}

	if err := a.archiveRun(ctx, run); err != nil {
		return run, err
	}

	a.logger.Info("backtest finished",
		zap.String("run_id", run.ID),
		zap.Int("symbols", len(run.Items)),
	)
	return run, ctx.Err()
}

// archiveRun writes the rules snapshot plus, per symbol, the trade ledger,
// equity curve and text report.
func (a *App) archiveRun(ctx context.Context, run *BacktestRun) error {
	root := RunPath(run.ID)

	symbols := make([]string, len(run.Items))
	for i, it := range run.Items {
		symbols[i] = it.Symbol
	}
	snap, err := config.MarshalSnapshot(config.RulesSnapshot{
		RunID:     run.ID,
		CreatedAt: run.CreatedAt,
		Rules:     run.Rules,
		Symbols:   symbols,
	})
	if err != nil {
		return err
	}
	if err := a.store.Write(ctx, root+"/rules.yaml", snap); err != nil {
		return fmt.Errorf("archiving rules snapshot: %w", err)
	}

	for _, it := range run.Items {
		if it.Result == nil {
			continue
		}
		dir := fmt.Sprintf("%s/%s", root, it.Symbol)

		var ledger, equity bytes.Buffer
		if err := backtest.WriteLedgerCSV(&ledger, it.Result.Trades); err != nil {
			return err
		}
		if err := backtest.WriteEquityCSV(&equity, it.Result.EquityCurve); err != nil {
			return err
		}
		text := report.FormatResult(it.Symbol, a.cfg.NameOf(it.Symbol), it.Result) +
			"\n" + report.FormatTrades(it.Result.Trades)

		files := map[string][]byte{
			dir + "/ledger.csv": ledger.Bytes(),
			dir + "/equity.csv": equity.Bytes(),
			dir + "/report.txt": []byte(text),
		}
		for path, data := range files {
			if err := a.store.Write(ctx, path, data); err != nil {
				return fmt.Errorf("archiving %s: %w", path, err)
			}
		}
	}
	return nil
}
