package app

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fetched is the market data gathered for one symbol.
type fetched struct {
	Symbol  string
	History []core.OHLCV
	Info    *core.Info
	Err     error
}

// fetchAll loads daily bars (and optionally basic info) for symbols on up
// to collector.workers goroutines. Per-symbol failures are carried in the
// result; only cancellation aborts the whole fetch.
func (a *App) fetchAll(ctx context.Context, symbols []string, start, end time.Time, withInfo bool) ([]fetched, error) {
	out := make([]fetched, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.cfg.Collector.Workers, 1))

	for i, sym := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i] = fetched{Symbol: sym, Err: err}
				return nil
			}

			bars, err := a.collectors.FetchHistory(gctx, sym, start, end, "1d")
			f := fetched{Symbol: sym, History: bars, Err: err}
			if err != nil {
				a.logger.Warn("fetch failed", zap.String("symbol", sym), zap.Error(err))
			} else if withInfo {
				info, err := a.collectors.FetchInfo(gctx, sym)
				if err != nil {
					a.logger.Debug("no basic info", zap.String("symbol", sym), zap.Error(err))
				} else {
					f.Info = info
				}
			}
			out[i] = f
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// memoryHistory serves already fetched bars to the backtester.
type memoryHistory map[string][]core.OHLCV

func (m memoryHistory) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	bars, ok := m[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("%s was not fetched", symbol))
	}
	return bars, nil
}
