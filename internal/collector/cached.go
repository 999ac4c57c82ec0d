package collector

import (
	"context"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/storage/history"
	"go.uber.org/zap"
)

// Cached wraps a collector with a per-day cache. The first fetch of a
// symbol on a given day goes to the source; later fetches that day are
// served from the cache when it covers the requested window.
type Cached struct {
	Collector
	cache  *history.Cache
	now    func() time.Time
	logger *zap.Logger
}

// NewCached wraps c with cache.
func NewCached(c Collector, cache *history.Cache, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{Collector: c, cache: cache, now: time.Now, logger: logger}
}

// FetchHistory serves bars from the day cache when possible.
func (c *Cached) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	day := c.now()

	bars, ok, err := c.cache.GetHistory(ctx, symbol, day)
	if err != nil {
		c.logger.Warn("history cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if ok && covers(bars, start) {
		if window := clip(bars, start, end); len(window) > 0 {
			return window, nil
		}
	}

	bars, err = c.Collector.FetchHistory(ctx, symbol, start, end, interval)
	if err != nil {
		return nil, err
	}
	if err := c.cache.PutHistory(ctx, symbol, day, bars); err != nil {
		c.logger.Warn("history cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return bars, nil
}

// FetchInfo serves info from the day cache when possible.
func (c *Cached) FetchInfo(ctx context.Context, symbol string) (*core.Info, error) {
	day := c.now()

	if info, ok, err := c.cache.GetInfo(ctx, symbol, day); err == nil && ok {
		return info, nil
	}

	info, err := c.Collector.FetchInfo(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := c.cache.PutInfo(ctx, day, info); err != nil {
		c.logger.Warn("info cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return info, nil
}

// covers reports whether bars reach back to start, allowing for the
// weekend and holiday gap before the first trading day.
func covers(bars []core.OHLCV, start time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	return !bars[0].Time.After(start.AddDate(0, 0, 7))
}

func clip(bars []core.OHLCV, start, end time.Time) []core.OHLCV {
	out := make([]core.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
