package collector

import (
	"context"
	"strings"
	"time"

	"github.com/newthinker/twquant/internal/core"
)

// Collector defines the interface for market data sources
type Collector interface {
	// Metadata
	Name() string
	SupportedMarkets() []core.Market

	// Data fetching. History is returned oldest first.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
	FetchInfo(ctx context.Context, symbol string) (*core.Info, error)
}

// FetchRecorder receives fetch outcomes.
type FetchRecorder interface {
	RecordFetch(source, status string)
}

// DetectMarket infers the venue from a Yahoo-style symbol.
func DetectMarket(symbol string) core.Market {
	switch {
	case strings.HasPrefix(symbol, "^"):
		return core.MarketTWIX
	case strings.HasSuffix(strings.ToUpper(symbol), ".TWO"):
		return core.MarketTWO
	default:
		return core.MarketTW
	}
}

// Supports reports whether c declares the symbol's market.
func Supports(c Collector, symbol string) bool {
	m := DetectMarket(symbol)
	for _, sm := range c.SupportedMarkets() {
		if sm == m {
			return true
		}
	}
	return false
}
