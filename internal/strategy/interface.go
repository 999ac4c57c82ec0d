package strategy

import (
	"time"

	"github.com/newthinker/twquant/internal/core"
)

// DataRequirements specifies what data a strategy needs
type DataRequirements struct {
	Markets      []core.Market
	PriceHistory int // Bars of history needed
}

// AnalysisContext provides data to strategies
type AnalysisContext struct {
	Symbol string
	Market core.Market
	OHLCV  []core.OHLCV // oldest first; the last bar is "today"
	Info   *core.Info   // may be nil
	Now    time.Time
}

// Strategy defines the interface for signal strategies
type Strategy interface {
	Name() string
	Description() string
	RequiredData() DataRequirements
	Analyze(ctx AnalysisContext) ([]core.Signal, error)
}
