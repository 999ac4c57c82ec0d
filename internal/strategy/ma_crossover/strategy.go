package ma_crossover

import (
	"fmt"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/indicator"
	"github.com/newthinker/twquant/internal/strategy"
)

// MACrossover flags golden and death crosses of two trailing averages on
// the latest bar.
type MACrossover struct {
	fastPeriod int
	slowPeriod int
}

// New creates a new MA Crossover strategy
func New(fastPeriod, slowPeriod int) *MACrossover {
	return &MACrossover{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
	}
}

func (m *MACrossover) Name() string {
	return "ma_crossover"
}

func (m *MACrossover) Description() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", m.fastPeriod, m.slowPeriod)
}

func (m *MACrossover) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		Markets:      []core.Market{core.MarketTW, core.MarketTWO, core.MarketTWIX},
		PriceHistory: m.slowPeriod + 1,
	}
}

func (m *MACrossover) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	if m.fastPeriod <= 0 || m.fastPeriod >= m.slowPeriod {
		return nil, fmt.Errorf("fast period %d must be positive and below slow period %d", m.fastPeriod, m.slowPeriod)
	}
	if len(ctx.OHLCV) < m.slowPeriod+1 {
		return nil, nil // Not enough data
	}

	prices := core.Closes(ctx.OHLCV)
	fastMA := indicator.RollingSMA(prices, m.fastPeriod)
	slowMA := indicator.RollingSMA(prices, m.slowPeriod)

	n := len(prices) - 1
	currFast, prevFast := fastMA[n], fastMA[n-1]
	currSlow, prevSlow := slowMA[n], slowMA[n-1]

	var action core.Action
	var kind, verb string
	switch {
	case prevFast <= prevSlow && currFast > currSlow:
		action, kind, verb = core.ActionBuy, "golden_cross", "above"
	case prevFast >= prevSlow && currFast < currSlow:
		action, kind, verb = core.ActionSell, "death_cross", "below"
	default:
		return nil, nil
	}

	return []core.Signal{{
		Symbol:     ctx.Symbol,
		Action:     action,
		Confidence: m.calculateConfidence(currFast, currSlow),
		Price:      prices[n],
		Reason: fmt.Sprintf("MA%d (%.2f) crossed %s MA%d (%.2f)",
			m.fastPeriod, currFast, verb, m.slowPeriod, currSlow),
		GeneratedAt: ctx.Now,
		Metadata: map[string]any{
			"fast_ma": currFast,
			"slow_ma": currSlow,
			"type":    kind,
		},
	}}, nil
}

// calculateConfidence returns higher confidence for larger divergence
func (m *MACrossover) calculateConfidence(fast, slow float64) float64 {
	diff := (fast - slow) / slow
	if diff < 0 {
		diff = -diff
	}

	// Scale to 0.5-0.9 range based on divergence
	confidence := 0.5 + (diff * 10)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return confidence
}
