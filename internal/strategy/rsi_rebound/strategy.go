package rsi_rebound

import (
	"fmt"
	"math"

	"github.com/newthinker/twquant/internal/backtest"
	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/indicator"
	"github.com/newthinker/twquant/internal/strategy"
)

// RSIRebound emits the backtest entry rule as a live buy signal on the
// latest bar, and a sell when RSI crosses into overbought territory.
type RSIRebound struct {
	rules backtest.Rules
}

// New creates the strategy from backtest rules.
func New(rules backtest.Rules) *RSIRebound {
	return &RSIRebound{rules: rules}
}

func (s *RSIRebound) Name() string {
	return "rsi_rebound"
}

func (s *RSIRebound) Description() string {
	return fmt.Sprintf("RSI%d rebound through %.0f above MA%d",
		s.rules.RSIPeriod, s.rules.RSIOversold, s.rules.MAPeriod)
}

func (s *RSIRebound) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{
		Markets:      []core.Market{core.MarketTW, core.MarketTWO},
		PriceHistory: s.rules.Warmup() + 1,
	}
}

func (s *RSIRebound) Analyze(ctx strategy.AnalysisContext) ([]core.Signal, error) {
	if len(ctx.OHLCV) < s.rules.Warmup()+1 {
		return nil, nil // Not enough data
	}

	closes := core.Closes(ctx.OHLCV)
	rsi := indicator.RSI(closes, s.rules.RSIPeriod)
	ma := indicator.RollingSMA(closes, s.rules.MAPeriod)

	n := len(closes) - 1
	price, prevRSI, curRSI, curMA := closes[n], rsi[n-1], rsi[n], ma[n]
	bar := ctx.OHLCV[n]

	meta := map[string]any{
		"rsi":      curRSI,
		"prev_rsi": prevRSI,
		"ma":       curMA,
		"date":     bar.Time.Format("2006-01-02"),
	}

	if ok, reason := backtest.EntrySignal(prevRSI, curRSI, price, curMA, s.rules); ok {
		return []core.Signal{{
			Symbol:      ctx.Symbol,
			Action:      core.ActionBuy,
			Confidence:  s.entryConfidence(price, curMA),
			Price:       price,
			Reason:      reason,
			Metadata:    meta,
			GeneratedAt: ctx.Now,
		}}, nil
	}

	if prevRSI <= s.rules.RSIOverbought && curRSI > s.rules.RSIOverbought {
		return []core.Signal{{
			Symbol:      ctx.Symbol,
			Action:      core.ActionSell,
			Confidence:  0.6,
			Price:       price,
			Reason:      fmt.Sprintf("RSI overbought (%.0f)", curRSI),
			Metadata:    meta,
			GeneratedAt: ctx.Now,
		}}, nil
	}

	return nil, nil
}

// entryConfidence grows with the margin above the trend average, 0.5 to 0.9.
func (s *RSIRebound) entryConfidence(price, ma float64) float64 {
	margin := price/ma - 1
	return math.Min(0.5+margin*5, 0.9)
}
