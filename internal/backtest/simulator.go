package backtest

import (
	"fmt"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/indicator"
)

// position tracks the FLAT/OPEN state of a single-symbol account.
type position struct {
	cash  float64
	open  *Trade // nil when flat
	peak  float64
	rules Rules

	trades []Trade
	curve  []EquitySample
}

func (p *position) flat() bool {
	return p.open == nil
}

func (p *position) enter(symbol string, bar core.OHLCV, reason string) bool {
	shares := lotShares(p.rules.InitialCapital, p.rules.PositionSize, bar.Close, p.rules.LotSize)
	cost := bar.Close * float64(shares)
	if shares == 0 || p.cash < cost {
		return false
	}

	p.open = openTrade(symbol, bar.Time, bar.Close, shares, reason)
	p.cash -= cost
	p.peak = bar.Close
	return true
}

func (p *position) exit(bar core.OHLCV, kind ExitKind, reason string) {
	t := p.open
	t.close(bar.Time, bar.Close, kind, reason, p.rules.CommissionRate, p.rules.TaxRate)
	p.cash += bar.Close * float64(t.Shares)
	p.trades = append(p.trades, *t)
	p.open = nil
	p.peak = 0
}

func (p *position) mark(bar core.OHLCV) {
	equity := p.cash
	if p.open != nil {
		equity += float64(p.open.Shares) * bar.Close
	}
	p.curve = append(p.curve, EquitySample{Date: bar.Time, Equity: equity})
}

// Simulate walks history one bar at a time and returns the trade ledger,
// equity curve and metrics for symbol.
//
// History shorter than the warmup window produces a NoSignal result, not an
// error. Unordered dates or non-positive closes are data errors.
func Simulate(symbol string, history []core.OHLCV, rules Rules) (*Result, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := checkHistory(history); err != nil {
		return nil, err
	}

	start := rules.Warmup()
	if len(history) <= start {
		return noSignal(symbol), nil
	}

	closes := core.Closes(history)
	rsi := indicator.RSI(closes, rules.RSIPeriod)
	ma := indicator.RollingSMA(closes, rules.MAPeriod)

	p := &position{
		cash:   rules.InitialCapital,
		rules:  rules,
		trades: []Trade{},
		curve:  make([]EquitySample, 0, len(history)-start),
	}

	for i := start; i < len(history); i++ {
		bar := history[i]

		if !p.flat() {
			p.peak = max(p.peak, bar.Close)
			if kind, reason := exitCheck(p.open, bar.Close, p.peak, rsi[i], rules); kind != "" {
				p.exit(bar, kind, reason)
			}
		}

		if p.flat() {
			if ok, reason := EntrySignal(rsi[i-1], rsi[i], bar.Close, ma[i], rules); ok {
				p.enter(symbol, bar, reason)
			}
		}

		p.mark(bar)
	}

	if !p.flat() {
		p.exit(history[len(history)-1], ExitEndOfRun, "end of backtest")
	}

	return &Result{
		Symbol:      symbol,
		StartDate:   history[start].Time,
		EndDate:     history[len(history)-1].Time,
		Trades:      p.trades,
		Metrics:     CalculateMetrics(p.trades, p.curve, rules.InitialCapital),
		EquityCurve: p.curve,
	}, nil
}

func checkHistory(history []core.OHLCV) error {
	for i, bar := range history {
		if bar.Close <= 0 {
			return core.WrapError(core.ErrInvalidData,
				fmt.Errorf("bar %d (%s) has non-positive close %v", i, bar.Time.Format("2006-01-02"), bar.Close))
		}
		if i > 0 && !bar.Time.After(history[i-1].Time) {
			return core.WrapError(core.ErrInvalidData,
				fmt.Errorf("bar %d (%s) is not after %s", i, bar.Time.Format("2006-01-02"), history[i-1].Time.Format("2006-01-02")))
		}
	}
	return nil
}
