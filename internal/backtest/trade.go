package backtest

import (
	"fmt"
	"math"
	"time"
)

// lotShares sizes an entry: the capital slice divided by price, rounded down
// to whole lots.
func lotShares(capital, positionSize, price float64, lotSize int64) int64 {
	if price <= 0 || lotSize <= 0 {
		return 0
	}
	lots := math.Floor(capital * positionSize / price / float64(lotSize))
	return int64(lots) * lotSize
}

func openTrade(symbol string, date time.Time, price float64, shares int64, reason string) *Trade {
	return &Trade{
		Symbol:      symbol,
		EntryDate:   date,
		EntryPrice:  price,
		Shares:      shares,
		EntryReason: reason,
	}
}

// close settles the trade at price. Commission is charged on both legs and
// transaction tax on the sell leg only.
func (t *Trade) close(date time.Time, price float64, kind ExitKind, reason string, commission, tax float64) {
	shares := float64(t.Shares)

	gross := (price - t.EntryPrice) * shares
	entryValue := t.EntryValue()
	entryCost := entryValue * commission
	exitCost := price * shares * (commission + tax)

	t.ExitDate = date
	t.ExitPrice = price
	t.ExitKind = kind
	t.ExitReason = reason
	t.PnL = gross - entryCost - exitCost
	t.PnLPct = t.PnL / entryValue
	t.HoldingDays = calendarDays(t.EntryDate, date)
}

// calendarDays counts date boundaries between a and b, ignoring time of day.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// exitCheck returns the first exit rule that fires, in fixed priority:
// take profit, stop loss, RSI overbought, trailing stop. An empty kind means
// hold.
func exitCheck(t *Trade, price, peak, rsi float64, r Rules) (ExitKind, string) {
	unrealized := price/t.EntryPrice - 1
	fromPeak := price/peak - 1

	switch {
	case unrealized >= r.TakeProfit:
		return ExitTakeProfit, fmt.Sprintf("take profit (%+.1f%%)", unrealized*100)
	case unrealized <= r.StopLoss:
		return ExitStopLoss, fmt.Sprintf("stop loss (%+.1f%%)", unrealized*100)
	case rsi > r.RSIOverbought:
		return ExitRSIOverbought, fmt.Sprintf("RSI overbought (%.0f)", rsi)
	case fromPeak <= -r.TrailingStop:
		return ExitTrailingStop, fmt.Sprintf("trailing stop (%.1f%% from peak)", fromPeak*100)
	}
	return "", ""
}

// EntrySignal reports whether RSI crossed up through the oversold level on a
// close above the trend average. The simulator applies it each day while
// flat; the live rsi_rebound strategy applies it to the latest bar.
func EntrySignal(prevRSI, rsi, price, ma float64, r Rules) (bool, string) {
	if prevRSI < r.RSIOversold && rsi >= r.RSIOversold && price > ma {
		return true, fmt.Sprintf("RSI rebound (%.0f→%.0f), above MA%d", prevRSI, rsi, r.MAPeriod)
	}
	return false, ""
}
