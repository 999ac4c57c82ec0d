package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	tradingDaysPerYear = 252
	riskFreeAnnual     = 0.02
)

// CalculateMetrics summarises a finished run. It returns nil for an empty
// equity curve, which callers surface as a no-signal result.
func CalculateMetrics(trades []Trade, curve []EquitySample, initialCapital float64) *Metrics {
	if len(curve) == 0 {
		return nil
	}

	finalEquity := curve[len(curve)-1].Equity
	totalReturn := finalEquity/initialCapital - 1

	days := calendarDays(curve[0].Date, curve[len(curve)-1].Date)
	annualReturn := math.Pow(1+totalReturn, 365/float64(max(days, 1))) - 1

	var winning int
	var holding float64
	for _, t := range trades {
		if t.IsWin() {
			winning++
		}
		holding += float64(t.HoldingDays)
	}

	m := &Metrics{
		TotalReturn:    totalReturn,
		AnnualReturn:   annualReturn,
		MaxDrawdown:    calculateMaxDrawdown(curve),
		SharpeRatio:    calculateSharpeRatio(curve),
		TotalTrades:    len(trades),
		WinningTrades:  winning,
		LosingTrades:   len(trades) - winning,
		FinalEquity:    finalEquity,
		InitialCapital: initialCapital,
	}
	if len(trades) > 0 {
		m.WinRate = float64(winning) / float64(len(trades))
		m.AvgHoldingDays = holding / float64(len(trades))
	}
	return m
}

// calculateMaxDrawdown returns the deepest fall of equity below its running
// maximum, as a non-positive fraction.
func calculateMaxDrawdown(curve []EquitySample) float64 {
	var maxDD float64
	peak := math.Inf(-1)

	for _, s := range curve {
		peak = math.Max(peak, s.Equity)
		if dd := s.Equity/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// dailyReturns converts an equity curve into day-over-day percentage changes.
func dailyReturns(curve []EquitySample) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		returns = append(returns, curve[i].Equity/curve[i-1].Equity-1)
	}
	return returns
}

// calculateSharpeRatio annualises the mean daily excess return over a 2%
// risk-free rate. Zero when there are fewer than two returns or no variance.
func calculateSharpeRatio(curve []EquitySample) float64 {
	returns := dailyReturns(curve)
	if len(returns) < 2 {
		return 0
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return (mean - riskFreeAnnual/tradingDaysPerYear) / std * math.Sqrt(tradingDaysPerYear)
}
