package indicator

import "math"

// RSIMax is reported when the trailing window has no losses.
const RSIMax = 100.0

// RSI calculates the Relative Strength Index aligned with its input.
//
// Gains and losses are averaged with a plain rolling mean over the trailing
// period deltas (not Wilder smoothing). The first defined value is at index
// period, since period deltas need period+1 prices; earlier entries are NaN.
// A window with zero average loss yields RSIMax.
func RSI(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(prices) <= period {
		return out
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else if delta < 0 {
			losses[i] = -delta
		}
	}

	for i := period; i < len(prices); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		if avgLoss == 0 {
			out[i] = RSIMax
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}

	return out
}
