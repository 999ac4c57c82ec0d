package indicator

import "math"

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// RollingSMA is SMA aligned with its input: out[i] is the mean of
// prices[i-period+1..i], and NaN where fewer than period samples exist.
func RollingSMA(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(prices) < period {
		return out
	}

	// out[i] depends only on its own window.
	for i := period - 1; i < len(prices); i++ {
		var sum float64
		for _, p := range prices[i-period+1 : i+1] {
			sum += p
		}
		out[i] = sum / float64(period)
	}
	return out
}

// Defined reports whether v carries a value.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// Last returns the final element of an aligned series, NaN when empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// Mean returns the arithmetic mean of the trailing n values, or of all values
// when fewer than n exist. NaN for an empty input.
func Mean(values []float64, n int) float64 {
	if len(values) == 0 || n <= 0 {
		return math.NaN()
	}
	if n > len(values) {
		n = len(values)
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}
