package backtest

import (
	"time"

	"github.com/newthinker/twquant/internal/core"
)

var day0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// bars builds consecutive daily bars from closes.
func bars(symbol string, closes []float64) []core.OHLCV {
	out := make([]core.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			Volume:   5_000_000,
			Time:     day0.AddDate(0, 0, i),
		}
	}
	return out
}

// pullbackSeries is a 70-day climb from 80 to 100, a four-day pullback to
// 94 and a rebound to 95 on day 74, where RSI14 crosses 35 above MA60.
func pullbackSeries(tail ...float64) []float64 {
	closes := make([]float64, 0, 75+len(tail))
	for i := 0; i < 70; i++ {
		closes = append(closes, 80+20*float64(i)/69)
	}
	closes = append(closes, 98.5, 97, 95.5, 94, 95)
	return append(closes, tail...)
}

func risingSeries(n int, from, to float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return closes
}
