package core

import "time"

// Market represents a trading venue
type Market string

const (
	MarketTW   Market = "TW"   // Taiwan Stock Exchange (.TW)
	MarketTWO  Market = "TWO"  // Taipei Exchange / OTC (.TWO)
	MarketTWIX Market = "TWIX" // Index symbols such as ^TWII
)

// OHLCV represents a daily bar. Bars handed to the backtest engine are
// ordered by Time with no duplicate dates.
type OHLCV struct {
	Symbol   string
	Interval string // "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// Closes extracts the close prices of a bar series.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the traded volume of a bar series.
func Volumes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// Info carries the descriptive and fundamental fields a collector can
// supply for a symbol. Nil pointers mean the source did not report a value.
type Info struct {
	Symbol           string
	Name             string
	Sector           string
	Industry         string
	MarketCap        float64
	PERatio          *float64
	ForwardPE        *float64
	DividendYield    *float64
	RevenueGrowth    *float64
	ProfitMargin     *float64
	FiftyDayAvg      *float64
	TwoHundredDayAvg *float64
}

// DisplayName returns the name, falling back to the symbol.
func (i Info) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Symbol
}

// Action represents a trading signal action
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Signal represents a trading signal from a strategy
type Signal struct {
	ID          string // assigned when the signal is logged
	Symbol      string
	Action      Action
	Confidence  float64
	Price       float64 // Close of the bar that produced the signal
	Reason      string
	Strategy    string
	Metadata    map[string]any
	GeneratedAt time.Time
}
