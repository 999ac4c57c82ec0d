package backtest

import (
	"time"
)

// ExitKind classifies why a position was closed
type ExitKind string

const (
	ExitTakeProfit    ExitKind = "take_profit"
	ExitStopLoss      ExitKind = "stop_loss"
	ExitRSIOverbought ExitKind = "rsi_overbought"
	ExitTrailingStop  ExitKind = "trailing_stop"
	ExitEndOfRun      ExitKind = "end_of_backtest"
)

// NoSignalNote is attached to results that carry no metrics.
const NoSignalNote = "no trading signal: not enough price history"

// Trade is one position from entry to exit. Exit fields are zero while the
// position is open.
type Trade struct {
	Symbol      string    `json:"symbol"`
	EntryDate   time.Time `json:"entry_date"`
	EntryPrice  float64   `json:"entry_price"`
	Shares      int64     `json:"shares"`
	EntryReason string    `json:"entry_reason"`

	ExitDate    time.Time `json:"exit_date"`
	ExitPrice   float64   `json:"exit_price"`
	ExitKind    ExitKind  `json:"exit_kind"`
	ExitReason  string    `json:"exit_reason"`
	PnL         float64   `json:"pnl"`     // Net of commission and tax
	PnLPct      float64   `json:"pnl_pct"` // PnL over entry value
	HoldingDays int       `json:"holding_days"`
}

// IsWin returns true if the trade made money after costs
func (t Trade) IsWin() bool {
	return t.PnL > 0
}

// IsClosed returns true if the trade has an exit
func (t Trade) IsClosed() bool {
	return t.ExitKind != ""
}

// EntryValue is the cash committed at entry
func (t Trade) EntryValue() float64 {
	return t.EntryPrice * float64(t.Shares)
}

// EquitySample is the account value at the close of one simulated day
type EquitySample struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Metrics holds performance statistics. Returns and drawdown are fractions.
type Metrics struct {
	TotalReturn    float64 `json:"total_return"`
	AnnualReturn   float64 `json:"annual_return"`
	MaxDrawdown    float64 `json:"max_drawdown"` // <= 0
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgHoldingDays float64 `json:"avg_holding_days"`
	FinalEquity    float64 `json:"final_equity"`
	InitialCapital float64 `json:"initial_capital"`
}

// Result holds the complete backtest output for one symbol.
//
// When NoSignal is set Metrics is nil and Trades is empty; callers must check
// it before reading numbers.
type Result struct {
	Symbol      string         `json:"symbol"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Trades      []Trade        `json:"trades"`
	Metrics     *Metrics       `json:"metrics,omitempty"`
	EquityCurve []EquitySample `json:"equity_curve"`
	NoSignal    bool           `json:"no_signal"`
	Note        string         `json:"note,omitempty"`
}

func noSignal(symbol string) *Result {
	return &Result{
		Symbol:      symbol,
		Trades:      []Trade{},
		EquityCurve: []EquitySample{},
		NoSignal:    true,
		Note:        NoSignalNote,
	}
}
