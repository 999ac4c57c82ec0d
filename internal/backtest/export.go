package backtest

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// LedgerRow is the CSV shape of a closed trade. Money is rounded to cents and
// percentages are expressed in percent.
type LedgerRow struct {
	Symbol      string `csv:"symbol"`
	EntryDate   string `csv:"entry_date"`
	EntryPrice  string `csv:"entry_price"`
	ExitDate    string `csv:"exit_date"`
	ExitPrice   string `csv:"exit_price"`
	Shares      int64  `csv:"shares"`
	PnL         string `csv:"pnl"`
	PnLPct      string `csv:"pnl_pct"`
	HoldingDays int    `csv:"holding_days"`
	EntryReason string `csv:"entry_reason"`
	ExitKind    string `csv:"exit_kind"`
	ExitReason  string `csv:"exit_reason"`
}

// EquityRow is the CSV shape of an equity sample
type EquityRow struct {
	Date   string `csv:"date"`
	Equity string `csv:"equity"`
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// LedgerRows converts trades into their tabular form.
func LedgerRows(trades []Trade) []*LedgerRow {
	rows := make([]*LedgerRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, &LedgerRow{
			Symbol:      t.Symbol,
			EntryDate:   t.EntryDate.Format(dateLayout),
			EntryPrice:  Round2(t.EntryPrice).String(),
			ExitDate:    t.ExitDate.Format(dateLayout),
			ExitPrice:   Round2(t.ExitPrice).String(),
			Shares:      t.Shares,
			PnL:         Round2(t.PnL).String(),
			PnLPct:      Round2(t.PnLPct * 100).String(),
			HoldingDays: t.HoldingDays,
			EntryReason: t.EntryReason,
			ExitKind:    string(t.ExitKind),
			ExitReason:  t.ExitReason,
		})
	}
	return rows
}

// WriteLedgerCSV writes the trade ledger with a header row.
func WriteLedgerCSV(w io.Writer, trades []Trade) error {
	return gocsv.Marshal(LedgerRows(trades), w)
}

// WriteEquityCSV writes the equity curve with a header row.
func WriteEquityCSV(w io.Writer, curve []EquitySample) error {
	rows := make([]*EquityRow, 0, len(curve))
	for _, s := range curve {
		rows = append(rows, &EquityRow{
			Date:   s.Date.Format(dateLayout),
			Equity: Round2(s.Equity).String(),
		})
	}
	return gocsv.Marshal(rows, w)
}
