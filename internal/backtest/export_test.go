package backtest

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteLedgerCSV(t *testing.T) {
	tr := openTrade("2330.TW", day0, 100, 1000, "RSI rebound (30→36), above MA60")
	tr.close(day0.AddDate(0, 0, 30), 120, ExitTakeProfit, "take profit (+20.0%)", 0.001425, 0.003)

	var buf bytes.Buffer
	if err := WriteLedgerCSV(&buf, []Trade{*tr}); err != nil {
		t.Fatalf("WriteLedgerCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "symbol,entry_date,entry_price") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	for _, want := range []string{"2330.TW", "2023-01-02", "2023-02-01", "19326.5", "19.33", "take_profit"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row %q missing %q", lines[1], want)
		}
	}
}

func TestWriteEquityCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEquityCSV(&buf, curve(1_000_000, 1_004_000.456)); err != nil {
		t.Fatalf("WriteEquityCSV: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "date,equity") {
		t.Errorf("missing header: %s", out)
	}
	if !strings.Contains(out, "2023-01-03,1004000.46") {
		t.Errorf("missing rounded row: %s", out)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{19326.5, "19326.5"},
		{0.125, "0.13"},
		{-2.675, "-2.68"},
		{100, "100"},
	}
	for _, tt := range tests {
		if got := Round2(tt.in).String(); got != tt.want {
			t.Errorf("Round2(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
