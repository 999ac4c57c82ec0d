// Package report renders backtest and screening results as text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/twquant/internal/backtest"
	"github.com/newthinker/twquant/internal/screener"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var money = message.NewPrinter(language.English)

// FormatResult renders the single-stock summary of a backtest.
func FormatResult(symbol, name string, r *backtest.Result) string {
	if r == nil || r.NoSignal || r.Metrics == nil {
		note := backtest.NoSignalNote
		if r != nil && r.Note != "" {
			note = r.Note
		}
		return fmt.Sprintf("📊 %s %s\n  ⚠️ %s\n", symbol, name, note)
	}

	m := r.Metrics
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 %s %s\n", symbol, name))
	sb.WriteString(fmt.Sprintf("  Total return: %+.1f%%\n", m.TotalReturn*100))
	sb.WriteString(fmt.Sprintf("  Annual return: %+.1f%%\n", m.AnnualReturn*100))
	sb.WriteString(fmt.Sprintf("  Max drawdown: %.1f%%\n", m.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("  Sharpe ratio: %.2f\n", m.SharpeRatio))
	sb.WriteString(fmt.Sprintf("  Win rate: %.0f%% (%d won / %d lost)\n", m.WinRate*100, m.WinningTrades, m.LosingTrades))
	sb.WriteString(fmt.Sprintf("  Trades: %d\n", m.TotalTrades))
	sb.WriteString(fmt.Sprintf("  Avg holding: %.0f days\n", m.AvgHoldingDays))
	sb.WriteString(money.Sprintf("  Final equity: $%.0f (capital $%.0f)", m.FinalEquity, m.InitialCapital))
	return sb.String()
}

// FormatTrades renders one line per trade.
func FormatTrades(trades []backtest.Trade) string {
	var sb strings.Builder
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("  %s buy $%.0f → %s sell $%.0f | %+.1f%% | %s\n",
			t.EntryDate.Format("2006-01-02"), t.EntryPrice,
			t.ExitDate.Format("2006-01-02"), t.ExitPrice,
			t.PnLPct*100, t.ExitReason))
	}
	return sb.String()
}

// WeeklyInput is everything the weekly report shows.
type WeeklyInput struct {
	Date            time.Time
	RulesVersion    string
	UniverseSize    int
	Screening       screener.Summary
	Backtests       map[string]*backtest.Result
	BenchmarkSymbol string
	BenchmarkReturn float64 // fraction over the backtest window
}

// WeekPath is the archive path of the weekly report for t, numbering weeks
// from the first Monday of the year (week 00 before it).
func WeekPath(t time.Time) string {
	return fmt.Sprintf("journal/weekly/%s.md", WeekLabel(t))
}

// WeekLabel formats t as YYYY-WNN with Monday-first week numbers.
func WeekLabel(t time.Time) string {
	weekday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	week := (t.YearDay() - 1 + 7 - weekday) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}

// Weekly renders the weekly markdown report.
func Weekly(in WeeklyInput) string {
	s := in.Screening
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# 📈 Weekly Report — %s\n\n", in.Date.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("> Rules version: %s\n", in.RulesVersion))
	sb.WriteString(fmt.Sprintf("> Universe: %d Taiwan stocks\n", in.UniverseSize))
	sb.WriteString(fmt.Sprintf("> Passed screen: %d\n", len(s.Passed)))
	sb.WriteString(fmt.Sprintf("> Selected: %d\n\n", len(s.Selected)))
	sb.WriteString("---\n\n## 🎯 Selections\n\n")

	if len(s.Selected) == 0 {
		sb.WriteString("No symbol passed the screen this week.\n\n")
	}

	for _, stock := range s.Selected {
		sb.WriteString(fmt.Sprintf("### %s %s\n\n", stock.Symbol, stock.Name))
		sb.WriteString(fmt.Sprintf("**Why:** %s\n\n", strings.Join(stock.Reasons, ", ")))

		if r, ok := in.Backtests[stock.Symbol]; ok {
			writeBacktest(&sb, r, in.BenchmarkReturn)
		}
		sb.WriteString("---\n\n")
	}

	sb.WriteString("## 📊 Benchmark\n\n")
	sb.WriteString(fmt.Sprintf("- %s return over the window: %+.1f%%\n\n", in.BenchmarkSymbol, in.BenchmarkReturn*100))

	sb.WriteString("## 🔍 Screening summary\n\n")
	sb.WriteString("Passed but not selected:\n\n")
	runnersUp := s.Passed[len(s.Selected):]
	if len(runnersUp) > 5 {
		runnersUp = runnersUp[:5]
	}
	for _, stock := range runnersUp {
		sb.WriteString(fmt.Sprintf("- %s %s (score: %d)\n", stock.Symbol, stock.Name, stock.Score))
	}

	sb.WriteString("\nTop reasons for failing:\n\n")
	for _, fc := range topFailures(screener.FailureCounts(s.Failed), 5) {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", fc.reason, fc.count))
	}

	sb.WriteString("\n---\n\n## 💬 To discuss\n\n")
	sb.WriteString("1. Do this week's picks make sense? Any that should not be here?\n")
	sb.WriteString("2. How did the backtests look? Do any rules need tuning?\n")
	sb.WriteString("3. Any symbols to add to the watch list?\n")
	sb.WriteString("4. Events next week to watch (earnings, investor conferences)?\n")

	return sb.String()
}

func writeBacktest(sb *strings.Builder, r *backtest.Result, benchmark float64) {
	if r == nil || r.NoSignal || r.Metrics == nil {
		note := backtest.NoSignalNote
		if r != nil && r.Note != "" {
			note = r.Note
		}
		sb.WriteString(fmt.Sprintf("⚠️ %s\n\n", note))
		return
	}

	m := r.Metrics
	sb.WriteString("**Backtest:**\n")
	sb.WriteString(fmt.Sprintf("- Total return: %+.1f%% (benchmark: %+.1f%%)\n", m.TotalReturn*100, benchmark*100))
	sb.WriteString(fmt.Sprintf("- Annual return: %+.1f%%\n", m.AnnualReturn*100))
	sb.WriteString(fmt.Sprintf("- Max drawdown: %.1f%%\n", m.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("- Sharpe ratio: %.2f\n", m.SharpeRatio))
	sb.WriteString(fmt.Sprintf("- Win rate: %.0f%% (%d trades)\n", m.WinRate*100, m.TotalTrades))
	sb.WriteString(fmt.Sprintf("- Avg holding: %.0f days\n\n", m.AvgHoldingDays))

	if len(r.Trades) == 0 {
		return
	}
	recent := r.Trades
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	sb.WriteString("**Recent trades:**\n")
	for _, t := range recent {
		mark := "🔴"
		if t.PnLPct > 0 {
			mark = "🟢"
		}
		sb.WriteString(fmt.Sprintf("- %s %s → %s | %+.1f%% | %s\n", mark,
			t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"),
			t.PnLPct*100, t.ExitReason))
	}
	sb.WriteString("\n")
}

type failureCount struct {
	reason string
	count  int
}

func topFailures(counts map[string]int, n int) []failureCount {
	out := make([]failureCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, failureCount{reason, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].reason < out[j].reason
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
