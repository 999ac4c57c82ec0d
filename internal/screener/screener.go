// Package screener scores a stock universe against fundamental and
// technical filters and picks the best candidates.
package screener

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/indicator"
)

const (
	// MinHistory is roughly half a year of trading days.
	MinHistory = 120

	rsiPeriod      = 14
	volumeWindow   = 20
	momentumWindow = 20
	sharesPerLot   = 1000
)

// Rules configures the screen.
type Rules struct {
	MinMarketCapBillion float64 // TWD billions; 0 disables
	PEMin               float64
	PEMax               float64
	AboveMA             []int
	RSIMin              float64
	RSIMax              float64
	MinAvgVolumeLots    float64 // board lots of 1000 shares
	ExcludeSymbols      []string
	ExcludeSectors      []string
	MaxSelect           int
}

// DefaultRules returns the stock screen defaults.
func DefaultRules() Rules {
	return Rules{
		MinMarketCapBillion: 50,
		PEMin:               0,
		PEMax:               999,
		AboveMA:             []int{60},
		RSIMin:              0,
		RSIMax:              100,
		MinAvgVolumeLots:    1000,
		MaxSelect:           5,
	}
}

// Result is the outcome of screening one symbol.
type Result struct {
	Symbol  string
	Name    string
	Passed  bool
	Score   int
	Reasons []string
	Fails   []string
	RSI     float64 // NaN when history is too short
	Price   float64
}

// Input bundles what the screen needs for one symbol. Info may be nil.
type Input struct {
	Symbol  string
	History []core.OHLCV
	Info    *core.Info
}

// Summary groups screened symbols.
type Summary struct {
	Selected []Result
	Passed   []Result // sorted by score, highest first
	Failed   []Result
}

func (r *Result) fail(format string, args ...any) {
	r.Passed = false
	r.Fails = append(r.Fails, fmt.Sprintf(format, args...))
}

func (r *Result) award(points int, format string, args ...any) {
	r.Score += points
	r.Reasons = append(r.Reasons, fmt.Sprintf(format, args...))
}

// Screen evaluates one symbol. Every filter runs so the result lists all
// failures, not only the first.
func Screen(symbol string, history []core.OHLCV, info *core.Info, rules Rules) Result {
	if info == nil {
		info = &core.Info{Symbol: symbol}
	}
	res := Result{
		Symbol: symbol,
		Name:   info.DisplayName(),
		Passed: true,
		RSI:    math.NaN(),
	}

	if len(history) < MinHistory {
		res.fail("insufficient data (%d < %d bars)", len(history), MinHistory)
		return res
	}

	closes := core.Closes(history)
	latest := closes[len(closes)-1]
	res.Price = latest

	// Fundamentals
	minCap := rules.MinMarketCapBillion * 1e9
	if info.MarketCap > 0 && info.MarketCap < minCap {
		res.fail("market cap too small (%.0fB < %.0fB)", info.MarketCap/1e9, rules.MinMarketCapBillion)
	}

	if pe := info.PERatio; pe != nil {
		if *pe < rules.PEMin || *pe > rules.PEMax {
			res.fail("PE out of range (%.1f)", *pe)
		} else {
			res.award(1, "PE %.1f reasonable", *pe)
		}
	}

	if g := info.RevenueGrowth; g != nil && *g > 0 {
		res.award(2, "revenue growth %.1f%%", *g*100)
	}

	// Technicals
	for _, period := range rules.AboveMA {
		ma := indicator.Last(indicator.SMA(closes, period))
		if indicator.Defined(ma) && latest > ma {
			res.award(1, "above MA%d", period)
		} else {
			res.fail("below MA%d", period)
		}
	}

	rsi := indicator.Last(indicator.RSI(closes, rsiPeriod))
	res.RSI = rsi
	if rsi < rules.RSIMin || rsi > rules.RSIMax {
		res.fail("RSI %.0f out of range", rsi)
	} else {
		res.award(1, "RSI %.0f", rsi)
	}

	avgVol := indicator.Mean(core.Volumes(history), volumeWindow)
	if avgVol < rules.MinAvgVolumeLots*sharesPerLot {
		res.fail("low volume (%.0f lots)", avgVol/sharesPerLot)
	}

	// Exclusions
	if contains(rules.ExcludeSymbols, symbol) {
		res.fail("on exclusion list")
	}
	if info.Sector != "" && contains(rules.ExcludeSectors, info.Sector) {
		res.fail("sector %s excluded", info.Sector)
	}

	// Short-term momentum bonus
	if len(closes) >= momentumWindow {
		momentum := (latest/closes[len(closes)-momentumWindow] - 1) * 100
		if momentum > 0 && momentum < 15 {
			res.award(1, "20d momentum +%.1f%%", momentum)
		}
	}

	return res
}

// Run screens every input and selects up to rules.MaxSelect of the
// passing symbols. Ties keep input order.
func Run(inputs []Input, rules Rules) Summary {
	var s Summary
	for _, in := range inputs {
		res := Screen(in.Symbol, in.History, in.Info, rules)
		if res.Passed {
			s.Passed = append(s.Passed, res)
		} else {
			s.Failed = append(s.Failed, res)
		}
	}

	sort.SliceStable(s.Passed, func(i, j int) bool { return s.Passed[i].Score > s.Passed[j].Score })

	n := rules.MaxSelect
	if n > len(s.Passed) || n < 0 {
		n = len(s.Passed)
	}
	s.Selected = s.Passed[:n]
	return s
}

// FailureCounts tallies failure reasons across failed results. Reasons are
// keyed without their parenthesised detail, so "low volume (12 lots)" and
// "low volume (40 lots)" count together.
func FailureCounts(failed []Result) map[string]int {
	counts := make(map[string]int)
	for _, r := range failed {
		for _, f := range r.Fails {
			key, _, _ := strings.Cut(f, " (")
			counts[key]++
		}
	}
	return counts
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
