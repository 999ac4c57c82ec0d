// Package csvfile reads daily bars exported by pandas (DataFrame.to_csv of a
// yfinance history) from a local directory.
package csvfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/newthinker/twquant/internal/core"
)

// row is one line of <SYMBOL>.csv. Extra columns such as Dividends or
// Stock Splits are ignored.
type row struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume float64 `csv:"Volume"`
}

// infoFile mirrors the <SYMBOL>_info.json layout written next to exports.
type infoFile struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Sector           string   `json:"sector"`
	Industry         string   `json:"industry"`
	MarketCap        float64  `json:"market_cap"`
	PERatio          *float64 `json:"pe_ratio"`
	ForwardPE        *float64 `json:"forward_pe"`
	DividendYield    *float64 `json:"dividend_yield"`
	RevenueGrowth    *float64 `json:"revenue_growth"`
	ProfitMargin     *float64 `json:"profit_margin"`
	FiftyDayAvg      *float64 `json:"fifty_day_avg"`
	TwoHundredDayAvg *float64 `json:"two_hundred_day_avg"`
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

// CSVFile implements collector.Collector over a directory of exports.
type CSVFile struct {
	dir string
}

// New creates a collector reading from dir.
func New(dir string) *CSVFile {
	return &CSVFile{dir: dir}
}

func (c *CSVFile) Name() string {
	return "csv"
}

func (c *CSVFile) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketTW, core.MarketTWO, core.MarketTWIX}
}

// candidates lists accepted file names: <SYMBOL><suffix> and the
// underscore form <SYMBOL with . as _>_history<suffix>.
func (c *CSVFile) candidates(symbol, suffix, alt string) []string {
	safe := strings.ReplaceAll(symbol, ".", "_")
	return []string{
		filepath.Join(c.dir, symbol+suffix),
		filepath.Join(c.dir, safe+alt),
	}
}

func (c *CSVFile) open(paths []string, symbol string) (*os.File, error) {
	for _, p := range paths {
		f, err := os.Open(p)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("opening %s: %w", p, err)
		}
	}
	return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no export for %s in %s", symbol, c.dir))
}

// FetchHistory returns the bars in [start, end], oldest first.
func (c *CSVFile) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if strings.ContainsAny(symbol, `/\`) {
		return nil, fmt.Errorf("invalid symbol format: %s", symbol)
	}
	f, err := c.open(c.candidates(symbol, ".csv", "_history.csv"), symbol)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, core.WrapError(core.ErrInvalidData, fmt.Errorf("parsing %s: %w", f.Name(), err))
	}

	bars := make([]core.OHLCV, 0, len(rows))
	for _, r := range rows {
		t, err := parseDate(r.Date)
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidData, err)
		}
		if !start.IsZero() && t.Before(dayOf(start)) {
			continue
		}
		if !end.IsZero() && t.After(end) {
			continue
		}
		if r.Close <= 0 {
			continue
		}
		bars = append(bars, core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   int64(r.Volume),
			Time:     t,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return dedupe(bars), nil
}

// FetchInfo reads <SYMBOL>_info.json when present.
func (c *CSVFile) FetchInfo(ctx context.Context, symbol string) (*core.Info, error) {
	if strings.ContainsAny(symbol, `/\`) {
		return nil, fmt.Errorf("invalid symbol format: %s", symbol)
	}
	f, err := c.open(c.candidates(symbol, "_info.json", "_info.json"), symbol)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var in infoFile
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return nil, core.WrapError(core.ErrInvalidData, fmt.Errorf("parsing %s: %w", f.Name(), err))
	}
	return &core.Info{
		Symbol:           symbol,
		Name:             in.Name,
		Sector:           in.Sector,
		Industry:         in.Industry,
		MarketCap:        in.MarketCap,
		PERatio:          in.PERatio,
		ForwardPE:        in.ForwardPE,
		DividendYield:    in.DividendYield,
		RevenueGrowth:    in.RevenueGrowth,
		ProfitMargin:     in.ProfitMargin,
		FiftyDayAvg:      in.FiftyDayAvg,
		TwoHundredDayAvg: in.TwoHundredDayAvg,
	}, nil
}

// parseDate keeps the calendar date of the exchange-local timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dedupe keeps the last row for each date of a sorted series.
func dedupe(bars []core.OHLCV) []core.OHLCV {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
