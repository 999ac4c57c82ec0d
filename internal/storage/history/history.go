// Package history caches fetched market data inside an archive.Storage,
// one directory per calendar day.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/storage/archive"
	"github.com/parquet-go/parquet-go"
)

const dayLayout = "2006-01-02"

// BarRecord is the Parquet schema for cached daily bars.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Interval  string  `parquet:"interval"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

// Cache stores bars at data/<YYYY-MM-DD>/<SYMBOL>_history.parquet and basic
// info at data/<YYYY-MM-DD>/<SYMBOL>_info.json.
type Cache struct {
	store archive.Storage
	root  string
}

// NewCache creates a cache rooted at "data" inside store.
func NewCache(store archive.Storage) *Cache {
	return &Cache{store: store, root: "data"}
}

func (c *Cache) historyPath(symbol string, day time.Time) string {
	return fmt.Sprintf("%s/%s/%s_history.parquet", c.root, day.Format(dayLayout), symbol)
}

func (c *Cache) infoPath(symbol string, day time.Time) string {
	return fmt.Sprintf("%s/%s/%s_info.json", c.root, day.Format(dayLayout), symbol)
}

// PutHistory stores bars for symbol under day.
func (c *Cache) PutHistory(ctx context.Context, symbol string, day time.Time, bars []core.OHLCV) error {
	data, err := EncodeBars(bars)
	if err != nil {
		return err
	}
	if err := c.store.Write(ctx, c.historyPath(symbol, day), data); err != nil {
		return fmt.Errorf("writing history cache: %w", err)
	}
	return nil
}

// GetHistory returns the bars cached for symbol on day. ok is false on a
// cache miss.
func (c *Cache) GetHistory(ctx context.Context, symbol string, day time.Time) (bars []core.OHLCV, ok bool, err error) {
	data, err := c.store.Read(ctx, c.historyPath(symbol, day))
	if err != nil {
		if errors.Is(err, core.ErrNoData) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading history cache: %w", err)
	}
	bars, err = DecodeBars(data)
	if err != nil {
		return nil, false, err
	}
	return bars, true, nil
}

// PutInfo stores basic info for symbol under day.
func (c *Cache) PutInfo(ctx context.Context, day time.Time, info *core.Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding info: %w", err)
	}
	return c.store.Write(ctx, c.infoPath(info.Symbol, day), data)
}

// GetInfo returns the info cached for symbol on day.
func (c *Cache) GetInfo(ctx context.Context, symbol string, day time.Time) (*core.Info, bool, error) {
	data, err := c.store.Read(ctx, c.infoPath(symbol, day))
	if err != nil {
		if errors.Is(err, core.ErrNoData) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading info cache: %w", err)
	}
	var info core.Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, false, fmt.Errorf("decoding info: %w", err)
	}
	return &info, true, nil
}

// Days lists the cached days, oldest first.
func (c *Cache) Days(ctx context.Context) ([]time.Time, error) {
	paths, err := c.store.List(ctx, c.root)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var days []time.Time
	for _, p := range paths {
		// data/<day>/<file>
		if len(p) < len(c.root)+1+len(dayLayout) {
			continue
		}
		s := p[len(c.root)+1 : len(c.root)+1+len(dayLayout)]
		if seen[s] {
			continue
		}
		d, err := time.Parse(dayLayout, s)
		if err != nil {
			continue
		}
		seen[s] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// Prune deletes cached days strictly before cutoff and returns how many
// files were removed.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	days, err := c.Days(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, d := range days {
		if !d.Before(cutoff) {
			break
		}
		paths, err := c.store.List(ctx, fmt.Sprintf("%s/%s", c.root, d.Format(dayLayout)))
		if err != nil {
			return removed, err
		}
		for _, p := range paths {
			if err := c.store.Delete(ctx, p); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// EncodeBars serialises bars as a Parquet file.
func EncodeBars(bars []core.OHLCV) ([]byte, error) {
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Symbol:    b.Symbol,
			Interval:  b.Interval,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	var buf bytes.Buffer
	if err := parquet.Write(&buf, records); err != nil {
		return nil, fmt.Errorf("encoding parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBars parses a Parquet file written by EncodeBars. Times are UTC.
func DecodeBars(data []byte) ([]core.OHLCV, error) {
	records, err := parquet.Read[BarRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding parquet: %w", err)
	}
	bars := make([]core.OHLCV, len(records))
	for i, r := range records {
		bars[i] = core.OHLCV{
			Symbol:   r.Symbol,
			Interval: r.Interval,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			Time:     time.UnixMilli(r.Timestamp).UTC(),
		}
	}
	return bars, nil
}
