package collector

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/storage/archive"
	"github.com/newthinker/twquant/internal/storage/history"
)

func dailyBars(symbol string, start time.Time, n int) []core.OHLCV {
	bars := make([]core.OHLCV, n)
	for i := range bars {
		bars[i] = core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Close:    100 + float64(i),
			Volume:   1000,
			Time:     start.AddDate(0, 0, i),
		}
	}
	return bars
}

func newTestCached(t *testing.T, src Collector) *Cached {
	t.Helper()
	fs, err := archive.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewCached(src, history.NewCache(fs), nil)
	c.now = func() time.Time { return time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestCached_FetchHistoryHitsCache(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &mockCollector{name: "src", bars: dailyBars("2330.TW", start, 30)}
	c := newTestCached(t, src)
	ctx := context.Background()
	end := start.AddDate(0, 0, 29)

	first, err := c.FetchHistory(ctx, "2330.TW", start, end, "1d")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := c.FetchHistory(ctx, "2330.TW", start, end, "1d")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if src.calls != 1 {
		t.Errorf("expected 1 source call, got %d", src.calls)
	}
	if len(first) != 30 || len(second) != 30 {
		t.Errorf("expected 30 bars each, got %d and %d", len(first), len(second))
	}
}

func TestCached_NarrowerWindowIsClipped(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &mockCollector{name: "src", bars: dailyBars("2330.TW", start, 30)}
	c := newTestCached(t, src)
	ctx := context.Background()

	c.FetchHistory(ctx, "2330.TW", start, start.AddDate(0, 0, 29), "1d")
	got, err := c.FetchHistory(ctx, "2330.TW", start.AddDate(0, 0, 10), start.AddDate(0, 0, 19), "1d")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected cache hit, got %d source calls", src.calls)
	}
	if len(got) != 10 {
		t.Errorf("expected 10 bars, got %d", len(got))
	}
}

func TestCached_WiderWindowRefetches(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &mockCollector{name: "src", bars: dailyBars("2330.TW", start, 30)}
	c := newTestCached(t, src)
	ctx := context.Background()

	c.FetchHistory(ctx, "2330.TW", start, start.AddDate(0, 0, 29), "1d")
	c.FetchHistory(ctx, "2330.TW", start.AddDate(-1, 0, 0), start.AddDate(0, 0, 29), "1d")

	if src.calls != 2 {
		t.Errorf("expected refetch for wider window, got %d source calls", src.calls)
	}
}

func TestCached_FetchInfo(t *testing.T) {
	src := &mockCollector{name: "src", info: &core.Info{Symbol: "2330.TW", Name: "TSMC"}}
	c := newTestCached(t, src)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		info, err := c.FetchInfo(ctx, "2330.TW")
		if err != nil {
			t.Fatalf("FetchInfo: %v", err)
		}
		if info.Name != "TSMC" {
			t.Errorf("expected TSMC, got %s", info.Name)
		}
	}
	if src.calls != 1 {
		t.Errorf("expected 1 source call, got %d", src.calls)
	}
}
