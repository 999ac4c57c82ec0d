package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/twquant/internal/core"
)

// mockCollector for testing
type mockCollector struct {
	name    string
	markets []core.Market
	bars    []core.OHLCV
	info    *core.Info
	err     error
	calls   int
}

func (m *mockCollector) Name() string { return m.name }
func (m *mockCollector) SupportedMarkets() []core.Market {
	if m.markets == nil {
		return []core.Market{core.MarketTW, core.MarketTWO, core.MarketTWIX}
	}
	return m.markets
}
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	m.calls++
	return m.bars, m.err
}
func (m *mockCollector) FetchInfo(ctx context.Context, symbol string) (*core.Info, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

type countingRecorder struct {
	counts map[string]int
}

func (r *countingRecorder) RecordFetch(source, status string) {
	r.counts[source+"/"+status]++
}

func oneBar(symbol string) []core.OHLCV {
	return []core.OHLCV{{Symbol: symbol, Close: 100, Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockCollector{name: "mock"}
	r.Register(mock)

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered collector")
	}

	if c.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", c.Name())
	}
}

func TestRegistry_GetAllKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "b"})
	r.Register(&mockCollector{name: "a"})
	r.Register(&mockCollector{name: "b"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 collectors, got %d", len(all))
	}
	if all[0].Name() != "b" || all[1].Name() != "a" {
		t.Errorf("expected registration order [b a], got [%s %s]", all[0].Name(), all[1].Name())
	}
}

func TestRegistry_FetchHistoryFallback(t *testing.T) {
	failing := &mockCollector{name: "primary", err: errors.New("timeout")}
	backup := &mockCollector{name: "backup", bars: oneBar("2330.TW")}
	rec := &countingRecorder{counts: map[string]int{}}

	r := NewRegistry()
	r.SetRecorder(rec)
	r.Register(failing)
	r.Register(backup)

	bars, err := r.FetchHistory(context.Background(), "2330.TW", time.Time{}, time.Now(), "1d")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(bars) != 1 {
		t.Errorf("expected 1 bar, got %d", len(bars))
	}
	if rec.counts["primary/error"] != 1 || rec.counts["backup/ok"] != 1 {
		t.Errorf("unexpected fetch counts %v", rec.counts)
	}
}

func TestRegistry_FetchHistoryEmptyFallsThrough(t *testing.T) {
	empty := &mockCollector{name: "empty"}
	full := &mockCollector{name: "full", bars: oneBar("2330.TW")}

	r := NewRegistry()
	r.Register(empty)
	r.Register(full)

	bars, err := r.FetchHistory(context.Background(), "2330.TW", time.Time{}, time.Now(), "1d")
	if err != nil || len(bars) != 1 {
		t.Fatalf("FetchHistory = %d bars, %v", len(bars), err)
	}
}

func TestRegistry_FetchHistoryAllFail(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "a", err: errors.New("boom")})
	r.Register(&mockCollector{name: "b"})

	_, err := r.FetchHistory(context.Background(), "2330.TW", time.Time{}, time.Now(), "1d")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("expected joined error to include ErrNoData, got %v", err)
	}
}

func TestRegistry_SkipsUnsupportedMarket(t *testing.T) {
	twOnly := &mockCollector{name: "tw", markets: []core.Market{core.MarketTW}, bars: oneBar("x")}

	r := NewRegistry()
	r.Register(twOnly)

	_, err := r.FetchHistory(context.Background(), "6488.TWO", time.Time{}, time.Now(), "1d")
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Errorf("expected ErrCollectorFailed, got %v", err)
	}
	if twOnly.calls != 0 {
		t.Errorf("unsupported collector should not be called")
	}
}

func TestRegistry_FetchInfo(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "a", err: errors.New("boom")})
	r.Register(&mockCollector{name: "b", info: &core.Info{Symbol: "2330.TW", Name: "TSMC"}})

	info, err := r.FetchInfo(context.Background(), "2330.TW")
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}
	if info.Name != "TSMC" {
		t.Errorf("expected TSMC, got %s", info.Name)
	}
}

func TestRegistry_CanceledContext(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "a", bars: oneBar("x")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.FetchHistory(ctx, "2330.TW", time.Time{}, time.Now(), "1d"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDetectMarket(t *testing.T) {
	tests := []struct {
		symbol   string
		expected core.Market
	}{
		{"2330.TW", core.MarketTW},
		{"0050.TW", core.MarketTW},
		{"6488.TWO", core.MarketTWO},
		{"6488.two", core.MarketTWO},
		{"^TWII", core.MarketTWIX},
	}

	for _, tc := range tests {
		if got := DetectMarket(tc.symbol); got != tc.expected {
			t.Errorf("DetectMarket(%s) = %s, want %s", tc.symbol, got, tc.expected)
		}
	}
}
