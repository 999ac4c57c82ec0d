package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/twquant/internal/collector"
	"github.com/newthinker/twquant/internal/core"
)

func TestYahoo_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New()
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestYahoo_SupportedMarkets(t *testing.T) {
	y := New()
	for _, sym := range []string{"2330.TW", "6488.TWO", "^TWII"} {
		if !collector.Supports(y, sym) {
			t.Errorf("expected %s to be supported", sym)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol  string
		wantErr bool
	}{
		{"2330.TW", false},
		{"00878.TW", false},
		{"6488.TWO", false},
		{"^TWII", false},
		{"", true},
		{"2330.TW; DROP", true},
		{"../etc", true},
		{"^", true},
	}

	for _, tt := range tests {
		err := validateSymbol(tt.symbol)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
		}
	}
}

// 2024-03-01 and 2024-03-04 09:00 Asia/Taipei, plus a null row.
const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "2330.TW", "currency": "TWD", "exchangeTimezoneName": "Asia/Taipei", "regularMarketPrice": 700},
      "timestamp": [1709254800, 1709341200, 1709514000],
      "indicators": {
        "quote": [{
          "open":   [690, null, 700],
          "high":   [705, null, 712],
          "low":    [688, null, 698],
          "close":  [700, null, 710],
          "volume": [25000000, null, null]
        }],
        "adjclose": [{"adjclose": [350, null, 710]}]
      }
    }],
    "error": null
  }
}`

func TestYahoo_FetchHistory(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	y := New(WithBaseURL(server.URL))
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	bars, err := y.FetchHistory(context.Background(), "2330.TW", start, end, "1d")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}

	if gotPath != "/v8/finance/chart/2330.TW" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if !strings.Contains(gotQuery, "interval=1d") || !strings.Contains(gotQuery, "period1=1709251200") {
		t.Errorf("unexpected query %s", gotQuery)
	}

	if len(bars) != 2 {
		t.Fatalf("expected 2 bars (null row skipped), got %d", len(bars))
	}

	first := bars[0]
	if !first.Time.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected exchange-local date 2024-03-01, got %v", first.Time)
	}
	// adjclose/close = 0.5 scales every price
	if first.Close != 350 || first.Open != 345 || first.High != 352.5 || first.Low != 344 {
		t.Errorf("unexpected adjusted bar %+v", first)
	}
	if first.Volume != 25000000 {
		t.Errorf("expected volume 25000000, got %d", first.Volume)
	}

	second := bars[1]
	if !second.Time.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 2024-03-04, got %v", second.Time)
	}
	if second.Close != 710 || second.Volume != 0 {
		t.Errorf("unexpected bar %+v", second)
	}
}

func TestYahoo_FetchHistoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode *core.Error
	}{
		{"not found", http.StatusNotFound, `{}`, core.ErrSymbolNotFound},
		{"server error", http.StatusInternalServerError, `{}`, core.ErrCollectorFailed},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, core.ErrCollectorFailed},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, core.ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			y := New(WithBaseURL(server.URL))
			_, err := y.FetchHistory(context.Background(), "2330.TW", time.Now().AddDate(-1, 0, 0), time.Now(), "1d")
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode.Code, err)
			}
		})
	}
}

func TestYahoo_FetchHistoryInvalidSymbol(t *testing.T) {
	y := New()
	if _, err := y.FetchHistory(context.Background(), "bad symbol", time.Now(), time.Now(), "1d"); err == nil {
		t.Error("expected error for invalid symbol")
	}
}

func TestYahoo_FetchInfo(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("symbols")
		w.Write([]byte(`{"quoteResponse":{"result":[{
			"symbol":"2330.TW","shortName":"TSMC","longName":"Taiwan Semiconductor Manufacturing Company Limited",
			"marketCap":21000000000000,"trailingPE":24.5,"fiftyDayAverage":680.5,"twoHundredDayAverage":600.1
		}],"error":null}}`))
	}))
	defer server.Close()

	y := New(WithBaseURL(server.URL))
	info, err := y.FetchInfo(context.Background(), "2330.TW")
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}

	if gotQuery != "2330.TW" {
		t.Errorf("unexpected symbols query %q", gotQuery)
	}
	if info.Name != "Taiwan Semiconductor Manufacturing Company Limited" {
		t.Errorf("expected long name, got %q", info.Name)
	}
	if info.MarketCap != 21e12 {
		t.Errorf("unexpected market cap %v", info.MarketCap)
	}
	if info.PERatio == nil || *info.PERatio != 24.5 {
		t.Errorf("unexpected PE %v", info.PERatio)
	}
	if info.ForwardPE != nil {
		t.Errorf("expected nil forward PE, got %v", *info.ForwardPE)
	}
	if info.RevenueGrowth != nil {
		t.Error("quote endpoint does not report revenue growth")
	}
}

func TestYahoo_FetchInfoUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	y := New(WithBaseURL(server.URL))
	if _, err := y.FetchInfo(context.Background(), "9999.TW"); !errors.Is(err, core.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}
