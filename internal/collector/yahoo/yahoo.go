package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/newthinker/twquant/internal/core"
)

const (
	chartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	quoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"
)

// validSymbol matches symbols like 2330.TW, 00878.TW, 6488.TWO, ^TWII
var validSymbol = regexp.MustCompile(`^(\^[A-Za-z0-9]{1,10}|[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?)$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance collector
type Yahoo struct {
	client   *http.Client
	chartURL string
	quoteURL string
}

// Option configures the collector.
type Option func(*Yahoo)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(y *Yahoo) { y.client.Timeout = d }
}

// WithBaseURL points both endpoints at base (chart under /v8/finance/chart,
// quote under /v7/finance/quote).
func WithBaseURL(base string) Option {
	return func(y *Yahoo) {
		y.chartURL = base + "/v8/finance/chart"
		y.quoteURL = base + "/v7/finance/quote"
	}
}

// New creates a new Yahoo collector
func New(opts ...Option) *Yahoo {
	y := &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		chartURL: chartURL,
		quoteURL: quoteURL,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketTW, core.MarketTWO, core.MarketTWIX}
}

func (y *Yahoo) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	// Yahoo rejects requests without a browser-like agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; twquant)")

	resp, err := y.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrCollectorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// FetchHistory fetches split and dividend adjusted daily bars.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	yahooInterval := y.toYahooInterval(interval)

	u := fmt.Sprintf("%s/%s?interval=%s&period1=%d&period2=%d&events=div%%2Csplit",
		y.chartURL, url.PathEscape(symbol), yahooInterval, start.Unix(), end.Unix())

	var result chartResponse
	if err := y.get(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for symbol: %s", symbol))
	}

	r := result.Chart.Result[0]
	quotes := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}
	loc := exchangeLocation(r.Meta.ExchangeTimezoneName)

	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if at(quotes.Open, i) == nil || at(quotes.High, i) == nil ||
			at(quotes.Low, i) == nil || at(quotes.Close, i) == nil {
			continue // Skip missing data
		}
		closePrice := *quotes.Close[i]
		factor := 1.0
		if a := at(adj, i); a != nil && closePrice != 0 {
			factor = *a / closePrice
		}
		var volume int64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = *quotes.Volume[i]
		}
		t := time.Unix(ts, 0).In(loc)
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     *quotes.Open[i] * factor,
			High:     *quotes.High[i] * factor,
			Low:      *quotes.Low[i] * factor,
			Close:    closePrice * factor,
			Volume:   volume,
			Time:     time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		})
	}

	return data, nil
}

// FetchInfo fetches name, market cap and valuation fields.
func (y *Yahoo) FetchInfo(ctx context.Context, symbol string) (*core.Info, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s?symbols=%s", y.quoteURL, url.QueryEscape(symbol))

	var result quoteResponse
	if err := y.get(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("fetching quote: %w", err)
	}
	if result.QuoteResponse.Error != nil {
		return nil, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("yahoo error: %s", result.QuoteResponse.Error.Description))
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no quote for symbol: %s", symbol))
	}

	q := result.QuoteResponse.Result[0]
	name := q.LongName
	if name == "" {
		name = q.ShortName
	}
	var marketCap float64
	if q.MarketCap != nil {
		marketCap = *q.MarketCap
	}

	return &core.Info{
		Symbol:           symbol,
		Name:             name,
		Sector:           q.Sector,
		Industry:         q.Industry,
		MarketCap:        marketCap,
		PERatio:          q.TrailingPE,
		ForwardPE:        q.ForwardPE,
		DividendYield:    q.TrailingAnnualDividendYield,
		FiftyDayAvg:      q.FiftyDayAverage,
		TwoHundredDayAvg: q.TwoHundredDayAverage,
	}, nil
}

func (y *Yahoo) toYahooInterval(interval string) string {
	switch interval {
	case "1d", "1wk", "1mo":
		return interval
	default:
		return "1d"
	}
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func exchangeLocation(name string) *time.Location {
	if name == "" {
		name = "Asia/Taipei"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
}

type indicators struct {
	Quote    []quoteIndicator `json:"quote"`
	AdjClose []struct {
		AdjClose []*float64 `json:"adjclose"`
	} `json:"adjclose"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                      string   `json:"symbol"`
	ShortName                   string   `json:"shortName"`
	LongName                    string   `json:"longName"`
	Sector                      string   `json:"sector"`
	Industry                    string   `json:"industry"`
	MarketCap                   *float64 `json:"marketCap"`
	TrailingPE                  *float64 `json:"trailingPE"`
	ForwardPE                   *float64 `json:"forwardPE"`
	TrailingAnnualDividendYield *float64 `json:"trailingAnnualDividendYield"`
	FiftyDayAverage             *float64 `json:"fiftyDayAverage"`
	TwoHundredDayAverage        *float64 `json:"twoHundredDayAverage"`
}
