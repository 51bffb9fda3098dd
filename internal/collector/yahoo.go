package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"
	_ "time/tzdata" // exchange time zones

	"golang.org/x/sync/errgroup"

	"TechStocks/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=collector_test -destination=mock_http_client_test.go -source=yahoo.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL     string
	UserAgent   string
	Concurrency int // parallel symbol requests in FetchBatch
	Client      HTTPClient
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c HTTPClient) YahooOption {
	return func(f *YahooFetcher) { f.Client = c }
}

// WithBaseURL points the fetcher at another chart API host.
func WithBaseURL(u string) YahooOption {
	return func(f *YahooFetcher) {
		if u != "" {
			f.BaseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) YahooOption {
	return func(f *YahooFetcher) {
		if ua != "" {
			f.UserAgent = ua
		}
	}
}

// WithConcurrency bounds parallel requests made by FetchBatch.
func WithConcurrency(n int) YahooOption {
	return func(f *YahooFetcher) {
		if n > 0 {
			f.Concurrency = n
		}
	}
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, timeout time.Duration, opts ...YahooOption) *YahooFetcher {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	f := &YahooFetcher{
		BaseURL:     defaultYahooBaseURL,
		UserAgent:   "Mozilla/5.0",
		Concurrency: 4,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp []int64 `json:"timestamp"`
			Events    struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
				Splits map[string]struct {
					Date        int64   `json:"date"`
					Numerator   float64 `json:"numerator"`
					Denominator float64 `json:"denominator"`
				} `json:"splits"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// at returns s[i], or NaN when the value is null or absent.
func at(s []*float64, i int) float64 {
	if i >= len(s) || s[i] == nil {
		return math.NaN()
	}
	return *s[i]
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s&events=div%%2Csplits&includeAdjustedClose=true",
		f.BaseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo fetch %s: %v", ErrProvider, symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo read body %s: %v", ErrProvider, symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: yahoo %s: status %d, body: %s", ErrProvider, symbol, resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: yahoo decode %s: %v", ErrProvider, symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error %s: %s", ErrProvider, symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: yahoo %s: no result", ErrProvider, symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo %s: missing quote indicators", ErrProvider, symbol)
	}

	loc := time.UTC
	if name := result.Meta.ExchangeTimezoneName; name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}
	dayKey := func(ts int64) string { return time.Unix(ts, 0).In(loc).Format("2006-01-02") }

	dividends := make(map[string]float64, len(result.Events.Dividends))
	for _, d := range result.Events.Dividends {
		dividends[dayKey(d.Date)] += d.Amount
	}
	splits := make(map[string]float64, len(result.Events.Splits))
	for _, s := range result.Events.Splits {
		if s.Denominator != 0 {
			splits[dayKey(s.Date)] = s.Numerator / s.Denominator
		}
	}

	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if math.IsNaN(o) && math.IsNaN(h) && math.IsNaN(l) && math.IsNaN(c) {
			continue // skip null bars (holidays etc.)
		}
		// Auto-adjust: scale OHLC so that Close equals the adjusted close.
		if a := at(adj, i); !math.IsNaN(a) && !math.IsNaN(c) && c != 0 {
			ratio := a / c
			o, h, l, c = o*ratio, h*ratio, l*ratio, a
		}
		local := time.Unix(ts, 0).In(loc)
		y, m, d := local.Date()
		key := local.Format("2006-01-02")
		bars = append(bars, model.OHLCV{
			Time:        time.Date(y, m, d, 0, 0, 0, 0, loc),
			Open:        o,
			High:        h,
			Low:         l,
			Close:       c,
			Volume:      at(quote.Volume, i),
			Dividends:   dividends[key],
			StockSplits: splits[key],
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	// Yahoo may repeat the current session as a trailing bar; the last one wins.
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// FetchHistory returns daily bars for a single symbol.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error) {
	return f.fetchChart(ctx, symbol, interval, period)
}

// FetchBatch downloads every symbol and assembles the results into one wide
// table. Duplicate symbols are fetched once. Any failed symbol fails the batch.
func (f *YahooFetcher) FetchBatch(ctx context.Context, symbols []string, period, interval string) (*model.WideTable, error) {
	uniq := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}

	results := make([][]model.OHLCV, len(uniq))
	g, gctx := errgroup.WithContext(ctx)
	limit := f.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, sym := range uniq {
		g.Go(func() error {
			bars, err := f.fetchChart(gctx, sym, interval, period)
			if err != nil {
				return err
			}
			results[i] = bars
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string][]model.OHLCV, len(uniq))
	for i, sym := range uniq {
		series[sym] = results[i]
	}
	return model.WideTableFromSeries(series)
}
