package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"BarSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

var yahooIntervals = map[string]model.Granularity{
	"1m":  model.M1,
	"2m":  model.M2,
	"5m":  model.M5,
	"15m": model.M15,
	"30m": model.M30,
	"60m": model.H1,
	"90m": model.M90,
	"1d":  model.Daily,
	"1wk": model.Weekly,
	"1mo": model.Monthly,
	"3mo": model.Quarterly,
}

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	client    *resty.Client
	throttle  *Throttler
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, throttle *Throttler) *YahooFetcher {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		client:   client,
		throttle: throttle,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// LookupInstrument maps the symbol without a network call; unknown tickers fail on fetch.
func (f *YahooFetcher) LookupInstrument(_ context.Context, name string) (model.Instrument, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Instrument{}, fmt.Errorf("%w: empty symbol", ErrSymbolNotFound)
	}
	inst := model.NewInstrument(name, f.yahooSymbol(name))
	inst.DisplayDigits = 2
	return inst, nil
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func yahooInterval(g model.Granularity) (string, bool) {
	for code, yg := range yahooIntervals {
		if yg.Equal(g) {
			return code, true
		}
	}
	return "", false
}

func (f *YahooFetcher) FetchBars(ctx context.Context, inst model.Instrument, g model.Granularity, since time.Time) ([]model.Bar, error) {
	interval, ok := yahooInterval(g)
	if !ok {
		return nil, fmt.Errorf("yahoo: %w: %s", ErrUnsupportedGranularity, g)
	}
	params := map[string]string{
		"interval": interval,
		"period2":  strconv.FormatInt(time.Now().Unix(), 10),
	}
	if since.IsZero() {
		params["range"] = "max"
		delete(params, "period2")
	} else {
		params["period1"] = strconv.FormatInt(since.Add(-g.Duration()).Unix(), 10)
	}

	if err := f.throttle.Acquire(ctx); err != nil {
		return nil, err
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/v8/finance/chart/" + url.PathEscape(inst.RefID))
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	switch resp.StatusCode() {
	case 200:
	case 404:
		return nil, fmt.Errorf("yahoo: %w: %s", ErrSymbolNotFound, inst.Name)
	case 429:
		return nil, fmt.Errorf("yahoo: %w", ErrRateLimited)
	case 502, 503, 504:
		return nil, fmt.Errorf("yahoo: status %d: %w", resp.StatusCode(), ErrServiceUnavailable)
	default:
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.Bar{
			Time:   closingMicros(ts, g),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	return bars, nil
}

// closingMicros turns an opening time in seconds into the bar's closing
// instant. Daily and longer bars are stamped with their UTC date.
func closingMicros(openSec int64, g model.Granularity) int64 {
	t := time.Unix(openSec, 0).UTC()
	if g.IsIntraday() {
		return model.Micros(t.Add(g.Duration()))
	}
	return model.Micros(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}
