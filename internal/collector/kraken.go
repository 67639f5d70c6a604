package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"BarSentinel/internal/model"
)

const krakenBaseURL = "https://api.kraken.com/0/"

// krakenIntervals lists the OHLC intervals the exchange serves, in minutes.
var krakenIntervals = map[int64]bool{1: true, 5: true, 15: true, 30: true, 60: true, 240: true, 1440: true, 10080: true, 21600: true}

// KrakenFetcher implements Fetcher using the Kraken public REST API.
type KrakenFetcher struct {
	client   *resty.Client
	throttle *Throttler
	logger   *slog.Logger

	mu    sync.Mutex
	pairs map[string]model.Instrument // keyed by upper-case altname and refId
}

// NewKrakenFetcher creates a fetcher with optional proxy support. An empty baseURL uses the public endpoint.
func NewKrakenFetcher(baseURL, proxyURL string, throttle *Throttler, logger *slog.Logger) *KrakenFetcher {
	if baseURL == "" {
		baseURL = krakenBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "BarSentinel")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &KrakenFetcher{client: client, throttle: throttle, logger: logger}
}

func (f *KrakenFetcher) Name() string { return "kraken" }

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// query performs one throttled public call and returns its result payload and headers.
func (f *KrakenFetcher) query(ctx context.Context, path string, params map[string]string) (json.RawMessage, http.Header, error) {
	if err := f.throttle.Acquire(ctx); err != nil {
		return nil, nil, err
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/public/" + path)
	if err != nil {
		return nil, nil, fmt.Errorf("kraken %s: %w", path, err)
	}

	var env krakenEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if resp.StatusCode() == http.StatusServiceUnavailable || resp.StatusCode() == http.StatusBadGateway {
			return nil, nil, fmt.Errorf("kraken %s: status %d: %w", path, resp.StatusCode(), ErrServiceUnavailable)
		}
		return nil, nil, fmt.Errorf("kraken %s: status %d, decode: %w", path, resp.StatusCode(), err)
	}
	if len(env.Error) > 0 {
		return nil, nil, parseAPIError(env.Error[0], path)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, nil, fmt.Errorf("kraken %s: invalid response: no result", path)
	}
	return env.Result, resp.Header(), nil
}

type krakenAssetPair struct {
	Altname      string `json:"altname"`
	Quote        string `json:"quote"`
	PairDecimals int    `json:"pair_decimals"`
}

func (f *KrakenFetcher) loadPairs(ctx context.Context) error {
	if len(f.pairs) > 0 {
		return nil
	}
	raw, _, err := f.query(ctx, "AssetPairs", nil)
	if err != nil {
		return err
	}
	var result map[string]krakenAssetPair
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("kraken AssetPairs: decode: %w", err)
	}
	pairs := make(map[string]model.Instrument, 2*len(result))
	for refID, p := range result {
		inst := model.NewInstrument(p.Altname, refID)
		if p.PairDecimals > 0 {
			inst.DisplayDigits = p.PairDecimals
		}
		inst.Currency = strings.TrimPrefix(p.Quote, "Z")
		pairs[strings.ToUpper(p.Altname)] = inst
		pairs[strings.ToUpper(refID)] = inst
	}
	f.pairs = pairs
	f.logger.Info("kraken asset pairs loaded", "count", len(result))
	return nil
}

// LookupInstrument resolves an altname ("XBTUSD") or pair id ("XXBTZUSD").
func (f *KrakenFetcher) LookupInstrument(ctx context.Context, name string) (model.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadPairs(ctx); err != nil {
		return model.Instrument{}, err
	}
	inst, ok := f.pairs[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return model.Instrument{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return inst, nil
}

// krakenSince returns the OHLC since parameter for a cursor at a closing time.
// Kraken returns rows opening strictly after since, so the bar closing at the
// cursor (opening g earlier) needs one more second: ceil(cursor) - g - 1.
func krakenSince(cursor time.Time, g model.Granularity) int64 {
	return cursor.Add(-time.Nanosecond).Unix() - g.Seconds
}

// FetchBars returns up to the exchange's page size of bars starting with the
// bar that closes at since.
func (f *KrakenFetcher) FetchBars(ctx context.Context, inst model.Instrument, g model.Granularity, since time.Time) ([]model.Bar, error) {
	if g.Months > 0 || g.Seconds%60 != 0 || !krakenIntervals[g.Seconds/60] {
		return nil, fmt.Errorf("kraken: %w: %s", ErrUnsupportedGranularity, g)
	}
	params := map[string]string{
		"pair":     inst.RefID,
		"interval": strconv.FormatInt(g.Seconds/60, 10),
	}
	if !since.IsZero() {
		params["since"] = strconv.FormatInt(krakenSince(since, g), 10)
	}

	raw, header, err := f.query(ctx, "OHLC", params)
	if err != nil {
		return nil, err
	}
	serverTime, err := http.ParseTime(header.Get("Date"))
	if err != nil {
		return nil, fmt.Errorf("kraken OHLC: server Date header: %w", err)
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("kraken OHLC: decode: %w", err)
	}
	delete(result, "last")
	if len(result) == 0 {
		return nil, fmt.Errorf("kraken OHLC: invalid response: empty result")
	}
	var rows [][]interface{}
	for _, v := range result {
		if err := json.Unmarshal(v, &rows); err != nil {
			return nil, fmt.Errorf("kraken OHLC: decode rows: %w", err)
		}
		break
	}

	// rows carry the opening time; intraday bars are stamped with their close
	var shift int64
	if g.IsIntraday() {
		shift = g.Seconds
	}
	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("kraken OHLC: short row of %d fields", len(row))
		}
		ts := min(int64(toFloat(row[0]))+shift, serverTime.Unix())
		bars = append(bars, model.Bar{
			Time:   ts * 1_000_000,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: toFloat(row[6]),
		})
	}
	return bars, nil
}

// toFloat accepts JSON numbers and numeric strings.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
