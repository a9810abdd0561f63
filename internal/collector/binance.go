package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"GapSentinel/internal/model"
)

// DefaultBinanceFuturesURL is the USDⓈ-M futures REST base.
const DefaultBinanceFuturesURL = "https://fapi.binance.com"

// BinanceFetcher implements Fetcher using the public Binance futures REST API.
type BinanceFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, apiKey, proxyURL string) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBinanceFuturesURL
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *BinanceFetcher) Name() string { return "binance-futures" }

// FetchCandles reads /fapi/v1/klines. Bar time is the kline open time.
func (f *BinanceFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error) {
	if _, err := ParseTimeframe(timeframe); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1500 {
		return nil, fmt.Errorf("kline limit %d out of range 1..1500", limit)
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	q.Set("limit", strconv.Itoa(limit))

	body, err := f.get(ctx, "/fapi/v1/klines", q)
	if err != nil {
		return nil, err
	}

	// kline: [ openTime, open, high, low, close, volume, closeTime, ... ]
	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	bars := make([]model.OHLCV, 0, len(raw))
	for i, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("decode klines: row %d has %d fields", i, len(row))
		}
		openMs, ok := row[0].(float64)
		if !ok {
			return nil, fmt.Errorf("decode klines: row %d open time %v", i, row[0])
		}
		var vals [5]float64
		for j := range vals {
			v, err := parseNumber(row[j+1])
			if err != nil {
				return nil, fmt.Errorf("decode klines: row %d field %d: %w", i, j+1, err)
			}
			vals[j] = v
		}
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(int64(openMs)).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// binanceTicker is the subset of /fapi/v1/ticker/24hr we use.
type binanceTicker struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
}

// FetchVolumes reads 24h statistics for all futures symbols.
func (f *BinanceFetcher) FetchVolumes(ctx context.Context) ([]model.SymbolVolume, error) {
	body, err := f.get(ctx, "/fapi/v1/ticker/24hr", nil)
	if err != nil {
		return nil, err
	}
	var tickers []binanceTicker
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}
	out := make([]model.SymbolVolume, 0, len(tickers))
	for _, t := range tickers {
		qv, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil {
			continue
		}
		out = append(out, model.SymbolVolume{Symbol: t.Symbol, QuoteVolume: qv})
	}
	return out, nil
}

func (f *BinanceFetcher) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	endpoint := f.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance GET %s: status %d, body: %s", path, resp.StatusCode, string(body))
	}
	return body, nil
}

func parseNumber(v interface{}) (float64, error) {
	switch n := v.(type) {
	case string:
		return strconv.ParseFloat(n, 64)
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
