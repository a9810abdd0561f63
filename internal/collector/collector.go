package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"GapSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price   float64
	Bars    map[string][]model.OHLCV
	Volumes []model.SymbolVolume
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error) {
	if bars, ok := m.Bars[symbol]; ok {
		if len(bars) > limit {
			bars = bars[len(bars)-limit:]
		}
		return bars, nil
	}
	step, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	return generateMockBars(m.Price, limit, step), nil
}

func (m *MockFetcher) FetchVolumes(_ context.Context) ([]model.SymbolVolume, error) {
	if m.Volumes != nil {
		return m.Volumes, nil
	}
	return []model.SymbolVolume{
		{Symbol: "BTCUSDT", QuoteVolume: 9e9},
		{Symbol: "ETHUSDT", QuoteVolume: 5e9},
		{Symbol: "SOLUSDT", QuoteVolume: 2e9},
	}, nil
}

// generateMockBars oscillates around basePrice so gaps and dips both occur.
func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := time.Now().UTC().Truncate(step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.04*math.Sin(float64(i)/6))
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.004,
			Low:    p * 0.996,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Options configures symbol selection and the replay window.
type Options struct {
	Symbols    []string // explicit list; skips ranking when set
	QuoteAsset string
	Exclude    []string
	TopN       int
	Watch      int // simulate only the first Watch ranked symbols; 0 keeps all
	Timeframe  string
	Limit      int
}

// Collector selects symbols and fetches their candle windows.
type Collector struct {
	Fetcher Fetcher
	Options Options
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options) *Collector {
	return &Collector{Fetcher: fetcher, Options: opts}
}

// SelectSymbols returns the configured symbols, or the top symbols by 24h quote volume.
func (c *Collector) SelectSymbols(ctx context.Context) ([]string, error) {
	if len(c.Options.Symbols) > 0 {
		return append([]string(nil), c.Options.Symbols...), nil
	}
	vols, err := c.Fetcher.FetchVolumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch volumes: %w", err)
	}
	symbols := RankByQuoteVolume(vols, c.Options.QuoteAsset, c.Options.Exclude, c.Options.TopN)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no %s symbols available from %s", c.Options.QuoteAsset, c.Fetcher.Name())
	}
	if w := c.Options.Watch; w > 0 && w < len(symbols) {
		symbols = symbols[:w]
	}
	return symbols, nil
}

// Collect fetches one symbol's replay window.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.CandleSeries, error) {
	bars, err := c.Fetcher.FetchCandles(ctx, symbol, c.Options.Timeframe, c.Options.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s candles: %w", symbol, err)
	}
	return &model.CandleSeries{
		Symbol:    symbol,
		Timeframe: c.Options.Timeframe,
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}

// RankByQuoteVolume keeps symbols quoted in quote that contain none of the
// excluded tokens, sorted by quote volume descending, capped at limit.
func RankByQuoteVolume(vols []model.SymbolVolume, quote string, exclude []string, limit int) []string {
	quote = strings.ToUpper(quote)
	kept := make([]model.SymbolVolume, 0, len(vols))
outer:
	for _, v := range vols {
		sym := strings.ToUpper(v.Symbol)
		if quote != "" && !strings.HasSuffix(sym, quote) {
			continue
		}
		for _, ex := range exclude {
			if ex != "" && strings.Contains(sym, strings.ToUpper(ex)) {
				continue outer
			}
		}
		kept = append(kept, v)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].QuoteVolume > kept[j].QuoteVolume })
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]string, len(kept))
	for i, v := range kept {
		out[i] = v.Symbol
	}
	return out
}

var timeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseTimeframe maps a kline interval such as "15m" to its duration.
func ParseTimeframe(tf string) (time.Duration, error) {
	d, ok := timeframes[tf]
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe %q", tf)
	}
	return d, nil
}
