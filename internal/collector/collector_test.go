package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GapSentinel/internal/model"
)

func TestRankByQuoteVolume(t *testing.T) {
	vols := []model.SymbolVolume{
		{Symbol: "ETHUSDT", QuoteVolume: 500},
		{Symbol: "BTCUSDT", QuoteVolume: 900},
		{Symbol: "BUSDUSDT", QuoteVolume: 10000},
		{Symbol: "BTCUSDC", QuoteVolume: 800},
		{Symbol: "SOLUSDT", QuoteVolume: 300},
		{Symbol: "DOGEUSDT", QuoteVolume: 100},
	}

	got := RankByQuoteVolume(vols, "USDT", []string{"BUSD"}, 3)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, got)

	all := RankByQuoteVolume(vols, "usdt", nil, 0)
	assert.Equal(t, []string{"BUSDUSDT", "BTCUSDT", "ETHUSDT", "SOLUSDT", "DOGEUSDT"}, all)

	assert.Empty(t, RankByQuoteVolume(nil, "USDT", nil, 5))
}

func TestCollector_SelectSymbols(t *testing.T) {
	ctx := context.Background()
	mock := &MockFetcher{Price: 100}

	explicit := NewCollector(mock, Options{Symbols: []string{"XRPUSDT"}, QuoteAsset: "USDT", TopN: 2})
	syms, err := explicit.SelectSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"XRPUSDT"}, syms)

	ranked := NewCollector(mock, Options{QuoteAsset: "USDT", TopN: 2})
	syms, err = ranked.SelectSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, syms)

	watched := NewCollector(mock, Options{QuoteAsset: "USDT", TopN: 3, Watch: 1})
	syms, err = watched.SelectSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, syms)

	wide := NewCollector(mock, Options{QuoteAsset: "USDT", TopN: 2, Watch: 5})
	syms, err = wide.SelectSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, syms)

	explicitWatch := NewCollector(mock, Options{Symbols: []string{"XRPUSDT", "ADAUSDT"}, Watch: 1})
	syms, err = explicitWatch.SelectSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"XRPUSDT", "ADAUSDT"}, syms)

	none := NewCollector(mock, Options{QuoteAsset: "EUR", TopN: 2})
	_, err = none.SelectSymbols(ctx)
	assert.Error(t, err)
}

func TestCollector_CollectMock(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 100}, Options{Timeframe: "15m", Limit: 100})
	series, err := c.Collect(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, series.Bars, 100)
	assert.Equal(t, "BTCUSDT", series.Symbol)
	for i := 1; i < len(series.Bars); i++ {
		assert.Equal(t, 15*time.Minute, series.Bars[i].Time.Sub(series.Bars[i-1].Time))
	}

	_, err = NewCollector(&MockFetcher{Price: 100}, Options{Timeframe: "7m", Limit: 10}).Collect(context.Background(), "X")
	assert.Error(t, err)
}

func TestMockFetcher_FixedBarsTrimmed(t *testing.T) {
	bars := []model.OHLCV{{Close: 1}, {Close: 2}, {Close: 3}}
	m := &MockFetcher{Bars: map[string][]model.OHLCV{"X": bars}}
	got, err := m.FetchCandles(context.Background(), "X", "15m", 2)
	require.NoError(t, err)
	assert.Equal(t, bars[1:], got)
}

func TestBinanceFetcher_FetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		_, _ = w.Write([]byte(`[
			[1740787200000,"100.0","101.5","99.5","101.0","12.5",1740788099999,"0",1,"0","0","0"],
			[1740786300000,"99.0","100.5","98.5","100.0","10",1740787199999,"0",1,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL+"/", "key", "")
	bars, err := f.FetchCandles(context.Background(), "BTCUSDT", "15m", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, time.UnixMilli(1740786300000).UTC(), bars[0].Time)
	assert.Equal(t, model.OHLCV{
		Time: time.UnixMilli(1740787200000).UTC(), Open: 100, High: 101.5, Low: 99.5, Close: 101, Volume: 12.5,
	}, bars[1])
}

func TestBinanceFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":-1003,"msg":"Too many requests"}`))
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL, "", "")
	_, err := f.FetchCandles(context.Background(), "BTCUSDT", "15m", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")

	_, err = f.FetchCandles(context.Background(), "BTCUSDT", "2w", 100)
	assert.Error(t, err)
	_, err = f.FetchCandles(context.Background(), "BTCUSDT", "15m", 0)
	assert.Error(t, err)
}

func TestBinanceFetcher_FetchVolumes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ticker/24hr", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","quoteVolume":"15000000000.5"},
			{"symbol":"ETHUSDT","quoteVolume":"8000000000"},
			{"symbol":"BROKEN","quoteVolume":"n/a"}
		]`))
	}))
	defer srv.Close()

	vols, err := NewBinanceFetcher(srv.URL, "", "").FetchVolumes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.SymbolVolume{
		{Symbol: "BTCUSDT", QuoteVolume: 15000000000.5},
		{Symbol: "ETHUSDT", QuoteVolume: 8000000000},
	}, vols)
}

func writeCSV(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestCSVFetcher(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BTCUSDT.csv", "\ufefftimestamp,open,high,low,close,volume\n"+
		"1740786300,99,100.5,98.5,100,10\n"+
		"2025-03-01T00:00:00Z,100,101.5,99.5,101,12\n"+
		"1740788100000,101,102,100,101.5,8\n")
	writeCSV(t, dir, "ETHUSDT.csv", "Time,Open,High,Low,Close\n"+
		"1740787200,10,11,9,10.5\n")

	f := NewCSVFetcher(dir)
	bars, err := f.FetchCandles(context.Background(), "BTCUSDT", "15m", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 101.5, bars[1].Close)

	eth, err := f.FetchCandles(context.Background(), "ETHUSDT", "15m", 100)
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Zero(t, eth[0].Volume)

	vols, err := f.FetchVolumes(context.Background())
	require.NoError(t, err)
	require.Len(t, vols, 2)
	assert.Equal(t, "BTCUSDT", vols[0].Symbol)
	assert.InDelta(t, 100*10+101*12+101.5*8, vols[0].QuoteVolume, 1e-9)

	_, err = f.FetchCandles(context.Background(), "MISSING", "15m", 10)
	assert.Error(t, err)
}

func TestCSVFetcher_BadRow(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BAD.csv", "time,open,high,low,close,volume\n1740786300,abc,1,1,1,1\n")
	_, err := NewCSVFetcher(dir).FetchCandles(context.Background(), "BAD", "15m", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
