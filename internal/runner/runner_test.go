package runner

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GapSentinel/internal/collector"
	"GapSentinel/internal/metrics"
	"GapSentinel/internal/model"
	"GapSentinel/internal/strategy"
)

var t0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, high, low, close float64) model.OHLCV {
	return model.OHLCV{
		Time:   t0.Add(time.Duration(i) * 15 * time.Minute),
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 10,
	}
}

func fixtures() map[string][]model.OHLCV {
	return map[string][]model.OHLCV{
		// dip to level 2, exit on bar 2 with profit 2
		"AAAUSDT": {bar(0, 101, 99.5, 100), bar(1, 97, 95, 96), bar(2, 99.2, 98.5, 99), bar(3, 100.5, 99.5, 100)},
		// exit on bar 0 with profit 10
		"BBBUSDT": {bar(0, 111, 109, 110), bar(1, 106, 104, 105), bar(2, 103, 101, 102), bar(3, 101, 99, 100)},
		// no gap
		"CCCUSDT": {bar(0, 101, 99, 100), bar(1, 101, 99, 100), bar(2, 101, 99, 100)},
		// duplicate timestamps
		"DDDUSDT": {bar(0, 101, 99, 100), bar(0, 101, 99, 100), bar(1, 101, 99, 100)},
	}
}

func newRunner(t *testing.T, symbols []string, m *metrics.Metrics) *Runner {
	t.Helper()
	col := collector.NewCollector(&collector.MockFetcher{Bars: fixtures()}, collector.Options{
		Symbols:   symbols,
		Timeframe: "15m",
		Limit:     100,
	})
	return New(col, strategy.DefaultParams(), 3, m)
}

func TestRunner_Run(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := newRunner(t, []string{"AAAUSDT", "BBBUSDT", "CCCUSDT", "DDDUSDT"}, m)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "mock", report.Source)
	assert.Equal(t, "15m", report.Timeframe)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "AAAUSDT", report.Results[0].Symbol)
	assert.Equal(t, "BBBUSDT", report.Results[1].Symbol)
	assert.Equal(t, "CCCUSDT", report.Results[2].Symbol)
	assert.False(t, report.Results[2].HasSignal())
	assert.Equal(t, 2, report.Signals())

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "DDDUSDT", report.Failures[0].Symbol)
	assert.Contains(t, report.Failures[0].Error, "malformed")

	require.Len(t, report.Trades, 2)
	assert.Equal(t, "BBBUSDT", report.Trades[0].Symbol)
	assert.Equal(t, "AAAUSDT", report.Trades[1].Symbol)
	require.Len(t, report.Cumulative, 2)
	assert.Equal(t, 10.0, report.Cumulative[0].Cumulative)
	assert.Equal(t, 12.0, report.Cumulative[1].Cumulative)
	assert.Equal(t, 12.0, report.TotalProfit)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Replays.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Symbols.WithLabelValues("closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Symbols.WithLabelValues("no_signal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Symbols.WithLabelValues("error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.LastRunProfit))
}

func TestRunner_DistinctRunIDs(t *testing.T) {
	r := newRunner(t, []string{"CCCUSDT"}, nil)
	a, err := r.Run(context.Background())
	require.NoError(t, err)
	b, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Empty(t, a.Trades)
	assert.Zero(t, a.TotalProfit)
}

func TestRunner_SelectionFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	col := collector.NewCollector(&collector.MockFetcher{
		Volumes: []model.SymbolVolume{{Symbol: "BTCEUR", QuoteVolume: 1}},
	}, collector.Options{QuoteAsset: "USDT", TopN: 5, Timeframe: "15m", Limit: 100})

	_, err := New(col, strategy.DefaultParams(), 2, m).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Replays.WithLabelValues("error")))
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(t, []string{"AAAUSDT"}, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_InvalidParams(t *testing.T) {
	r := newRunner(t, []string{"AAAUSDT"}, nil)
	r.Params.TakeProfit = 0.5
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, strategy.ErrInvalidParams)
}

func TestCombine_OrdersByExitTime(t *testing.T) {
	report := &model.Report{Results: []model.SimulationResult{
		{Symbol: "A", Trades: []model.TradeRecord{{Symbol: "A", Profit: 0.1, ExitTime: t0.Add(time.Hour)}}},
		{Symbol: "B", Trades: []model.TradeRecord{{Symbol: "B", Profit: 0.2, ExitTime: t0}}},
		{Symbol: "C", Trades: []model.TradeRecord{{Symbol: "C", Profit: -0.05, ExitTime: t0.Add(time.Hour)}}},
	}}
	Combine(report)

	var order []string
	for _, tr := range report.Trades {
		order = append(order, tr.Symbol)
	}
	assert.Equal(t, []string{"B", "A", "C"}, order)
	assert.Equal(t, []float64{0.2, 0.3, 0.25}, []float64{
		report.Cumulative[0].Cumulative, report.Cumulative[1].Cumulative, report.Cumulative[2].Cumulative,
	})
	assert.Equal(t, 0.25, report.TotalProfit)
}
