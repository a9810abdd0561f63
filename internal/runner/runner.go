package runner

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"GapSentinel/internal/collector"
	"GapSentinel/internal/metrics"
	"GapSentinel/internal/model"
	"GapSentinel/internal/strategy"
)

// Runner executes one replay across all selected symbols.
type Runner struct {
	Collector *collector.Collector
	Params    strategy.Params
	Workers   int
	Metrics   *metrics.Metrics // optional

	now func() time.Time
}

// New creates a Runner. workers below 1 means sequential.
func New(col *collector.Collector, params strategy.Params, workers int, m *metrics.Metrics) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{Collector: col, Params: params, Workers: workers, Metrics: m, now: time.Now}
}

// Run selects symbols, replays each one independently and combines the
// trade logs. A symbol that fails is reported in Failures; only symbol
// selection failure or cancellation fails the run.
func (r *Runner) Run(ctx context.Context) (*model.Report, error) {
	if err := r.Params.Validate(); err != nil {
		return nil, err
	}
	started := r.now()
	runID := uuid.New().String()

	symbols, err := r.Collector.SelectSymbols(ctx)
	if err != nil {
		r.observeFailure()
		return nil, fmt.Errorf("select symbols: %w", err)
	}
	log.Printf("[INFO] replay %s: %d symbols from %s", runID, len(symbols), r.Collector.Fetcher.Name())

	results := make([]*model.SimulationResult, len(symbols))
	errs := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for i, sym := range symbols {
		g.Go(func() error {
			results[i], errs[i] = r.simulate(gctx, sym)
			return nil
		})
	}
	// workers never fail; per-symbol errors are kept in errs
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		r.observeFailure()
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	report := &model.Report{
		RunID:     runID,
		Source:    r.Collector.Fetcher.Name(),
		Timeframe: r.Collector.Options.Timeframe,
		StartedAt: started,
		Symbols:   symbols,
	}
	for i, sym := range symbols {
		if errs[i] != nil {
			log.Printf("[WARN] replay %s: %s skipped: %v", runID, sym, errs[i])
			report.Failures = append(report.Failures, model.SymbolFailure{Symbol: sym, Error: errs[i].Error()})
			continue
		}
		report.Results = append(report.Results, *results[i])
	}
	Combine(report)
	report.FinishedAt = r.now()

	log.Printf("[INFO] replay %s: %d signals, %d exits, profit %.4f",
		runID, report.Signals(), len(report.Trades), report.TotalProfit)
	if r.Metrics != nil {
		r.Metrics.ObserveReport(report)
	}
	return report, nil
}

func (r *Runner) simulate(ctx context.Context, symbol string) (*model.SimulationResult, error) {
	series, err := r.Collector.Collect(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return strategy.Simulate(symbol, series.Bars, r.Params)
}

func (r *Runner) observeFailure() {
	if r.Metrics != nil {
		r.Metrics.ObserveFailure()
	}
}

// Combine fills Trades, Cumulative and TotalProfit from the per-symbol
// results. Trades are ordered by exit time; ties keep symbol order.
func Combine(report *model.Report) {
	trades := []model.TradeRecord{}
	for i := range report.Results {
		trades = append(trades, report.Results[i].Trades...)
	}
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].ExitTime.Before(trades[j].ExitTime) })

	curve := make([]model.ProfitPoint, 0, len(trades))
	total := decimal.Zero
	for _, t := range trades {
		total = total.Add(decimal.NewFromFloat(t.Profit))
		curve = append(curve, model.ProfitPoint{
			Time:       t.ExitTime,
			Symbol:     t.Symbol,
			Profit:     t.Profit,
			Cumulative: total.InexactFloat64(),
		})
	}
	report.Trades = trades
	report.Cumulative = curve
	report.TotalProfit = total.InexactFloat64()
}
