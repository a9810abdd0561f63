package collector

import (
	"context"

	"GapSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchCandles returns the most recent limit bars, oldest first.
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error)
	// FetchVolumes returns 24h quote volume for every listed symbol.
	FetchVolumes(ctx context.Context) ([]model.SymbolVolume, error)
	Name() string
}
