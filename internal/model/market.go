package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// CandleSeries holds one symbol's replay window.
type CandleSeries struct {
	Symbol    string
	Timeframe string
	Bars      []OHLCV
	FetchedAt time.Time
}

// SymbolVolume pairs a symbol with its 24h quote volume, used for ranking.
type SymbolVolume struct {
	Symbol      string
	QuoteVolume float64
}
