package model

import "time"

// PositionStatus is the lifecycle state of a simulated position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// Fill is one staged entry.
type Fill struct {
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// TradeRecord is a closed trade. Prices and profit are rounded to 4 decimals.
type TradeRecord struct {
	Symbol    string    `json:"symbol"`
	AvgEntry  float64   `json:"avg_entry"`
	ExitPrice float64   `json:"exit_price"`
	Profit    float64   `json:"profit"`
	Quantity  float64   `json:"quantity"`
	ExitTime  time.Time `json:"exit_time"`
}

// PositionSnapshot is an immutable copy of a position at the end of a replay.
type PositionSnapshot struct {
	Symbol   string         `json:"symbol"`
	Entries  []Fill         `json:"entries"`
	AvgPrice float64        `json:"avg_price"`
	Quantity float64        `json:"quantity"`
	Level    int            `json:"level"`
	Status   PositionStatus `json:"status"`
	History  []TradeRecord  `json:"history"`
}

// SimulationResult is the outcome of replaying one symbol.
// Position is nil when no gap was found.
type SimulationResult struct {
	Symbol    string            `json:"symbol"`
	Bars      int               `json:"bars"`
	GapCount  int               `json:"gap_count"`
	LatestGap *GapEvent         `json:"latest_gap,omitempty"`
	Position  *PositionSnapshot `json:"position,omitempty"`
	Trades    []TradeRecord     `json:"trades"`
}

// HasSignal reports whether the gap gate opened a position.
func (r *SimulationResult) HasSignal() bool { return r.Position != nil }
