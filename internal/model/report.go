package model

import "time"

// ProfitPoint is one step of the cumulative profit curve.
type ProfitPoint struct {
	Time       time.Time `json:"time"`
	Symbol     string    `json:"symbol"`
	Profit     float64   `json:"profit"`
	Cumulative float64   `json:"cumulative"`
}

// SymbolFailure records a symbol that could not be replayed.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// Report is the combined output of one replay across all selected symbols.
type Report struct {
	RunID       string             `json:"run_id"`
	Source      string             `json:"source"`
	Timeframe   string             `json:"timeframe"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Symbols     []string           `json:"symbols"`
	Results     []SimulationResult `json:"results"`
	Failures    []SymbolFailure    `json:"failures,omitempty"`
	Trades      []TradeRecord      `json:"trades"`
	Cumulative  []ProfitPoint      `json:"cumulative"`
	TotalProfit float64            `json:"total_profit"`
}

// Signals counts symbols that passed the gap gate.
func (r *Report) Signals() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].HasSignal() {
			n++
		}
	}
	return n
}
