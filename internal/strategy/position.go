package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"GapSentinel/internal/model"
)

// ErrInvalidPrice is returned for NaN, infinite or non-positive prices.
var ErrInvalidPrice = errors.New("invalid price")

// Position tracks one symbol's staged entries during a single replay.
// It is owned by that replay and must not be shared.
type Position struct {
	symbol   string
	entries  []model.Fill
	avgPrice float64
	quantity float64
	level    int
	status   model.PositionStatus
	history  []model.TradeRecord
	params   Params
}

// NewPosition opens a level-1 position with one fill at entryPrice.
func NewPosition(symbol string, entryPrice float64, params Params) (*Position, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := checkPrice(entryPrice); err != nil {
		return nil, fmt.Errorf("open %s: %w", symbol, err)
	}
	p := &Position{
		symbol: symbol,
		entries: []model.Fill{
			{Quantity: params.InitialQuantity, Price: entryPrice},
		},
		level:  1,
		status: model.StatusOpen,
		params: params,
	}
	p.recompute()
	return p, nil
}

// EvaluateEntry stages at most one re-entry for the current level. The
// threshold is taken against the average price as it stands now, so a
// level-2 check already includes the level-1 fill.
func (p *Position) EvaluateEntry(price float64) (bool, error) {
	if err := checkPrice(price); err != nil {
		return false, err
	}
	if p.status != model.StatusOpen {
		return false, nil
	}
	st, ok := p.params.stage(p.level)
	if !ok {
		return false, nil
	}
	if price > p.avgPrice*st.Factor {
		return false, nil
	}
	p.entries = append(p.entries, model.Fill{Quantity: st.Quantity, Price: price})
	p.recompute()
	p.level = st.Level + 1
	return true, nil
}

// EvaluateExit closes the position when price reaches the take-profit
// multiple of the average price. A closed position never exits again.
func (p *Position) EvaluateExit(price float64, at time.Time) (bool, error) {
	if err := checkPrice(price); err != nil {
		return false, err
	}
	if p.status != model.StatusOpen || price < p.avgPrice*p.params.TakeProfit {
		return false, nil
	}
	profit := (price - p.avgPrice) * p.quantity
	p.status = model.StatusClosed
	p.history = append(p.history, model.TradeRecord{
		Symbol:    p.symbol,
		AvgEntry:  round4(p.avgPrice),
		ExitPrice: round4(price),
		Profit:    round4(profit),
		Quantity:  p.quantity,
		ExitTime:  at,
	})
	return true, nil
}

func (p *Position) Symbol() string               { return p.symbol }
func (p *Position) AvgPrice() float64            { return p.avgPrice }
func (p *Position) Quantity() float64            { return p.quantity }
func (p *Position) Level() int                   { return p.level }
func (p *Position) Status() model.PositionStatus { return p.status }
func (p *Position) Entries() []model.Fill        { return append([]model.Fill(nil), p.entries...) }
func (p *Position) History() []model.TradeRecord {
	return append([]model.TradeRecord(nil), p.history...)
}

// Snapshot copies the position for callers outside the replay.
func (p *Position) Snapshot() model.PositionSnapshot {
	return model.PositionSnapshot{
		Symbol:   p.symbol,
		Entries:  p.Entries(),
		AvgPrice: p.avgPrice,
		Quantity: p.quantity,
		Level:    p.level,
		Status:   p.status,
		History:  p.History(),
	}
}

// recompute sets quantity and the cost-weighted average from the entry log.
func (p *Position) recompute() {
	var qty, cost float64
	for _, f := range p.entries {
		qty += f.Quantity
		cost += f.Quantity * f.Price
	}
	p.quantity = qty
	p.avgPrice = cost / qty
}

func checkPrice(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, v)
	}
	return nil
}

// round4 rounds the exact binary value of v, ties to even.
func round4(v float64) float64 {
	return decimal.NewFromFloatWithExponent(v, -1074).RoundBank(4).InexactFloat64()
}
