package strategy

import (
	"fmt"

	"GapSentinel/internal/calculator"
	"GapSentinel/internal/model"
)

// Simulate replays one symbol's bars.
//
// A position is opened only when at least one gap exists; the gap is a gate
// and its bounds are reported but not used for sizing. The position is opened
// at the last close, then every bar's close is fed through EvaluateEntry and
// EvaluateExit in order, stopping at the first exit.
func Simulate(symbol string, bars []model.OHLCV, params Params) (*model.SimulationResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := calculator.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("simulate %s: %w", symbol, err)
	}

	res := &model.SimulationResult{
		Symbol: symbol,
		Bars:   len(bars),
		Trades: []model.TradeRecord{},
	}

	gaps := calculator.DetectGaps(bars)
	res.GapCount = len(gaps)
	if len(gaps) == 0 {
		return res, nil
	}
	latest := gaps[len(gaps)-1]
	res.LatestGap = &latest

	pos, err := NewPosition(symbol, bars[len(bars)-1].Close, params)
	if err != nil {
		return nil, err
	}
	for _, b := range bars {
		if _, err := pos.EvaluateEntry(b.Close); err != nil {
			return nil, fmt.Errorf("simulate %s: %w", symbol, err)
		}
		exited, err := pos.EvaluateExit(b.Close, b.Time)
		if err != nil {
			return nil, fmt.Errorf("simulate %s: %w", symbol, err)
		}
		if exited {
			res.Trades = append(res.Trades, pos.History()...)
			break
		}
	}

	snap := pos.Snapshot()
	res.Position = &snap
	return res, nil
}
