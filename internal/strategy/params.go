package strategy

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when a ladder or take-profit setting is unusable.
var ErrInvalidParams = errors.New("invalid strategy params")

// Stage is one rung of the re-entry ladder. While a position sits at Level,
// a price at or below AvgPrice*Factor adds Quantity and moves it to Level+1.
type Stage struct {
	Level    int     `yaml:"level" json:"level"`
	Factor   float64 `yaml:"factor" json:"factor"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
}

// Params configures staged entries and the take-profit exit.
type Params struct {
	Ladder          []Stage
	TakeProfit      float64 // exit multiplier on the average price
	InitialQuantity float64
}

// DefaultLadder is the 3-level scheme: -3% adds 1, then -6% adds 2.
var DefaultLadder = []Stage{
	{Level: 1, Factor: 0.97, Quantity: 1},
	{Level: 2, Factor: 0.94, Quantity: 2},
}

const (
	DefaultTakeProfit      = 1.003
	DefaultInitialQuantity = 1.0
)

// DefaultParams returns the 3% / 6% ladder with a 0.3% take-profit.
func DefaultParams() Params {
	ladder := make([]Stage, len(DefaultLadder))
	copy(ladder, DefaultLadder)
	return Params{
		Ladder:          ladder,
		TakeProfit:      DefaultTakeProfit,
		InitialQuantity: DefaultInitialQuantity,
	}
}

// Validate checks that ladder levels run 1..n without gaps and that every
// factor is a discount and every quantity is positive.
func (p Params) Validate() error {
	for i, s := range p.Ladder {
		if s.Level != i+1 {
			return fmt.Errorf("%w: stage %d has level %d, want %d", ErrInvalidParams, i, s.Level, i+1)
		}
		if s.Factor <= 0 || s.Factor >= 1 {
			return fmt.Errorf("%w: level %d factor %v must be in (0,1)", ErrInvalidParams, s.Level, s.Factor)
		}
		if s.Quantity <= 0 {
			return fmt.Errorf("%w: level %d quantity %v must be positive", ErrInvalidParams, s.Level, s.Quantity)
		}
	}
	if p.TakeProfit <= 1 {
		return fmt.Errorf("%w: take profit %v must be above 1", ErrInvalidParams, p.TakeProfit)
	}
	if p.InitialQuantity <= 0 {
		return fmt.Errorf("%w: initial quantity %v must be positive", ErrInvalidParams, p.InitialQuantity)
	}
	return nil
}

// TerminalLevel is the level after which no further entries are staged.
func (p Params) TerminalLevel() int { return len(p.Ladder) + 1 }

func (p Params) stage(level int) (Stage, bool) {
	if level < 1 || level > len(p.Ladder) {
		return Stage{}, false
	}
	return p.Ladder[level-1], true
}
