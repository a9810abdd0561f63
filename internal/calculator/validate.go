package calculator

import (
	"errors"
	"fmt"
	"math"

	"GapSentinel/internal/model"
)

// ErrMalformedInput marks a candle series that cannot be replayed.
var ErrMalformedInput = errors.New("malformed candle series")

// ValidateBars checks that bars are strictly chronological and carry finite,
// positive prices with high >= low and a non-negative volume.
func ValidateBars(bars []model.OHLCV) error {
	for i, b := range bars {
		for _, p := range []struct {
			name string
			v    float64
		}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}} {
			if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
				return fmt.Errorf("%w: bar %d %s=%v", ErrMalformedInput, i, p.name, p.v)
			}
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: bar %d high %v below low %v", ErrMalformedInput, i, b.High, b.Low)
		}
		if math.IsNaN(b.Volume) || b.Volume < 0 {
			return fmt.Errorf("%w: bar %d volume=%v", ErrMalformedInput, i, b.Volume)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s not after %s", ErrMalformedInput, i,
				b.Time.Format("2006-01-02 15:04:05"), bars[i-1].Time.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
