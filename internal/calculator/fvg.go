package calculator

import (
	"iter"
	"slices"

	"GapSentinel/internal/model"
)

// Gaps yields fair value gaps in bar order. Bar i is compared with bar i-2;
// bar i-1 is never inspected. Fewer than three bars yield nothing.
func Gaps(bars []model.OHLCV) iter.Seq[model.GapEvent] {
	return func(yield func(model.GapEvent) bool) {
		for i := 2; i < len(bars); i++ {
			a, c := bars[i-2], bars[i]
			var ev model.GapEvent
			switch {
			case a.High < c.Low:
				ev = model.GapEvent{Direction: model.GapBullish, Lower: a.High, Upper: c.Low, Time: c.Time}
			case a.Low > c.High:
				ev = model.GapEvent{Direction: model.GapBearish, Lower: c.High, Upper: a.Low, Time: c.Time}
			default:
				continue
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// DetectGaps materializes Gaps. The result is empty, not nil-checked, when no gap exists.
func DetectGaps(bars []model.OHLCV) []model.GapEvent {
	return slices.Collect(Gaps(bars))
}

// LatestGap returns the most recent gap in the series.
func LatestGap(bars []model.OHLCV) (model.GapEvent, bool) {
	var last model.GapEvent
	found := false
	for ev := range Gaps(bars) {
		last, found = ev, true
	}
	return last, found
}
