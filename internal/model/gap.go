package model

import "time"

// GapDirection is the side of a fair value gap.
type GapDirection string

const (
	GapBullish GapDirection = "bullish"
	GapBearish GapDirection = "bearish"
)

// GapEvent is a price band left untouched between bar i-2 and bar i.
type GapEvent struct {
	Direction GapDirection `json:"direction"`
	Lower     float64      `json:"lower"`
	Upper     float64      `json:"upper"`
	Time      time.Time    `json:"time"` // time of bar i
}
