package portfolio

import "time"

// Position is the mutable open-position state for one instrument. It is
// created on entry, updated every bar while open and destroyed on exit;
// a portfolio holds at most one per instrument.
type Position struct {
	Instrument string
	Units      float64 // signed: >0 long, <0 short
	EntryPrice float64
	EntryDate  time.Time

	// TrailingStop is maintained for longs only and may only ratchet
	// upward over the life of the position. Zero for shorts.
	TrailingStop float64

	entryCommission float64
}

// Long reports whether the position is on the long side.
func (p *Position) Long() bool { return p.Units > 0 }

// Raise lifts the trailing stop to level if that is an increase. The stop
// never moves down.
func (p *Position) Raise(level float64) {
	if level > p.TrailingStop {
		p.TrailingStop = level
	}
}

// HeldDays is the holding duration in whole calendar days as of date.
func (p *Position) HeldDays(date time.Time) int {
	return int(date.Sub(p.EntryDate).Hours() / 24)
}
