package market

import (
	"math"
	"time"
)

// Bar is one daily OHLCV row for a single instrument.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Valid reports whether the bar is usable for simulation.
// Only the close matters: it must be a finite positive number.
func (b Bar) Valid() bool {
	return b.Close > 0 && !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0)
}

// Day truncates t to a UTC calendar date. Every series index, signal
// lookup and equity point is keyed on this normalized form.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
