package portfolio

import "time"

// Trade is one closed round trip. Open positions never appear here;
// performance statistics are computed over closed trades only.
type Trade struct {
	Instrument string
	Units      float64 // signed, as held
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	PnL        float64 // realized, net of both commissions
	Reason     string
}

// Won reports whether the trade closed with a positive realized PnL.
func (t Trade) Won() bool { return t.PnL > 0 }

// EquityPoint is one sample of total portfolio value, recorded once per
// simulated day.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}
