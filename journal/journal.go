// Package journal persists backtest runs: the run row itself, every
// closed trade and the daily equity curve, keyed by a ULID run ID.
package journal

import "time"

// TradeRecord is one closed trade as persisted.
type TradeRecord struct {
	RunID      string
	Instrument string
	Units      float64
	EntryPrice float64
	ExitPrice  float64
	EntryDate  time.Time
	ExitDate   time.Time
	PnL        float64
	Reason     string
}

// EquityRecord is one equity-curve point as persisted.
type EquityRecord struct {
	RunID  string
	Date   time.Time
	Equity float64
}

// RunRecord mirrors the runs table: configuration in, summary out.
// CAGR, Sharpe and WinRate are nil when the run could not support them
// (no trades, flat curve) and persist as NULL.
type RunRecord struct {
	RunID   string
	Created time.Time
	Start   time.Time
	End     time.Time

	StartingCash   float64
	CommissionRate float64
	StopLossPct    float64
	TakeProfitPct  float64
	TimeExitDays   int

	FinalEquity float64
	CAGR        *float64
	Sharpe      *float64
	MaxDrawdown float64
	Trades      int
	WinRate     *float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}
