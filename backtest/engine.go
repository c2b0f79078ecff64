// Package backtest drives a deterministic day-by-day simulation of
// sentiment signals against daily price history. The engine owns the
// clock and the ordering guarantees: exits are evaluated before entries
// on every bar, and price-based exits beat time-based ones, which beat
// signal-driven ones.
package backtest

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/quantlab/sentiback/market"
	"github.com/quantlab/sentiback/portfolio"
	"github.com/quantlab/sentiback/signal"
)

// ErrConfig marks a configuration error: the only fatal failure mode.
// Bad data degrades per bar or per instrument and never aborts a run.
var ErrConfig = errors.New("invalid backtest config")

// Exit reasons recorded on closed trades. At most one per trade, first
// match wins in the order the engine checks them.
const (
	ExitTrailingStop = "trailing-stop"
	ExitTakeProfit   = "take-profit"
	ExitStopOrTarget = "stop-loss-or-target"
	ExitTime         = "time-exit"
	ExitSignal       = "signal-exit"
	ExitEndOfData    = "end-of-data"
)

type Config struct {
	StartingCash   float64
	CommissionRate float64
	StopLossPct    float64
	TakeProfitPct  float64
	TimeExitDays   int

	// CloseAtEnd liquidates any open positions at the final bar with
	// reason "end-of-data". Off by default: open trades at the end of a
	// run are normally excluded from the trade log.
	CloseAtEnd bool
}

func DefaultConfig() Config {
	return Config{
		StartingCash:   100_000,
		CommissionRate: 0.001,
		StopLossPct:    0.02,
		TakeProfitPct:  0.04,
		TimeExitDays:   5,
	}
}

func (c Config) Validate() error {
	if c.StartingCash <= 0 {
		return fmt.Errorf("%w: starting cash must be positive, got %v", ErrConfig, c.StartingCash)
	}
	if c.StopLossPct <= 0 {
		return fmt.Errorf("%w: stop loss pct must be positive, got %v", ErrConfig, c.StopLossPct)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("%w: take profit pct must be positive, got %v", ErrConfig, c.TakeProfitPct)
	}
	return nil
}

// Engine runs one position-management policy over multi-instrument price
// history. An Engine is stateless across runs: every Run builds a fresh
// portfolio, so engines are safe to share across goroutines.
type Engine struct {
	cfg Config
	log *slog.Logger
}

func NewEngine(cfg Config, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, log: log}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Run walks the union of all trading dates in ascending order and, per
// date, processes instruments in lexicographic order. There is a single
// global clock, so portfolio valuation happens exactly once per date.
//
// Signaled instruments missing from prices (or with empty history) are
// excluded with a warning, not an error.
func (e *Engine) Run(prices map[string]*market.Series, signals map[string]*signal.Series) ([]portfolio.EquityPoint, []portfolio.Trade, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	tradable := make(map[string]*market.Series, len(prices))
	insts := make([]string, 0, len(prices))
	for name, s := range prices {
		if s == nil || s.Len() == 0 {
			e.log.Warn("excluding instrument with empty price history", "instrument", name)
			continue
		}
		tradable[name] = s
		insts = append(insts, name)
	}
	sort.Strings(insts)

	for name := range signals {
		if _, ok := tradable[name]; !ok {
			e.log.Warn("signaled instrument missing from price cache", "instrument", name)
		}
	}

	dates := market.UnionDates(tradable)

	book := portfolio.New(e.cfg.StartingCash, e.cfg.CommissionRate)
	lastClose := make(map[string]float64, len(insts))
	curve := make([]portfolio.EquityPoint, 0, len(dates))
	trades := make([]portfolio.Trade, 0)

	for _, date := range dates {
		for _, inst := range insts {
			bar, ok := tradable[inst].Bar(date)
			if !ok {
				continue
			}
			if !bar.Valid() {
				e.log.Warn("skipping bad price bar",
					"instrument", inst,
					"date", date.Format("2006-01-02"),
					"close", bar.Close)
				continue
			}
			lastClose[inst] = bar.Close

			rec, _ := signals[inst].At(date)
			conviction := signal.ClipConviction(rec.Conviction)

			// Exits before entries: a closed instrument stays flat for
			// the rest of the bar, it cannot re-enter the same day.
			if pos, open := book.Position(inst); open {
				if tr, closed := e.manage(book, pos, bar, rec.Direction, date); closed {
					trades = append(trades, tr)
				}
				continue
			}

			if rec.Direction == signal.Neutral {
				continue
			}
			units := portfolio.SizeUnits(book.Cash, conviction, bar.Close)
			if units == 0 {
				continue
			}

			trailingStop := 0.0
			if rec.Direction == signal.Long {
				trailingStop = bar.Close * (1 - e.cfg.StopLossPct)
			} else {
				units = -units
			}
			book.Open(inst, units, bar.Close, date, trailingStop)
		}

		curve = append(curve, portfolio.EquityPoint{Date: date, Equity: book.Value(lastClose)})
	}

	if e.cfg.CloseAtEnd && len(dates) > 0 {
		final := dates[len(dates)-1]
		for _, inst := range book.OpenInstruments() {
			px, ok := lastClose[inst]
			if !ok {
				continue
			}
			if tr, closed := book.Close(inst, px, final, ExitEndOfData); closed {
				trades = append(trades, tr)
			}
		}
		curve[len(curve)-1].Equity = book.Value(lastClose)
	}

	return curve, trades, nil
}

// manage applies the per-bar exit policy to an open position. First match
// wins and only one reason is ever recorded:
//
//	long:  trailing-stop ratchet, then take-profit
//	short: symmetric stop/target band on entry/close - 1
//	both:  time exit fallback, then signal flip / gone-neutral
func (e *Engine) manage(book *portfolio.Portfolio, pos *portfolio.Position, bar market.Bar, dir signal.Direction, date time.Time) (portfolio.Trade, bool) {
	if pos.Long() {
		pos.Raise(bar.High * (1 - e.cfg.StopLossPct))
		if bar.Close < pos.TrailingStop {
			return book.Close(pos.Instrument, bar.Close, date, ExitTrailingStop)
		}
		if bar.Close/pos.EntryPrice-1 >= e.cfg.TakeProfitPct {
			return book.Close(pos.Instrument, bar.Close, date, ExitTakeProfit)
		}
	} else {
		pnlPct := pos.EntryPrice/bar.Close - 1
		if pnlPct <= -e.cfg.StopLossPct || pnlPct >= e.cfg.TakeProfitPct {
			return book.Close(pos.Instrument, bar.Close, date, ExitStopOrTarget)
		}
	}

	if pos.HeldDays(date) >= e.cfg.TimeExitDays {
		return book.Close(pos.Instrument, bar.Close, date, ExitTime)
	}

	held := signal.Short
	if pos.Long() {
		held = signal.Long
	}
	if dir != held {
		return book.Close(pos.Instrument, bar.Close, date, ExitSignal)
	}

	return portfolio.Trade{}, false
}
