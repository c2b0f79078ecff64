// Package perf computes risk-adjusted performance statistics from a
// finished backtest's equity curve and trade log. Degenerate inputs
// (no trades, a flat curve) report nil fields, never errors.
package perf

import (
	"math"
	"time"

	"github.com/quantlab/sentiback/portfolio"
)

// TradingDays is the annualization convention: CAGR exponents and Sharpe
// scaling both assume 252 trading days per year regardless of the actual
// trading days elapsed.
const TradingDays = 252

// Summary is the performance record for one run. Sharpe, CAGR and
// WinRate are nil when the inputs cannot support them.
type Summary struct {
	CAGR        *float64
	Sharpe      *float64
	MaxDrawdown float64 // peak-to-trough decline, percent (0-100)
	Trades      int
	WinRate     *float64
}

// Summarize reduces an equity curve and trade log to a Summary.
// elapsed days are floored at 1 so a single-day run cannot divide by zero.
func Summarize(curve []portfolio.EquityPoint, trades []portfolio.Trade, start, end time.Time, startingCash float64) Summary {
	s := Summary{
		MaxDrawdown: MaxDrawdown(curve),
		Trades:      len(trades),
	}

	if len(curve) > 0 && startingCash > 0 {
		days := int(end.Sub(start).Hours() / 24)
		if days < 1 {
			days = 1
		}
		final := curve[len(curve)-1].Equity
		cagr := math.Pow(final/startingCash, TradingDays/float64(days)) - 1
		s.CAGR = &cagr
	}

	if sharpe, ok := Sharpe(DailyReturns(curve)); ok {
		s.Sharpe = &sharpe
	}

	if len(trades) > 0 {
		won := 0
		for _, t := range trades {
			if t.Won() {
				won++
			}
		}
		wr := float64(won) / float64(len(trades))
		s.WinRate = &wr
	}

	return s
}

// DailyReturns converts an equity curve into day-over-day percentage
// changes. Points with non-positive equity produce no return.
func DailyReturns(curve []portfolio.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		out = append(out, curve[i].Equity/prev-1)
	}
	return out
}

// Sharpe is the annualized mean/stddev ratio of daily returns. Reports
// false with fewer than 2 returns or zero variance.
func Sharpe(returns []float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0, false
	}
	return mean / std * math.Sqrt(TradingDays), true
}

// MaxDrawdown is the largest observed peak-to-trough decline in the
// equity curve, as a positive percentage.
func MaxDrawdown(curve []portfolio.EquityPoint) float64 {
	var peak, maxDD float64
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - pt.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD * 100
}
