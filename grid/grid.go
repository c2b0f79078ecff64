// Package grid sweeps backtest hyperparameters. Runs are embarrassingly
// parallel: every combination gets its own engine and portfolio, sharing
// only the read-only price cache, which must be fully loaded before
// dispatch.
package grid

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/quantlab/sentiback/backtest"
	"github.com/quantlab/sentiback/market"
	"github.com/quantlab/sentiback/perf"
	"github.com/quantlab/sentiback/signal"
)

// Options controls the sweep. Quantiles are band-edge candidates: every
// (qLow, qHigh) pair with qLow < qHigh is tried.
type Options struct {
	StopLosses  []float64
	TakeProfits []float64
	Quantiles   []float64
	Workers     int              // <= 0 means GOMAXPROCS
	Base        backtest.Config  // cash/commission/time-exit carried into every combo
}

// Combo is one grid point.
type Combo struct {
	StopLoss   float64
	TakeProfit float64
	QLow       float64
	QHigh      float64
}

// Row is the outcome of one combo.
type Row struct {
	Combo
	SignalCount int
	Summary     perf.Summary
}

// Search runs the full sweep and returns one row per combo, in grid
// order (stop-loss, take-profit, then band), independent of scheduling.
func Search(ctx context.Context, prices map[string]*market.Series, signals map[string]*signal.Series, opts Options, log *slog.Logger) ([]Row, error) {
	if log == nil {
		log = slog.Default()
	}

	combos := enumerate(opts)
	if len(combos) == 0 {
		return nil, fmt.Errorf("grid: empty parameter grid")
	}

	// Rescore once per band, not once per combo: the conviction transform
	// only depends on the quantile pair.
	type band struct{ lo, hi float64 }
	rescored := make(map[band]map[string]*signal.Series)
	counts := make(map[band]int)
	for _, c := range combos {
		b := band{c.QLow, c.QHigh}
		if _, ok := rescored[b]; ok {
			continue
		}
		set := make(map[string]*signal.Series, len(signals))
		n := 0
		for inst, s := range signals {
			rs := signal.Rescore(s, b.lo, b.hi)
			set[inst] = rs
			for _, r := range rs.Records() {
				if r.Direction != signal.Neutral {
					n++
				}
			}
		}
		rescored[b] = set
		counts[b] = n
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rows := make([]Row, len(combos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range combos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cfg := opts.Base
			cfg.StopLossPct = c.StopLoss
			cfg.TakeProfitPct = c.TakeProfit

			eng, err := backtest.NewEngine(cfg, log)
			if err != nil {
				return err
			}

			b := band{c.QLow, c.QHigh}
			curve, trades, err := eng.Run(prices, rescored[b])
			if err != nil {
				return err
			}

			row := Row{Combo: c, SignalCount: counts[b]}
			if len(curve) > 0 {
				row.Summary = perf.Summarize(curve, trades, curve[0].Date, curve[len(curve)-1].Date, cfg.StartingCash)
			}
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func enumerate(opts Options) []Combo {
	var combos []Combo
	for _, sl := range opts.StopLosses {
		for _, tp := range opts.TakeProfits {
			for _, ql := range opts.Quantiles {
				for _, qh := range opts.Quantiles {
					if ql >= qh {
						continue
					}
					combos = append(combos, Combo{StopLoss: sl, TakeProfit: tp, QLow: ql, QHigh: qh})
				}
			}
		}
	}
	return combos
}

// SortBySharpe orders rows best-first for reporting. Rows without a
// Sharpe sort last; ties break on grid order fields to stay stable.
func SortBySharpe(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := rows[i].Summary.Sharpe, rows[j].Summary.Sharpe
		switch {
		case si == nil && sj == nil:
			return false
		case si == nil:
			return false
		case sj == nil:
			return true
		default:
			return *si > *sj
		}
	})
}
