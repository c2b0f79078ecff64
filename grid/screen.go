package grid

import (
	"log/slog"
	"math"
	"sort"

	"github.com/quantlab/sentiback/backtest"
	"github.com/quantlab/sentiback/market"
	"github.com/quantlab/sentiback/perf"
	"github.com/quantlab/sentiback/signal"
)

// Screen quantile band: a wide 10/90 split so the baseline run has a
// reasonable number of trades for every ticker.
const (
	screenQLow  = 0.10
	screenQHigh = 0.90
)

// Screen ranks tickers by the Sharpe of a single-instrument baseline run
// and keeps the top keepFraction of them. Low-edge tickers are dropped
// before the main sweep so the grid does not optimize around noise.
func Screen(prices map[string]*market.Series, signals map[string]*signal.Series, base backtest.Config, keepFraction float64, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.Default()
	}

	eng, err := backtest.NewEngine(base, log)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		inst   string
		sharpe float64
	}
	var all []ranked

	for inst, s := range signals {
		ps, ok := prices[inst]
		if !ok || ps == nil || ps.Len() == 0 {
			log.Warn("screen: no price history, dropping ticker", "instrument", inst)
			continue
		}

		rs := signal.Rescore(s, screenQLow, screenQHigh)
		curve, trades, err := eng.Run(
			map[string]*market.Series{inst: ps},
			map[string]*signal.Series{inst: rs},
		)
		if err != nil {
			return nil, err
		}

		sharpe := math.Inf(-1)
		if len(curve) > 0 {
			sum := perf.Summarize(curve, trades, curve[0].Date, curve[len(curve)-1].Date, base.StartingCash)
			if sum.Sharpe != nil {
				sharpe = *sum.Sharpe
			}
		}
		all = append(all, ranked{inst: inst, sharpe: sharpe})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].sharpe != all[j].sharpe {
			return all[i].sharpe > all[j].sharpe
		}
		return all[i].inst < all[j].inst
	})

	keep := int(float64(len(all)) * keepFraction)
	if keep < 1 && len(all) > 0 {
		keep = 1
	}

	out := make([]string, 0, keep)
	for _, r := range all[:keep] {
		out = append(out, r.inst)
	}
	sort.Strings(out)
	return out, nil
}
