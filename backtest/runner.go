package backtest

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/quantlab/sentiback/journal"
	"github.com/quantlab/sentiback/market"
	"github.com/quantlab/sentiback/perf"
	"github.com/quantlab/sentiback/pkg/id"
	"github.com/quantlab/sentiback/portfolio"
	"github.com/quantlab/sentiback/signal"
)

// Runner executes one backtest and persists the outcome. The engine
// itself does no I/O; everything the run produced is journaled here,
// after the loop has finished.
type Runner struct {
	Config  Config
	Journal journal.Journal // optional, nil skips persistence
	Log     *slog.Logger
}

// Result is the full outcome of one journaled run.
type Result struct {
	RunID   string
	Start   time.Time
	End     time.Time
	Curve   []portfolio.EquityPoint
	Trades  []portfolio.Trade
	Summary perf.Summary
}

func (r *Runner) Run(prices map[string]*market.Series, signals map[string]*signal.Series) (Result, error) {
	eng, err := NewEngine(r.Config, r.Log)
	if err != nil {
		return Result{}, err
	}

	curve, trades, err := eng.Run(prices, signals)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:  id.New(),
		Curve:  curve,
		Trades: trades,
	}
	if len(curve) > 0 {
		res.Start = curve[0].Date
		res.End = curve[len(curve)-1].Date
	}
	res.Summary = perf.Summarize(curve, trades, res.Start, res.End, r.Config.StartingCash)

	if r.Journal == nil {
		return res, nil
	}
	if err := r.record(res); err != nil {
		return res, fmt.Errorf("backtest: journal run %s: %w", res.RunID, err)
	}
	return res, nil
}

func (r *Runner) record(res Result) error {
	run := journal.RunRecord{
		RunID:          res.RunID,
		Created:        time.Now().UTC(),
		Start:          res.Start,
		End:            res.End,
		StartingCash:   r.Config.StartingCash,
		CommissionRate: r.Config.CommissionRate,
		StopLossPct:    r.Config.StopLossPct,
		TakeProfitPct:  r.Config.TakeProfitPct,
		TimeExitDays:   r.Config.TimeExitDays,
		CAGR:           res.Summary.CAGR,
		Sharpe:         res.Summary.Sharpe,
		MaxDrawdown:    res.Summary.MaxDrawdown,
		Trades:         res.Summary.Trades,
		WinRate:        res.Summary.WinRate,
	}
	if n := len(res.Curve); n > 0 {
		run.FinalEquity = res.Curve[n-1].Equity
	}
	if err := r.Journal.RecordRun(run); err != nil {
		return err
	}

	for _, t := range res.Trades {
		rec := journal.TradeRecord{
			RunID:      res.RunID,
			Instrument: t.Instrument,
			Units:      t.Units,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			EntryDate:  t.EntryDate,
			ExitDate:   t.ExitDate,
			PnL:        t.PnL,
			Reason:     t.Reason,
		}
		if err := r.Journal.RecordTrade(rec); err != nil {
			return err
		}
	}

	for _, pt := range res.Curve {
		rec := journal.EquityRecord{
			RunID:  res.RunID,
			Date:   pt.Date,
			Equity: pt.Equity,
		}
		if err := r.Journal.RecordEquity(rec); err != nil {
			return err
		}
	}
	return nil
}
