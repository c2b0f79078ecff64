package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes runs, trades and equity points to three CSV files.
// Rows are flushed per record so a crashed run still leaves usable output.
type CSVJournal struct {
	runs   *csv.Writer
	trades *csv.Writer
	equity *csv.Writer
	files  []*os.File
}

func NewCSV(runsPath, tradesPath, equityPath string) (*CSVJournal, error) {
	j := &CSVJournal{}

	for _, w := range []struct {
		path   string
		header []string
		dst    **csv.Writer
	}{
		{runsPath, []string{
			"run_id", "created", "start_date", "end_date", "starting_cash",
			"commission_rate", "stop_loss_pct", "take_profit_pct", "time_exit_days",
			"final_equity", "cagr", "sharpe", "max_drawdown", "trades", "win_rate",
		}, &j.runs},
		{tradesPath, []string{
			"run_id", "instrument", "units", "entry_price", "exit_price",
			"entry_date", "exit_date", "pnl", "reason",
		}, &j.trades},
		{equityPath, []string{"run_id", "timestamp", "equity"}, &j.equity},
	} {
		f, err := os.Create(w.path)
		if err != nil {
			j.Close()
			return nil, err
		}
		j.files = append(j.files, f)

		cw := csv.NewWriter(f)
		if err := cw.Write(w.header); err != nil {
			j.Close()
			return nil, err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			j.Close()
			return nil, err
		}
		*w.dst = cw
	}

	return j, nil
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Start.Format("2006-01-02"),
		r.End.Format("2006-01-02"),
		f(r.StartingCash),
		f(r.CommissionRate),
		f(r.StopLossPct),
		f(r.TakeProfitPct),
		strconv.Itoa(r.TimeExitDays),
		f(r.FinalEquity),
		fp(r.CAGR),
		fp(r.Sharpe),
		f(r.MaxDrawdown),
		strconv.Itoa(r.Trades),
		fp(r.WinRate),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.RunID,
		t.Instrument,
		f(t.Units),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.EntryDate.Format("2006-01-02"),
		t.ExitDate.Format("2006-01-02"),
		f(t.PnL),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityRecord) error {
	err := j.equity.Write([]string{
		e.RunID,
		e.Date.Format("2006-01-02"),
		f(e.Equity),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	var firstErr error
	for _, w := range []*csv.Writer{j.runs, j.trades, j.equity} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, file := range j.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fp(x *float64) string {
	if x == nil {
		return ""
	}
	return f(*x)
}
