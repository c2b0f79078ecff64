package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, start_date, end_date, starting_cash, commission_rate,
		 stop_loss_pct, take_profit_pct, time_exit_days, final_equity,
		 cagr, sharpe, max_drawdown, trades, win_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Start, r.End, r.StartingCash, r.CommissionRate,
		r.StopLossPct, r.TakeProfitPct, r.TimeExitDays, r.FinalEquity,
		nullable(r.CAGR), nullable(r.Sharpe), r.MaxDrawdown, r.Trades, nullable(r.WinRate),
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, instrument, units, entry_price, exit_price, entry_date, exit_date, pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Instrument, t.Units, t.EntryPrice,
		t.ExitPrice, t.EntryDate, t.ExitDate, t.PnL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, date, equity)
		VALUES (?, ?, ?)`,
		e.RunID, e.Date, e.Equity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
