package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetRun returns a single run row by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	var cagr, sharpe, winRate sql.NullFloat64

	row := j.db.QueryRow(`
		SELECT run_id, created, start_date, end_date, starting_cash, commission_rate,
		       stop_loss_pct, take_profit_pct, time_exit_days, final_equity,
		       cagr, sharpe, max_drawdown, trades, win_rate
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&rec.RunID,
		&rec.Created,
		&rec.Start,
		&rec.End,
		&rec.StartingCash,
		&rec.CommissionRate,
		&rec.StopLossPct,
		&rec.TakeProfitPct,
		&rec.TimeExitDays,
		&rec.FinalEquity,
		&cagr,
		&sharpe,
		&rec.MaxDrawdown,
		&rec.Trades,
		&winRate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}

	rec.CAGR = floatPtr(cagr)
	rec.Sharpe = floatPtr(sharpe)
	rec.WinRate = floatPtr(winRate)
	return rec, nil
}

// ListTradesByRun returns a run's closed trades ordered by exit date.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, instrument, units, entry_price, exit_price, entry_date, exit_date, pnl, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY exit_date ASC, instrument ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Instrument,
			&rec.Units,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.EntryDate,
			&rec.ExitDate,
			&rec.PnL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEquityByRun returns a run's equity curve in date order.
func (j *SQLite) ListEquityByRun(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, date, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(&rec.RunID, &rec.Date, &rec.Equity); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesClosedBetween returns trades across all runs whose exit_date
// is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, instrument, units, entry_price, exit_price, entry_date, exit_date, pnl, reason
		FROM trades
		WHERE exit_date >= ? AND exit_date < ?
		ORDER BY exit_date ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Instrument,
			&rec.Units,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.EntryDate,
			&rec.ExitDate,
			&rec.PnL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListRuns returns all run rows, most recent first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, created, start_date, end_date, starting_cash, commission_rate,
		       stop_loss_pct, take_profit_pct, time_exit_days, final_equity,
		       cagr, sharpe, max_drawdown, trades, win_rate
		FROM runs
		ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var cagr, sharpe, winRate sql.NullFloat64
		if err := rows.Scan(
			&rec.RunID,
			&rec.Created,
			&rec.Start,
			&rec.End,
			&rec.StartingCash,
			&rec.CommissionRate,
			&rec.StopLossPct,
			&rec.TakeProfitPct,
			&rec.TimeExitDays,
			&rec.FinalEquity,
			&cagr,
			&sharpe,
			&rec.MaxDrawdown,
			&rec.Trades,
			&winRate,
		); err != nil {
			return nil, err
		}
		rec.CAGR = floatPtr(cagr)
		rec.Sharpe = floatPtr(sharpe)
		rec.WinRate = floatPtr(winRate)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
