package grid

import (
	"encoding/csv"
	"os"
	"strconv"
)

// WriteCSV exports the sweep results, one row per combo.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"stop_loss", "take_profit", "q_low", "q_high",
		"signal_count", "cagr", "sharpe", "max_drawdown", "trades", "win_rate",
	}); err != nil {
		return err
	}

	for _, r := range rows {
		rec := []string{
			fmtF(r.StopLoss),
			fmtF(r.TakeProfit),
			fmtF(r.QLow),
			fmtF(r.QHigh),
			strconv.Itoa(r.SignalCount),
			fmtP(r.Summary.CAGR),
			fmtP(r.Summary.Sharpe),
			fmtF(r.Summary.MaxDrawdown),
			strconv.Itoa(r.Summary.Trades),
			fmtP(r.Summary.WinRate),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtF(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fmtP(x *float64) string {
	if x == nil {
		return ""
	}
	return fmtF(*x)
}
