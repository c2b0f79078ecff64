package journal

import (
	"fmt"
	"io"
	"time"
)

// PrintRun writes a human-readable report for one journaled run.
func PrintRun(w io.Writer, r RunRecord, trades []TradeRecord) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Run")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Period:        %s .. %s\n",
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Starting Cash:  %.2f\n", r.StartingCash)
	fmt.Fprintf(w, "Commission:     %.4f\n", r.CommissionRate)
	fmt.Fprintf(w, "Stop Loss:      %.2f%%\n", r.StopLossPct*100)
	fmt.Fprintf(w, "Take Profit:    %.2f%%\n", r.TakeProfitPct*100)
	fmt.Fprintf(w, "Time Exit:      %d days\n", r.TimeExitDays)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Final Equity:   %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "CAGR:           %s\n", pct(r.CAGR))
	fmt.Fprintf(w, "Sharpe:         %s\n", num(r.Sharpe))
	fmt.Fprintf(w, "Max Drawdown:   %.2f%%\n", r.MaxDrawdown)
	fmt.Fprintf(w, "Trades:         %d\n", r.Trades)
	fmt.Fprintf(w, "Win Rate:       %s\n", pct(r.WinRate))

	if len(trades) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Closed Trades")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, t := range trades {
			side := "LONG"
			if t.Units < 0 {
				side = "SHORT"
			}
			fmt.Fprintf(w, "%-6s %-5s %s -> %s  %.2f -> %.2f  pnl %.2f  (%s)\n",
				t.Instrument, side,
				t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"),
				t.EntryPrice, t.ExitPrice, t.PnL, t.Reason)
		}
	}

	fmt.Fprintln(w)
}

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
