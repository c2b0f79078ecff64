package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantlab/sentiback/grid"
	"github.com/quantlab/sentiback/market"
	"github.com/quantlab/sentiback/signal"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Run a parallel hyperparameter grid search",
	Long: `Grid sweeps stop-loss, take-profit and percentile-band settings over the
same price cache, running one isolated backtest per combination. Tickers are
optionally pre-screened by baseline Sharpe before the sweep.

Example:
  sentiback grid --prices data/prices --signals data/signals_3d.csv --top 10`,
	RunE: runGrid,
}

var (
	gridTop      int
	gridOut      string
	gridWorkers  int
	gridNoScreen bool
)

func init() {
	rootCmd.AddCommand(gridCmd)

	gridCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config file")
	gridCmd.Flags().StringVarP(&runPricesDir, "prices", "p", "", "directory of per-instrument price CSVs")
	gridCmd.Flags().StringVarP(&runSignalsPath, "signals", "s", "", "path to signals CSV")
	gridCmd.Flags().IntVar(&gridTop, "top", 10, "how many rows to print, best Sharpe first")
	gridCmd.Flags().StringVarP(&gridOut, "out", "o", "", "results CSV path (overrides config)")
	gridCmd.Flags().IntVarP(&gridWorkers, "workers", "w", 0, "parallel workers (0 = all CPUs)")
	gridCmd.Flags().BoolVar(&gridNoScreen, "no-screen", false, "skip the ticker pre-screening pass")
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.Grid.ResultsFile = gridOut
	}
	if cmd.Flags().Changed("workers") {
		cfg.Grid.Workers = gridWorkers
	}

	prices, signals, err := loadInputs(cfg)
	if err != nil {
		return err
	}

	base := engineConfig(cfg, false)

	if !gridNoScreen {
		kept, err := grid.Screen(prices, signals, base, cfg.Grid.KeepFraction, nil)
		if err != nil {
			return fmt.Errorf("screen: %w", err)
		}
		fmt.Printf("Screened tickers: %d -> %d kept\n", len(signals), len(kept))

		screened := make(map[string]*signal.Series, len(kept))
		for _, inst := range kept {
			screened[inst] = signals[inst]
		}
		signals = screened

		pruned := make(map[string]*market.Series, len(kept))
		for _, inst := range kept {
			if s, ok := prices[inst]; ok {
				pruned[inst] = s
			}
		}
		prices = pruned
	}

	rows, err := grid.Search(context.Background(), prices, signals, grid.Options{
		StopLosses:  cfg.Grid.StopLosses,
		TakeProfits: cfg.Grid.TakeProfits,
		Quantiles:   cfg.Grid.Quantiles,
		Workers:     cfg.Grid.Workers,
		Base:        base,
	}, nil)
	if err != nil {
		return fmt.Errorf("grid search: %w", err)
	}

	if cfg.Grid.ResultsFile != "" {
		if err := grid.WriteCSV(cfg.Grid.ResultsFile, rows); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), cfg.Grid.ResultsFile)
	}

	grid.SortBySharpe(rows)
	top := gridTop
	if top > len(rows) {
		top = len(rows)
	}

	fmt.Printf("\nTop %d by Sharpe:\n", top)
	fmt.Println("  stop    take    q_low   q_high  sharpe  cagr     max_dd  trades")
	for _, r := range rows[:top] {
		fmt.Printf("  %.4f  %.4f  %.3f   %.3f   %-7s %-8s %5.2f%%  %d\n",
			r.StopLoss, r.TakeProfit, r.QLow, r.QHigh,
			optNum(r.Summary.Sharpe), optPct(r.Summary.CAGR),
			r.Summary.MaxDrawdown, r.Summary.Trades)
	}
	return nil
}

func optNum(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func optPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}
