package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sentiback",
	Short: "Backtest sentiment-derived trading signals against daily price history",
	Long: `Sentiback evaluates sentiment-derived trading signals with a simulated
portfolio and reports risk-adjusted performance.

It provides tools for:
  - Running signal backtests over multi-instrument daily price history
  - Conviction-sized position management with trailing stops and time exits
  - Journaling trades, equity curves and run summaries to SQLite or CSV
  - Parallel hyperparameter grid search over stop/target/band settings`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
