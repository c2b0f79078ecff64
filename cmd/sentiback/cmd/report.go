package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantlab/sentiback/journal"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Print the report for a journaled run",
	Long: `Report loads a run from the SQLite journal and prints its configuration,
performance summary and closed trades. With no run ID the most recent run
is reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var reportDBPath string

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportDBPath, "db", "d", "./sentiback.sqlite", "path to SQLite journal DB")
}

func runReport(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	var rec journal.RunRecord
	if len(args) == 1 {
		rec, err = j.GetRun(args[0])
		if err != nil {
			return err
		}
	} else {
		runs, err := j.ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no runs journaled in %s", reportDBPath)
		}
		rec = runs[0]
	}

	trades, err := j.ListTradesByRun(rec.RunID)
	if err != nil {
		return err
	}

	journal.PrintRun(os.Stdout, rec, trades)
	return nil
}
