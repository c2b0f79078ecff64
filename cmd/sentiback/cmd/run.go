package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantlab/sentiback/backtest"
	"github.com/quantlab/sentiback/config"
	"github.com/quantlab/sentiback/journal"
	"github.com/quantlab/sentiback/market"
	"github.com/quantlab/sentiback/signal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one backtest over a price directory and a signals file",
	Long: `Run loads per-instrument price CSVs (one <TICKER>.csv per file) and a
signals CSV, executes a single backtest and prints the performance summary.

Example:
  sentiback run --prices data/prices --signals data/signals_1d.csv --db runs.sqlite`,
	RunE: runRun,
}

var (
	runConfigPath  string
	runPricesDir   string
	runSignalsPath string
	runJournalType string
	runDBPath      string
	runCash        float64
	runCommission  float64
	runStopLoss    float64
	runTakeProfit  float64
	runTimeExit    int
	runCloseEnd    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config file")
	runCmd.Flags().StringVarP(&runPricesDir, "prices", "p", "", "directory of per-instrument price CSVs")
	runCmd.Flags().StringVarP(&runSignalsPath, "signals", "s", "", "path to signals CSV")
	runCmd.Flags().StringVar(&runJournalType, "journal", "", "journal type (sqlite, csv, none)")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "path to SQLite journal DB")
	runCmd.Flags().Float64VarP(&runCash, "cash", "b", 0, "starting cash")
	runCmd.Flags().Float64Var(&runCommission, "commission", 0, "commission rate per execution")
	runCmd.Flags().Float64Var(&runStopLoss, "stop", 0, "stop loss pct (0.02 = 2%)")
	runCmd.Flags().Float64Var(&runTakeProfit, "take", 0, "take profit pct")
	runCmd.Flags().IntVar(&runTimeExit, "time-exit", 0, "time exit in calendar days")
	runCmd.Flags().BoolVar(&runCloseEnd, "close-end", false, "close open positions at the final bar")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	prices, signals, err := loadInputs(cfg)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	runner := &backtest.Runner{
		Config:  engineConfig(cfg, runCloseEnd),
		Journal: j,
	}

	res, err := runner.Run(prices, signals)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	rec := journal.RunRecord{
		RunID:          res.RunID,
		Created:        time.Now().UTC(),
		Start:          res.Start,
		End:            res.End,
		StartingCash:   runner.Config.StartingCash,
		CommissionRate: runner.Config.CommissionRate,
		StopLossPct:    runner.Config.StopLossPct,
		TakeProfitPct:  runner.Config.TakeProfitPct,
		TimeExitDays:   runner.Config.TimeExitDays,
		CAGR:           res.Summary.CAGR,
		Sharpe:         res.Summary.Sharpe,
		MaxDrawdown:    res.Summary.MaxDrawdown,
		Trades:         res.Summary.Trades,
		WinRate:        res.Summary.WinRate,
	}
	if n := len(res.Curve); n > 0 {
		rec.FinalEquity = res.Curve[n-1].Equity
	}

	var tradeRecs []journal.TradeRecord
	for _, t := range res.Trades {
		tradeRecs = append(tradeRecs, journal.TradeRecord{
			RunID:      res.RunID,
			Instrument: t.Instrument,
			Units:      t.Units,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			EntryDate:  t.EntryDate,
			ExitDate:   t.ExitDate,
			PnL:        t.PnL,
			Reason:     t.Reason,
		})
	}

	journal.PrintRun(os.Stdout, rec, tradeRecs)
	return nil
}

// loadConfig builds the effective config: file (or defaults) with any
// explicitly-set flags layered on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if runConfigPath != "" {
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("prices") {
		cfg.Data.PricesDir = runPricesDir
	}
	if flags.Changed("signals") {
		cfg.Data.SignalsFile = runSignalsPath
	}
	if flags.Changed("journal") {
		cfg.Journal.Type = runJournalType
	}
	if flags.Changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = runDBPath
	}
	if flags.Changed("cash") {
		cfg.Backtest.StartingCash = runCash
	}
	if flags.Changed("commission") {
		cfg.Backtest.CommissionRate = runCommission
	}
	if flags.Changed("stop") {
		cfg.Backtest.StopLossPct = runStopLoss
	}
	if flags.Changed("take") {
		cfg.Backtest.TakeProfitPct = runTakeProfit
	}
	if flags.Changed("time-exit") {
		cfg.Backtest.TimeExitDays = runTimeExit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func engineConfig(cfg *config.Config, closeEnd bool) backtest.Config {
	return backtest.Config{
		StartingCash:   cfg.Backtest.StartingCash,
		CommissionRate: cfg.Backtest.CommissionRate,
		StopLossPct:    cfg.Backtest.StopLossPct,
		TakeProfitPct:  cfg.Backtest.TakeProfitPct,
		TimeExitDays:   cfg.Backtest.TimeExitDays,
		CloseAtEnd:     closeEnd,
	}
}

func loadInputs(cfg *config.Config) (map[string]*market.Series, map[string]*signal.Series, error) {
	prices, err := market.LoadDir(cfg.Data.PricesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load prices: %w", err)
	}
	if len(prices) == 0 {
		return nil, nil, fmt.Errorf("no price CSVs found in %s", cfg.Data.PricesDir)
	}

	signals, err := signal.LoadCSV(cfg.Data.SignalsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load signals: %w", err)
	}
	return prices, signals, nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.RunsFile, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	default:
		return nil, nil
	}
}
