// Package config loads run configuration from YAML or JSON files.
// Every value can also be overridden per-run from CLI flags; nothing in
// here is global or mutated after load.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration.
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Grid     GridConfig     `json:"grid" yaml:"grid"`
}

// BacktestConfig contains the engine parameters.
type BacktestConfig struct {
	StartingCash   float64 `json:"starting_cash" yaml:"starting_cash"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	StopLossPct    float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct  float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	TimeExitDays   int     `json:"time_exit_days" yaml:"time_exit_days"`
}

// DataConfig points at the price and signal inputs.
type DataConfig struct {
	PricesDir   string `json:"prices_dir" yaml:"prices_dir"`
	SignalsFile string `json:"signals_file" yaml:"signals_file"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// GridConfig contains the hyperparameter sweep.
type GridConfig struct {
	StopLosses   []float64 `json:"stop_losses" yaml:"stop_losses"`
	TakeProfits  []float64 `json:"take_profits" yaml:"take_profits"`
	Quantiles    []float64 `json:"quantiles" yaml:"quantiles"`
	Workers      int       `json:"workers" yaml:"workers"`
	KeepFraction float64   `json:"keep_fraction" yaml:"keep_fraction"`
	ResultsFile  string    `json:"results_file,omitempty" yaml:"results_file,omitempty"`
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, format chosen by extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration before a run is allowed to start.
func (c *Config) Validate() error {
	if c.Backtest.StartingCash <= 0 {
		return fmt.Errorf("backtest.starting_cash must be positive")
	}
	if c.Backtest.CommissionRate < 0 {
		return fmt.Errorf("backtest.commission_rate must not be negative")
	}
	if c.Backtest.StopLossPct <= 0 {
		return fmt.Errorf("backtest.stop_loss_pct must be positive")
	}
	if c.Backtest.TakeProfitPct <= 0 {
		return fmt.Errorf("backtest.take_profit_pct must be positive")
	}
	if c.Backtest.TimeExitDays <= 0 {
		return fmt.Errorf("backtest.time_exit_days must be positive")
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal runs_file, trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if c.Grid.KeepFraction < 0 || c.Grid.KeepFraction > 1 {
		return fmt.Errorf("grid.keep_fraction must be in [0,1]")
	}
	if c.Grid.Workers < 0 {
		return fmt.Errorf("grid.workers must not be negative")
	}
	for _, q := range c.Grid.Quantiles {
		if q <= 0 || q >= 1 {
			return fmt.Errorf("grid.quantiles values must be in (0,1), got %v", q)
		}
	}
	return nil
}

// Default returns a configuration with the standard parameters.
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			StartingCash:   100_000,
			CommissionRate: 0.001,
			StopLossPct:    0.02,
			TakeProfitPct:  0.04,
			TimeExitDays:   5,
		},
		Data: DataConfig{
			PricesDir:   "./data/prices",
			SignalsFile: "./data/signals.csv",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./sentiback.sqlite",
		},
		Grid: GridConfig{
			StopLosses:   []float64{0.02, 0.0225, 0.025},
			TakeProfits:  []float64{0.04, 0.045, 0.05},
			Quantiles:    []float64{0.025, 0.05, 0.075},
			Workers:      4,
			KeepFraction: 0.8,
			ResultsFile:  "./grid_results.csv",
		},
	}
}
