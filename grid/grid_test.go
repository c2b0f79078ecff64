package grid

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/sentiback/backtest"
	"github.com/quantlab/sentiback/market"
	"github.com/quantlab/sentiback/perf"
	"github.com/quantlab/sentiback/signal"
)

var gridStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func priceSeries(t *testing.T, instrument string, closes ...float64) *market.Series {
	t.Helper()
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Date: gridStart.AddDate(0, 0, i), High: c, Close: c}
	}
	s, err := market.NewSeries(instrument, bars)
	require.NoError(t, err)
	return s
}

func scoreSignals(instrument string, scores ...float64) *signal.Series {
	recs := make([]signal.Record, len(scores))
	for i, sc := range scores {
		recs[i] = signal.Record{Date: gridStart.AddDate(0, 0, i), Score: sc}
	}
	return signal.NewSeries(instrument, recs)
}

func baseConfig() backtest.Config {
	return backtest.Config{
		StartingCash:   10_000,
		CommissionRate: 0.001,
		StopLossPct:    0.02,
		TakeProfitPct:  0.04,
		TimeExitDays:   5,
	}
}

func TestEnumerate(t *testing.T) {
	t.Parallel()

	opts := Options{
		StopLosses:  []float64{0.02, 0.03},
		TakeProfits: []float64{0.04},
		Quantiles:   []float64{0.1, 0.5, 0.9},
	}
	combos := enumerate(opts)
	// 3 valid (qLow, qHigh) pairs per (sl, tp)
	require.Len(t, combos, 6)
	assert.Equal(t, Combo{StopLoss: 0.02, TakeProfit: 0.04, QLow: 0.1, QHigh: 0.5}, combos[0])
	assert.Equal(t, Combo{StopLoss: 0.03, TakeProfit: 0.04, QLow: 0.5, QHigh: 0.9}, combos[5])

	for _, c := range combos {
		assert.Less(t, c.QLow, c.QHigh)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	prices := map[string]*market.Series{
		"AAPL": priceSeries(t, "AAPL", 100, 103, 106, 104, 101, 99, 102, 105, 103, 100),
		"MSFT": priceSeries(t, "MSFT", 50, 49, 51, 52, 50, 48, 49, 51, 53, 52),
	}
	signals := map[string]*signal.Series{
		"AAPL": scoreSignals("AAPL", 0.9, 0.7, -0.8, 0.2, 0.6, -0.5, 0.8, 0.1, -0.9, 0.4),
		"MSFT": scoreSignals("MSFT", -0.3, 0.5, 0.9, -0.7, 0.2, 0.8, -0.4, 0.6, 0.1, -0.2),
	}
	opts := Options{
		StopLosses:  []float64{0.02, 0.05},
		TakeProfits: []float64{0.04, 0.08},
		Quantiles:   []float64{0.1, 0.25, 0.75, 0.9},
		Workers:     4,
		Base:        baseConfig(),
	}

	rows, err := Search(context.Background(), prices, signals, opts, quietLog())
	require.NoError(t, err)
	// 6 band pairs per (sl, tp), 4 of those
	require.Len(t, rows, 24)

	// rows come back in grid order regardless of scheduling
	combos := enumerate(opts)
	for i, row := range rows {
		assert.Equal(t, combos[i], row.Combo)
	}

	// the signal count depends only on the band
	byBand := make(map[[2]float64]int)
	for _, row := range rows {
		key := [2]float64{row.QLow, row.QHigh}
		if prev, ok := byBand[key]; ok {
			assert.Equal(t, prev, row.SignalCount, "combo %+v", row.Combo)
		} else {
			byBand[key] = row.SignalCount
		}
	}
	// a wider band fires on fewer scores
	assert.Less(t, byBand[[2]float64{0.1, 0.9}], byBand[[2]float64{0.25, 0.75}])
}

func TestSearchDeterministic(t *testing.T) {
	t.Parallel()

	prices := map[string]*market.Series{
		"AAPL": priceSeries(t, "AAPL", 100, 103, 106, 104, 101, 99, 102, 105),
	}
	signals := map[string]*signal.Series{
		"AAPL": scoreSignals("AAPL", 0.9, 0.7, -0.8, 0.2, 0.6, -0.5, 0.8, 0.1),
	}
	opts := Options{
		StopLosses:  []float64{0.02, 0.05},
		TakeProfits: []float64{0.04},
		Quantiles:   []float64{0.1, 0.5, 0.9},
		Base:        baseConfig(),
	}

	opts.Workers = 1
	sequential, err := Search(context.Background(), prices, signals, opts, quietLog())
	require.NoError(t, err)

	opts.Workers = 8
	parallel, err := Search(context.Background(), prices, signals, opts, quietLog())
	require.NoError(t, err)

	require.Equal(t, sequential, parallel)
}

func TestSearchEmptyGrid(t *testing.T) {
	t.Parallel()

	_, err := Search(context.Background(), nil, nil, Options{Base: baseConfig()}, quietLog())
	require.Error(t, err)
}

func TestSearchCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{
		StopLosses:  []float64{0.02},
		TakeProfits: []float64{0.04},
		Quantiles:   []float64{0.1, 0.9},
		Base:        baseConfig(),
	}
	prices := map[string]*market.Series{
		"AAPL": priceSeries(t, "AAPL", 100, 101),
	}
	signals := map[string]*signal.Series{
		"AAPL": scoreSignals("AAPL", 0.5, -0.5),
	}

	_, err := Search(ctx, prices, signals, opts, quietLog())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearchBadBaseConfig(t *testing.T) {
	t.Parallel()

	opts := Options{
		StopLosses:  []float64{0.02},
		TakeProfits: []float64{0.04},
		Quantiles:   []float64{0.1, 0.9},
		Base:        backtest.Config{}, // zero cash
	}
	prices := map[string]*market.Series{
		"AAPL": priceSeries(t, "AAPL", 100, 101),
	}
	signals := map[string]*signal.Series{
		"AAPL": scoreSignals("AAPL", 0.5, -0.5),
	}

	_, err := Search(context.Background(), prices, signals, opts, quietLog())
	require.ErrorIs(t, err, backtest.ErrConfig)
}

func TestSortBySharpe(t *testing.T) {
	t.Parallel()

	s1, s2 := 1.5, 0.3
	rows := []Row{
		{Combo: Combo{StopLoss: 0.02}, Summary: perf.Summary{Sharpe: &s2}},
		{Combo: Combo{StopLoss: 0.03}},
		{Combo: Combo{StopLoss: 0.04}, Summary: perf.Summary{Sharpe: &s1}},
	}
	SortBySharpe(rows)

	assert.Equal(t, 0.04, rows[0].StopLoss)
	assert.Equal(t, 0.02, rows[1].StopLoss)
	assert.Nil(t, rows[2].Summary.Sharpe)
}

func TestScreen(t *testing.T) {
	t.Parallel()

	// WINR trends with its signals, LOSR moves against them
	prices := map[string]*market.Series{
		"WINR": priceSeries(t, "WINR", 100, 102, 104, 106, 108, 110, 112, 114),
		"LOSR": priceSeries(t, "LOSR", 100, 98, 96, 94, 92, 90, 88, 86),
	}
	signals := map[string]*signal.Series{
		"WINR": scoreSignals("WINR", 0.9, 0.8, 0.9, 0.7, 0.9, 0.8, 0.9, 0.7),
		"LOSR": scoreSignals("LOSR", 0.9, 0.8, 0.9, 0.7, 0.9, 0.8, 0.9, 0.7),
	}

	kept, err := Screen(prices, signals, baseConfig(), 0.5, quietLog())
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "WINR", kept[0])
}

func TestScreenKeepsAtLeastOne(t *testing.T) {
	t.Parallel()

	prices := map[string]*market.Series{
		"ONLY": priceSeries(t, "ONLY", 100, 101, 102),
	}
	signals := map[string]*signal.Series{
		"ONLY": scoreSignals("ONLY", 0.5, -0.5, 0.2),
	}

	kept, err := Screen(prices, signals, baseConfig(), 0.1, quietLog())
	require.NoError(t, err)
	assert.Equal(t, []string{"ONLY"}, kept)
}

func TestScreenDropsUnpriced(t *testing.T) {
	t.Parallel()

	prices := map[string]*market.Series{
		"AAPL": priceSeries(t, "AAPL", 100, 101, 102),
	}
	signals := map[string]*signal.Series{
		"AAPL": scoreSignals("AAPL", 0.5, -0.5, 0.2),
		"GHST": scoreSignals("GHST", 0.9, 0.9, 0.9),
	}

	kept, err := Screen(prices, signals, baseConfig(), 1.0, quietLog())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, kept)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	sharpe := 1.25
	rows := []Row{
		{
			Combo:       Combo{StopLoss: 0.02, TakeProfit: 0.04, QLow: 0.1, QHigh: 0.9},
			SignalCount: 14,
			Summary:     perf.Summary{Sharpe: &sharpe, MaxDrawdown: 6.5, Trades: 9},
		},
	}

	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, WriteCSV(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "stop_loss", got[0][0])
	assert.Equal(t, "0.020000", got[1][0])
	assert.Equal(t, "14", got[1][4])
	assert.Equal(t, "", got[1][5]) // nil cagr
	assert.Equal(t, "1.250000", got[1][6])
	assert.Equal(t, "9", got[1][8])
}
