package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runsPath := filepath.Join(dir, "runs.csv")
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(runsPath, tradesPath, equityPath)
	require.NoError(t, err)

	created := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	run := sampleRun("01HCSV", created)
	run.Sharpe = nil // persists as an empty field
	require.NoError(t, j.RecordRun(run))

	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID:      "01HCSV",
		Instrument: "AAPL",
		Units:      100,
		EntryPrice: 100,
		ExitPrice:  105,
		EntryDate:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		ExitDate:   time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		PnL:        479.5,
		Reason:     "take-profit",
	}))

	require.NoError(t, j.RecordEquity(EquityRecord{
		RunID:  "01HCSV",
		Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Equity: 99_990,
	}))

	require.NoError(t, j.Close())

	runs := readRows(t, runsPath)
	require.Len(t, runs, 2)
	assert.Equal(t, "run_id", runs[0][0])
	assert.Equal(t, "01HCSV", runs[1][0])
	assert.Equal(t, "2024-04-01T09:30:00Z", runs[1][1])
	assert.Equal(t, "2024-01-02", runs[1][2])
	assert.Equal(t, "0.123400", runs[1][10]) // cagr
	assert.Equal(t, "", runs[1][11])         // nil sharpe
	assert.Equal(t, "12", runs[1][13])

	trades := readRows(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, []string{
		"01HCSV", "AAPL", "100.000000", "100.000000", "105.000000",
		"2024-01-02", "2024-01-08", "479.500000", "take-profit",
	}, trades[1])

	equity := readRows(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, []string{"01HCSV", "2024-01-02", "99990.000000"}, equity[1])
}

func TestCSVJournalCreateError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(
		filepath.Join(dir, "missing", "runs.csv"),
		filepath.Join(dir, "trades.csv"),
		filepath.Join(dir, "equity.csv"),
	)
	require.Error(t, err)
}
