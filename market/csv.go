package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads a per-instrument price file with rows:
//
//	date,open,high,low,close,volume
//
// where date is YYYY-MM-DD or RFC3339. A header row is allowed and
// empty/short rows are skipped.
func LoadCSV(path, instrument string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []Bar
	sawFirst := false

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("market: read %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("market: %s: %w", path, err)
		}
		if !ok {
			continue
		}
		bars = append(bars, b)
	}

	return NewSeries(instrument, bars)
}

// LoadDir loads every *.csv in dir as one instrument each, keyed by the
// uppercased file stem (AAPL.csv -> "AAPL").
func LoadDir(dir string) (map[string]*Series, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Series, len(matches))
	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		inst := strings.ToUpper(strings.TrimSpace(name))
		if inst == "" {
			continue
		}
		s, err := LoadCSV(path, inst)
		if err != nil {
			return nil, err
		}
		out[inst] = s
	}
	return out, nil
}

func parseBarRow(row []string) (Bar, bool, error) {
	// Need date,open,high,low,close,volume
	if len(row) < 6 {
		return Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Bar{}, false, nil
	}
	t, err := parseDate(ts)
	if err != nil {
		return Bar{}, false, err
	}

	var vals [4]float64
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad %s %q: %w", [4]string{"open", "high", "low", "close"}[i], row[i+1], err)
		}
		vals[i] = v
	}

	vol, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
	if err != nil {
		// Some sources emit volume as a float; accept and truncate.
		fv, ferr := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if ferr != nil {
			return Bar{}, false, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
		vol = int64(fv)
	}
	if vol < 0 {
		return Bar{}, false, fmt.Errorf("negative volume %d", vol)
	}

	return Bar{
		Date:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vol,
	}, true, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	t2, err2 := time.Parse(time.RFC3339, s)
	if err2 != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return t2, nil
}
