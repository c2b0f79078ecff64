package signal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads a signal file with rows:
//
//	timestamp,ticker,agg_score,signal[,conv]
//
// timestamp is YYYY-MM-DD or RFC3339, signal is Long/Short/Neutral and
// conv defaults to 0 when absent. Later rows for the same (ticker, date)
// overwrite earlier ones.
func LoadCSV(path string) (map[string]*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	byInst := make(map[string][]Record)
	sawFirst := false

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("signal: read %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}

		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "timestamp") {
				continue
			}
		}

		rec, ok, err := parseSignalRow(row)
		if err != nil {
			return nil, fmt.Errorf("signal: %s: %w", path, err)
		}
		if !ok {
			continue
		}
		byInst[rec.Instrument] = append(byInst[rec.Instrument], rec)
	}

	out := make(map[string]*Series, len(byInst))
	for inst, recs := range byInst {
		out[inst] = NewSeries(inst, recs)
	}
	return out, nil
}

func parseSignalRow(row []string) (Record, bool, error) {
	// Need timestamp,ticker,agg_score,signal; conv is optional.
	if len(row) < 4 {
		return Record{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Record{}, false, nil
	}
	t, err := time.Parse("2006-01-02", ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return Record{}, false, fmt.Errorf("bad timestamp %q: %w", ts, err)
		}
		t = t2
	}

	inst := strings.ToUpper(strings.TrimSpace(row[1]))
	if inst == "" {
		return Record{}, false, nil
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("bad agg_score %q: %w", row[2], err)
	}

	dir, err := ParseDirection(row[3])
	if err != nil {
		return Record{}, false, err
	}

	conv := 0.0
	if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
		conv, err = strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			return Record{}, false, fmt.Errorf("bad conv %q: %w", row[4], err)
		}
	}

	return Record{
		Date:       t,
		Instrument: inst,
		Score:      score,
		Direction:  dir,
		Conviction: conv,
	}, true, nil
}
