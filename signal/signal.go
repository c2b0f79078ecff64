package signal

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/quantlab/sentiback/market"
)

// Direction is the directional call for an instrument on a given day.
type Direction int8

const (
	Neutral Direction = 0
	Long    Direction = +1
	Short   Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "Long"
	case Short:
		return "Short"
	default:
		return "Neutral"
	}
}

// ParseDirection accepts the wire spellings "Long", "Short" and "Neutral"
// case-insensitively. An empty string means Neutral.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	case "neutral", "":
		return Neutral, nil
	default:
		return Neutral, fmt.Errorf("signal: unknown direction %q", s)
	}
}

// Record is one signal row: a directional call plus a sizing conviction
// for a single (instrument, date).
type Record struct {
	Date       time.Time
	Instrument string
	Score      float64
	Direction  Direction
	Conviction float64
}

// ClipConviction forces a conviction value into [0,1]. Upstream producers
// are not trusted to enforce the bound, and NaN collapses to 0.
func ClipConviction(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Series holds at most one signal record per date for one instrument.
// Duplicate dates resolve last-wins at construction, matching how the
// upstream pipeline deduplicates its signal files.
type Series struct {
	instrument string
	byDate     map[time.Time]Record
}

func NewSeries(instrument string, recs []Record) *Series {
	s := &Series{
		instrument: instrument,
		byDate:     make(map[time.Time]Record, len(recs)),
	}
	for _, r := range recs {
		r.Date = market.Day(r.Date)
		r.Instrument = instrument
		r.Conviction = ClipConviction(r.Conviction)
		s.byDate[r.Date] = r
	}
	return s
}

func (s *Series) Instrument() string { return s.instrument }

func (s *Series) Len() int { return len(s.byDate) }

// At returns the signal for the given date. Absent dates read as Neutral
// with zero conviction, never as an error.
func (s *Series) At(date time.Time) (Record, bool) {
	if s == nil {
		return Record{Direction: Neutral}, false
	}
	r, ok := s.byDate[market.Day(date)]
	if !ok {
		return Record{Date: market.Day(date), Instrument: s.instrument, Direction: Neutral}, false
	}
	return r, true
}

// Records returns all records in date order.
func (s *Series) Records() []Record {
	out := make([]Record, 0, len(s.byDate))
	for _, r := range s.byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
