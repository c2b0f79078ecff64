package market

import (
	"fmt"
	"sort"
	"time"
)

// Series is an immutable per-instrument daily price history. Bars are
// strictly increasing by date with no duplicates; both are enforced at
// construction because the backtest clock depends on them.
//
// A Series tolerates bad values inside a bar (a NaN close, say). Those
// bars are skipped per-day by the engine rather than rejected here, so
// one poisoned row cannot take a whole instrument out of a run.
type Series struct {
	instrument string
	bars       []Bar
	index      map[time.Time]int
}

func NewSeries(instrument string, bars []Bar) (*Series, error) {
	s := &Series{
		instrument: instrument,
		bars:       make([]Bar, len(bars)),
		index:      make(map[time.Time]int, len(bars)),
	}
	copy(s.bars, bars)

	for i := range s.bars {
		s.bars[i].Date = Day(s.bars[i].Date)

		if i > 0 {
			prev := s.bars[i-1].Date
			cur := s.bars[i].Date
			if cur.Equal(prev) {
				return nil, fmt.Errorf("market: %s: duplicate bar for %s", instrument, cur.Format("2006-01-02"))
			}
			if cur.Before(prev) {
				return nil, fmt.Errorf("market: %s: bars out of order at %s", instrument, cur.Format("2006-01-02"))
			}
		}
		s.index[s.bars[i].Date] = i
	}
	return s, nil
}

func (s *Series) Instrument() string { return s.instrument }

func (s *Series) Len() int { return len(s.bars) }

// Bar returns the bar for the given date, if the instrument traded that day.
func (s *Series) Bar(date time.Time) (Bar, bool) {
	i, ok := s.index[Day(date)]
	if !ok {
		return Bar{}, false
	}
	return s.bars[i], true
}

// Bars returns the underlying bars in date order. Callers must not mutate.
func (s *Series) Bars() []Bar { return s.bars }

func (s *Series) First() time.Time {
	if len(s.bars) == 0 {
		return time.Time{}
	}
	return s.bars[0].Date
}

func (s *Series) Last() time.Time {
	if len(s.bars) == 0 {
		return time.Time{}
	}
	return s.bars[len(s.bars)-1].Date
}

// UnionDates returns the sorted union of all trading dates across the
// given series. This is the single global clock for a multi-instrument
// backtest: portfolio valuation happens once per date in this list.
func UnionDates(series map[string]*Series) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		if s == nil {
			continue
		}
		for _, b := range s.bars {
			seen[b.Date] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
