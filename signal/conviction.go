package signal

import (
	"math"
	"sort"
)

// Band is a per-instrument score percentile band. Conviction measures how
// far a score sits inside the band; scores at or beyond an edge read as
// full-size directional calls.
type Band struct {
	Low  float64
	High float64
}

// Quantile computes the q-quantile of values using linear interpolation
// between order statistics. Values need not be sorted. Returns NaN for an
// empty input.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// BandFor builds the (qLow, qHigh) percentile band of the given scores.
func BandFor(scores []float64, qLow, qHigh float64) Band {
	return Band{
		Low:  Quantile(scores, qLow),
		High: Quantile(scores, qHigh),
	}
}

// Conviction maps a score to a [0,1] sizing confidence: the normalized
// absolute distance from the low edge of the band. A degenerate band
// (High == Low, or NaN edges) yields 0.
func (b Band) Conviction(score float64) float64 {
	width := b.High - b.Low
	if width == 0 || math.IsNaN(width) {
		return 0
	}
	return ClipConviction(math.Abs((score - b.Low) / width))
}

// Direction assigns Long at or above the high edge, Short at or below the
// low edge, Neutral inside the band.
func (b Band) Direction(score float64) Direction {
	if math.IsNaN(score) || math.IsNaN(b.Low) || math.IsNaN(b.High) {
		return Neutral
	}
	switch {
	case score >= b.High:
		return Long
	case score <= b.Low:
		return Short
	default:
		return Neutral
	}
}

// Rescore rebuilds a series from its raw scores using the instrument's own
// (qLow, qHigh) percentile band: direction from the band edges, conviction
// from the normalized distance. The input series is left untouched.
func Rescore(s *Series, qLow, qHigh float64) *Series {
	recs := s.Records()

	scores := make([]float64, 0, len(recs))
	for _, r := range recs {
		if !math.IsNaN(r.Score) {
			scores = append(scores, r.Score)
		}
	}
	band := BandFor(scores, qLow, qHigh)

	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		r.Direction = band.Direction(r.Score)
		r.Conviction = band.Conviction(r.Score)
		out = append(out, r)
	}
	return NewSeries(s.Instrument(), out)
}
