package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestDay(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:00 New York is already the next day in UTC
	ts := time.Date(2024, 3, 4, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Day(ts))

	noon := time.Date(2024, 3, 4, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Day(noon))
}

func TestBarValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Bar{Close: 101.5}.Valid())
	assert.False(t, Bar{Close: 0}.Valid())
	assert.False(t, Bar{Close: -3}.Valid())
	assert.False(t, Bar{Close: math.NaN()}.Valid())
	assert.False(t, Bar{Close: math.Inf(1)}.Valid())
}

func TestNewSeries(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		s, err := NewSeries("AAPL", []Bar{
			{Date: day(t, "2024-01-02"), Close: 100},
			{Date: day(t, "2024-01-03"), Close: 101},
			{Date: day(t, "2024-01-05"), Close: 99},
		})
		require.NoError(t, err)
		assert.Equal(t, "AAPL", s.Instrument())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, day(t, "2024-01-02"), s.First())
		assert.Equal(t, day(t, "2024-01-05"), s.Last())

		b, ok := s.Bar(day(t, "2024-01-03"))
		require.True(t, ok)
		assert.Equal(t, 101.0, b.Close)

		_, ok = s.Bar(day(t, "2024-01-04"))
		assert.False(t, ok)
	})

	t.Run("intraday timestamps collapse to dates", func(t *testing.T) {
		t.Parallel()

		s, err := NewSeries("MSFT", []Bar{
			{Date: day(t, "2024-01-02").Add(15 * time.Hour), Close: 100},
		})
		require.NoError(t, err)

		_, ok := s.Bar(day(t, "2024-01-02"))
		assert.True(t, ok)
	})

	t.Run("duplicate date rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewSeries("AAPL", []Bar{
			{Date: day(t, "2024-01-02"), Close: 100},
			{Date: day(t, "2024-01-02"), Close: 101},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("out of order rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewSeries("AAPL", []Bar{
			{Date: day(t, "2024-01-03"), Close: 100},
			{Date: day(t, "2024-01-02"), Close: 101},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of order")
	})

	t.Run("bad close tolerated at load", func(t *testing.T) {
		t.Parallel()

		s, err := NewSeries("AAPL", []Bar{
			{Date: day(t, "2024-01-02"), Close: 100},
			{Date: day(t, "2024-01-03"), Close: math.NaN()},
		})
		require.NoError(t, err)

		b, ok := s.Bar(day(t, "2024-01-03"))
		require.True(t, ok)
		assert.False(t, b.Valid())
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		s, err := NewSeries("EMPTY", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
		assert.True(t, s.First().IsZero())
	})
}

func TestUnionDates(t *testing.T) {
	t.Parallel()

	a, err := NewSeries("A", []Bar{
		{Date: day(t, "2024-01-02"), Close: 1},
		{Date: day(t, "2024-01-03"), Close: 1},
	})
	require.NoError(t, err)

	b, err := NewSeries("B", []Bar{
		{Date: day(t, "2024-01-03"), Close: 1},
		{Date: day(t, "2024-01-04"), Close: 1},
	})
	require.NoError(t, err)

	dates := UnionDates(map[string]*Series{"A": a, "B": b, "NIL": nil})
	require.Len(t, dates, 3)
	assert.Equal(t, day(t, "2024-01-02"), dates[0])
	assert.Equal(t, day(t, "2024-01-03"), dates[1])
	assert.Equal(t, day(t, "2024-01-04"), dates[2])
}
