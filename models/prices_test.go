package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPriceTable_AlignsOnDateUnion(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	series := map[string][]DatedClose{
		"AAPL": {{Date: day(3), Close: 11}, {Date: day(2), Close: 10}},
		"MSFT": {{Date: time.Date(2024, time.January, 4, 16, 0, 0, 0, ny), Close: 20}},
	}

	pt := NewPriceTable([]string{"AAPL", "MSFT", "NONE"}, series)

	require.Equal(t, []time.Time{day(2), day(3), day(4)}, pt.Dates)
	assert.Equal(t, []string{"AAPL", "MSFT", "NONE"}, pt.Tickers)
	assert.Equal(t, 10.0, pt.Closes[0][0])
	assert.Equal(t, 11.0, pt.Closes[0][1])
	assert.True(t, math.IsNaN(pt.Closes[0][2]))
	assert.Equal(t, 20.0, pt.Closes[1][2])
	assert.False(t, pt.HasData(2))
	assert.True(t, pt.HasData(1))
}

func TestPriceTable_ColumnIndexIsCaseInsensitive(t *testing.T) {
	pt := &PriceTable{Tickers: []string{"aapl", "MSFT"}}
	assert.Equal(t, 0, pt.ColumnIndex("AAPL"))
	assert.Equal(t, 1, pt.ColumnIndex("msft"))
	assert.Equal(t, -1, pt.ColumnIndex("NVDA"))
}

func TestPriceTable_BetweenIsHalfOpenAndCopies(t *testing.T) {
	pt := &PriceTable{
		Dates:   []time.Time{day(1), day(2), day(3), day(4)},
		Tickers: []string{"A"},
		Closes:  [][]float64{{1, 2, 3, 4}},
	}

	sub := pt.Between(day(2), day(4))
	assert.Equal(t, []time.Time{day(2), day(3)}, sub.Dates)
	assert.Equal(t, []float64{2, 3}, sub.Closes[0])

	sub.Closes[0][0] = 99
	assert.Equal(t, 2.0, pt.Closes[0][1], "source table must not be mutated")

	all := pt.Between(time.Time{}, time.Time{})
	assert.Len(t, all.Dates, 4)
}
