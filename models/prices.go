package models

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	ex "mc.frontier/extensions"
)

// PriceTable is a wide table of daily closing prices, one column per ticker.
// Closes is column major (Closes[col][row]) and NaN marks a missing close.
type PriceTable struct {
	Dates   []time.Time
	Tickers []string
	Closes  [][]float64
}

// DatedClose is a single close observation as returned by a price provider.
type DatedClose struct {
	Date  time.Time
	Close float64
}

// NewPriceTable aligns per-ticker series on the union of their dates.
// Tickers keeps the given order; tickers without a series become all-NaN columns.
func NewPriceTable(tickers []string, series map[string][]DatedClose) *PriceTable {
	seen := make(map[time.Time]bool)
	dates := make([]time.Time, 0)
	for _, ticker := range tickers {
		for _, dc := range series[ticker] {
			d := truncateToDay(dc.Date)
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}

	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	rowIndex := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		rowIndex[d] = i
	}

	table := &PriceTable{
		Dates:   dates,
		Tickers: slices.Clone(tickers),
		Closes:  make([][]float64, len(tickers)),
	}

	for col, ticker := range tickers {
		closes := make([]float64, len(dates))
		for i := range closes {
			closes[i] = math.NaN()
		}
		for _, dc := range series[ticker] {
			closes[rowIndex[truncateToDay(dc.Date)]] = dc.Close
		}
		table.Closes[col] = closes
	}

	return table
}

// ColumnIndex returns the first column matching ticker case-insensitively, or -1.
func (pt *PriceTable) ColumnIndex(ticker string) int {
	for i, t := range pt.Tickers {
		if ex.AreEqual(t, ticker) {
			return i
		}
	}
	return -1
}

// HasData reports whether column col has at least one finite close.
func (pt *PriceTable) HasData(col int) bool {
	for _, v := range pt.Closes[col] {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// Between returns a copy restricted to start <= date < end. Zero bounds are open.
func (pt *PriceTable) Between(start, end time.Time) *PriceTable {
	res := &PriceTable{
		Tickers: slices.Clone(pt.Tickers),
		Closes:  make([][]float64, len(pt.Tickers)),
	}

	rows := make([]int, 0, len(pt.Dates))
	for i, d := range pt.Dates {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && !d.Before(end) {
			continue
		}
		rows = append(rows, i)
		res.Dates = append(res.Dates, d)
	}

	for col := range pt.Closes {
		closes := make([]float64, len(rows))
		for i, r := range rows {
			closes[i] = pt.Closes[col][r]
		}
		res.Closes[col] = closes
	}

	return res
}

// Clone returns a deep copy.
func (pt *PriceTable) Clone() *PriceTable {
	res := &PriceTable{
		Dates:   slices.Clone(pt.Dates),
		Tickers: slices.Clone(pt.Tickers),
		Closes:  make([][]float64, len(pt.Closes)),
	}
	for i, c := range pt.Closes {
		res.Closes[i] = slices.Clone(c)
	}
	return res
}

// ReturnsTable holds daily percentage returns, rows are dates and columns are tickers.
type ReturnsTable struct {
	Dates   []time.Time
	Tickers []string
	Values  *mat.Dense
}

// Observations is the number of daily return rows.
func (rt *ReturnsTable) Observations() int {
	if rt == nil || rt.Values == nil {
		return 0
	}
	r, _ := rt.Values.Dims()
	return r
}

// ReturnsResult is the output of the returns engine.
type ReturnsResult struct {
	Returns     *ReturnsTable
	MeanReturns []float64     // annualised
	Covariance  *mat.SymDense // annualised
	Dropped     []string      // requested tickers without usable data
}

// AssetStatistics summarises one ticker of a ReturnsResult.
type AssetStatistics struct {
	Ticker     string  `json:"ticker"`
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
