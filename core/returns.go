package core

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

// ReturnsEngine turns a price table into daily returns and their annualised moments.
type ReturnsEngine struct {
	log zerolog.Logger
}

func NewReturnsEngine(log zerolog.Logger) *ReturnsEngine {
	return &ReturnsEngine{log: log.With().Str("component", "returns").Logger()}
}

// Compute selects the requested tickers from prices (case-insensitively), forward fills gaps,
// takes percentage changes and drops any date where a change is undefined for some ticker.
// Requested tickers with no column or no finite close are dropped and reported, never fatal
// unless none are left.
func (re *ReturnsEngine) Compute(prices *m.PriceTable, tickers []string) (*m.ReturnsResult, error) {
	requested := m.NormaliseTickers(tickers)

	cols := make([]int, 0, len(requested))
	kept := make([]string, 0, len(requested))
	dropped := make([]string, 0)

	for _, ticker := range requested {
		idx := -1
		if prices != nil {
			idx = prices.ColumnIndex(ticker)
		}

		switch {
		case idx < 0:
			re.log.Warn().Str("ticker", ticker).Msg("ticker not found in price data, dropping")
			dropped = append(dropped, ticker)
		case !prices.HasData(idx):
			re.log.Warn().Str("ticker", ticker).Msg("ticker has no price data, dropping")
			dropped = append(dropped, ticker)
		default:
			cols = append(cols, idx)
			kept = append(kept, ticker)
		}
	}

	if len(cols) == 0 {
		return nil, &InputError{Requested: requested, Dropped: dropped, Reason: "no valid tickers found"}
	}

	returns := dailyReturns(prices, cols, kept)
	nObservations := returns.Observations()
	if nObservations < 2 {
		return nil, &InputError{
			Requested: requested,
			Dropped:   dropped,
			Reason:    fmt.Sprintf("insufficient price history, %d daily returns for %d tickers", nObservations, len(kept)),
		}
	}

	re.log.Info().
		Strs("tickers", kept).
		Int("trading_days", nObservations).
		Str("from", ex.FmtShort(returns.Dates[0])).
		Str("to", ex.FmtShort(returns.Dates[nObservations-1])).
		Msg("computed daily returns")

	return &m.ReturnsResult{
		Returns:     returns,
		MeanReturns: GetMeanReturns(returns.Values, m.Daily),
		Covariance:  GetCovarianceMatrix(returns.Values, m.Daily),
		Dropped:     dropped,
	}, nil
}

// dailyReturns builds the returns table for the given price columns.
// A date is kept only when every column has a finite change against the previous (filled) close.
func dailyReturns(prices *m.PriceTable, cols []int, tickers []string) *m.ReturnsTable {
	nCols := len(cols)
	last := make([]float64, nCols)
	for j := range last {
		last[j] = math.NaN()
	}

	data := make([]float64, 0, len(prices.Dates)*nCols)
	res := &m.ReturnsTable{Tickers: tickers}

	for r, date := range prices.Dates {
		row := make([]float64, nCols)
		valid := true

		for j, c := range cols {
			prev := last[j]
			price := prices.Closes[c][r]
			if ex.IsFinite(price) {
				last[j] = price
			} else {
				price = prev
			}

			row[j] = price/prev - 1
			if !ex.IsFinite(row[j]) {
				valid = false
			}
		}

		if valid {
			data = append(data, row...)
			res.Dates = append(res.Dates, date)
		}
	}

	if len(res.Dates) > 0 {
		res.Values = mat.NewDense(len(res.Dates), nCols, data)
	}

	return res
}
