package core

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

// GetCovarianceMatrix returns the sample covariance of the columns of returns scaled by annualizationFactor.
func GetCovarianceMatrix(returns *mat.Dense, annualizationFactor int) *mat.SymDense {
	_, nAssets := returns.Dims()
	covMatrix := mat.NewSymDense(nAssets, nil)
	stat.CovarianceMatrix(covMatrix, returns, nil)
	covMatrix.ScaleSym(float64(annualizationFactor), covMatrix)
	return covMatrix
}

// GetMeanReturns returns the column means of returns scaled by annualizationFactor.
func GetMeanReturns(returns *mat.Dense, annualizationFactor int) []float64 {
	_, nAssets := returns.Dims()
	res := make([]float64, nAssets)
	for j := range nAssets {
		res[j] = stat.Mean(mat.Col(nil, j, returns), nil) * float64(annualizationFactor)
	}
	return res
}

// GetAssetStatistics annualises each column on its own, volatility being std * sqrt(factor).
func GetAssetStatistics(rr *m.ReturnsResult) []m.AssetStatistics {
	res := make([]m.AssetStatistics, len(rr.Returns.Tickers))
	for j, ticker := range rr.Returns.Tickers {
		res[j] = m.AssetStatistics{
			Ticker:     ticker,
			Return:     rr.MeanReturns[j],
			Volatility: math.Sqrt(rr.Covariance.At(j, j)),
		}
	}
	return res
}

// tailIndex is the rank of the VaR cut in a sorted series of n observations: floor(alpha*n), at least 1, at most n-1.
func tailIndex(alpha float64, n int) int {
	idx := int(math.Floor(alpha * float64(n)))
	idx = max(idx, 1)
	return ex.Min(idx, n-1)
}

// calculateTailRisk returns the empirical VaR and CVaR of an ascending series.
// VaR is the observation at the tail index, CVaR is the mean of everything below it.
func calculateTailRisk(sortedReturns []float64, alpha float64) (float64, float64) {
	idx := tailIndex(alpha, len(sortedReturns))
	return sortedReturns[idx], stat.Mean(sortedReturns[:idx], nil)
}

// sharpeRatio returns +Inf, -Inf or NaN for a zero volatility portfolio depending on the sign of the excess return.
func sharpeRatio(portfolioReturn, riskFreeRate, volatility float64) float64 {
	excess := portfolioReturn - riskFreeRate
	if volatility == 0 {
		switch {
		case excess > 0:
			return math.Inf(1)
		case excess < 0:
			return math.Inf(-1)
		default:
			return math.NaN()
		}
	}
	return excess / volatility
}

func sortedCopy(values []float64) []float64 {
	res := slices.Clone(values)
	slices.Sort(res)
	return res
}
