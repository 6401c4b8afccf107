package core

import (
	"math"
	"slices"

	m "mc.frontier/models"
)

// Select picks the max Sharpe, min volatility and max CVaR portfolios from pop.
// Ties go to the earliest portfolio and NaN metrics never win unless every value is NaN.
func Select(pop *m.Population) (*m.PortfolioSelection, error) {
	if pop.Len() == 0 {
		res := &ConstraintError{}
		if pop != nil {
			res.MinWeight, res.MaxWeight = pop.MinWeight, pop.MaxWeight
			res.Assets, res.Drawn = len(pop.Tickers), pop.Drawn
		}
		return nil, res
	}

	ps := pop.Portfolios
	maxSharpe := argBest(ps, func(p m.SimulatedPortfolio) float64 { return p.Sharpe }, greater)
	minVolatility := argBest(ps, func(p m.SimulatedPortfolio) float64 { return p.Volatility }, less)
	bestCVaR := argBest(ps, func(p m.SimulatedPortfolio) float64 { return p.CVaR }, greater)

	return &m.PortfolioSelection{
		MaxSharpe:     clonePortfolio(ps[maxSharpe]),
		MinVolatility: clonePortfolio(ps[minVolatility]),
		BestCVaR:      clonePortfolio(ps[bestCVaR]),
	}, nil
}

func greater(a, b float64) bool { return a > b }
func less(a, b float64) bool    { return a < b }

func argBest(ps []m.SimulatedPortfolio, metric func(m.SimulatedPortfolio) float64, better func(a, b float64) bool) int {
	best := -1
	bestValue := math.NaN()

	for i, p := range ps {
		v := metric(p)
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || better(v, bestValue) {
			best, bestValue = i, v
		}
	}

	if best < 0 {
		return 0
	}
	return best
}

func clonePortfolio(p m.SimulatedPortfolio) m.SimulatedPortfolio {
	p.Weights = slices.Clone(p.Weights)
	return p
}
