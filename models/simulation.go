package models

import (
	"time"
)

// Daily is the number of trading days used to annualise daily statistics.
const Daily = 252

const (
	DefaultSeed       uint64 = 72
	DefaultOversample        = 5
)

const (
	LabelMaxSharpe     = "Max Sharpe"
	LabelMinVolatility = "Min Volatility"
	LabelBestCVaR      = "Best CVaR"
)

// SimulationParams drives a single simulation pass over a ReturnsResult.
type SimulationParams struct {
	RiskFreeRate   float64
	NumSimulations int
	Alpha          float64
	MinWeight      float64
	MaxWeight      float64
	Seed           uint64
	Oversample     int // candidates drawn per requested portfolio
}

// DefaultSimulationParams is a long-only, unconstrained run of the minimum size.
func DefaultSimulationParams() SimulationParams {
	return SimulationParams{
		NumSimulations: 1_000,
		Alpha:          0.05,
		MinWeight:      0,
		MaxWeight:      1,
		Seed:           DefaultSeed,
		Oversample:     DefaultOversample,
	}
}

// SimulatedPortfolio is one surviving weight vector with its derived metrics.
type SimulatedPortfolio struct {
	Weights    []float64 `json:"weights"`
	Return     float64   `json:"return"`
	Volatility float64   `json:"volatility"`
	Sharpe     float64   `json:"sharpe"`
	VaR        float64   `json:"var"`
	CVaR       float64   `json:"cvar"`
}

// Population is the set of portfolios that survived the weight bound filter.
type Population struct {
	Tickers    []string
	Drawn      int // vectors drawn before filtering
	MinWeight  float64
	MaxWeight  float64
	Portfolios []SimulatedPortfolio
}

func (p *Population) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Portfolios)
}

// PortfolioSelection holds the portfolios picked from a population under each objective.
type PortfolioSelection struct {
	MaxSharpe     SimulatedPortfolio `json:"maxSharpe"`
	MinVolatility SimulatedPortfolio `json:"minVolatility"`
	BestCVaR      SimulatedPortfolio `json:"bestCvar"`
}

// LabeledPortfolio pairs a selected portfolio with its display label.
type LabeledPortfolio struct {
	Label     string
	Portfolio SimulatedPortfolio
}

// Labeled returns the selection in display order.
func (ps *PortfolioSelection) Labeled() []LabeledPortfolio {
	return []LabeledPortfolio{
		{Label: LabelMaxSharpe, Portfolio: ps.MaxSharpe},
		{Label: LabelMinVolatility, Portfolio: ps.MinVolatility},
		{Label: LabelBestCVaR, Portfolio: ps.BestCVaR},
	}
}

// Benchmark is the annualised return and volatility of a reference index over the same window.
type Benchmark struct {
	Ticker     string  `json:"ticker"`
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
}

// OptimisationResult is everything one pipeline invocation hands to the presentation layer.
type OptimisationResult struct {
	RunID       string             `json:"runId"`
	Tickers     []string           `json:"tickers"`
	Dropped     []string           `json:"dropped"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	TradingDays int                `json:"tradingDays"`
	Params      SimulationParams   `json:"-"`
	Assets      []AssetStatistics  `json:"assets"`
	Population  *Population        `json:"-"`
	Selection   PortfolioSelection `json:"selection"`
	Benchmark   *Benchmark         `json:"benchmark,omitempty"`
	Drawn       int                `json:"drawn"`
	Survivors   int                `json:"survivors"`
	Elapsed     time.Duration      `json:"-"`
}
