package models

import (
	"math"
	"time"

	"github.com/guregu/null/v6"
)

type ServiceResponse[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error"`
}

func GetServiceResponseOk[T any](data *T) ServiceResponse[T] {
	return ServiceResponse[T]{
		Data:  data,
		Error: "",
	}
}

func GetServiceResponseError(errorMessage string) ServiceResponse[any] {
	return ServiceResponse[any]{
		Data:  nil,
		Error: errorMessage,
	}
}

// PortfolioResponse is a selected portfolio as sent to the front end.
// Non-finite metrics (a zero volatility Sharpe for example) are sent as null.
type PortfolioResponse struct {
	Label      string             `json:"label"`
	Return     null.Float         `json:"return"`
	Volatility null.Float         `json:"volatility"`
	Sharpe     null.Float         `json:"sharpe"`
	VaR        null.Float         `json:"var"`
	CVaR       null.Float         `json:"cvar"`
	Weights    map[string]float64 `json:"weights"`
}

// OptimisationResponse is the JSON body of a successful optimisation request.
type OptimisationResponse struct {
	RunID       string              `json:"runId"`
	Tickers     []string            `json:"tickers"`
	Dropped     []string            `json:"dropped"`
	Start       string              `json:"start"`
	End         string              `json:"end"`
	TradingDays int                 `json:"tradingDays"`
	Drawn       int                 `json:"drawn"`
	Survivors   int                 `json:"survivors"`
	Assets      []AssetStatistics   `json:"assets"`
	Portfolios  []PortfolioResponse `json:"portfolios"`
	Benchmark   *Benchmark          `json:"benchmark,omitempty"`
	ElapsedMs   int64               `json:"elapsedMs"`
}

func MapOptimisationResultToResponse(res *OptimisationResult) OptimisationResponse {
	portfolios := make([]PortfolioResponse, 0, 3)
	for _, lp := range res.Selection.Labeled() {
		portfolios = append(portfolios, MapPortfolioToResponse(lp.Label, lp.Portfolio, res.Tickers))
	}

	dropped := res.Dropped
	if dropped == nil {
		dropped = []string{}
	}

	return OptimisationResponse{
		RunID:       res.RunID,
		Tickers:     res.Tickers,
		Dropped:     dropped,
		Start:       res.Start.Format(time.DateOnly),
		End:         res.End.Format(time.DateOnly),
		TradingDays: res.TradingDays,
		Drawn:       res.Drawn,
		Survivors:   res.Survivors,
		Assets:      res.Assets,
		Portfolios:  portfolios,
		Benchmark:   res.Benchmark,
		ElapsedMs:   res.Elapsed.Milliseconds(),
	}
}

func MapPortfolioToResponse(label string, p SimulatedPortfolio, tickers []string) PortfolioResponse {
	weights := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		if i < len(p.Weights) {
			weights[t] = p.Weights[i]
		}
	}

	return PortfolioResponse{
		Label:      label,
		Return:     finite(p.Return),
		Volatility: finite(p.Volatility),
		Sharpe:     finite(p.Sharpe),
		VaR:        finite(p.VaR),
		CVaR:       finite(p.CVaR),
		Weights:    weights,
	}
}

func finite(v float64) null.Float {
	return null.NewFloat(v, !math.IsNaN(v) && !math.IsInf(v, 0))
}
