package core

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

// RunOptimisation is one full pass: prices, returns, simulation, selection.
// Everything the presentation layer needs comes back in a single result value.
func (sc *ServiceContext) RunOptimisation(ctx context.Context, settings m.SimulationSettings) (*m.OptimisationResult, error) {
	begin := time.Now()
	runID := uuid.NewString()
	log := sc.Log.With().Str("run_id", runID).Logger()

	if err := settings.Validate(); err != nil {
		log.Warn().Err(err).Msg("rejected simulation settings")
		return nil, err
	}

	start, end, err := settings.DateRange(time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("rejected simulation settings")
		return nil, err
	}

	tickers := settings.ResolveTickers()
	params := settings.Params()
	if settings.Seed == nil {
		params.Seed = sc.DefaultSeed
	}

	log.Info().
		Strs("tickers", tickers).
		Str("start", ex.FmtShort(start)).
		Str("end", ex.FmtShort(end)).
		Int("simulations", params.NumSimulations).
		Msg("received optimisation request")

	log.Debug().Str("provider", sc.Prices.Name()).Dur("elapsed", time.Since(begin)).Msg("loading prices")
	prices, err := sc.Prices.GetPriceTable(ctx, tickers, start, end)
	if err != nil {
		log.Error().Err(err).Msg("error loading prices")
		return nil, fmt.Errorf("error loading prices: %w", err)
	}

	log.Debug().Dur("elapsed", time.Since(begin)).Msg("computing returns")
	rr, err := sc.Returns.Compute(prices, tickers)
	if err != nil {
		log.Warn().Err(err).Msg("error computing returns")
		return nil, err
	}

	log.Debug().Dur("elapsed", time.Since(begin)).Msg("running simulation")
	pop, err := sc.Simulation.Simulate(ctx, rr, params)
	if err != nil {
		log.Error().Err(err).Msg("error running simulation")
		return nil, fmt.Errorf("error running simulation: %w", err)
	}

	selection, err := Select(pop)
	if err != nil {
		log.Warn().Err(err).Msg("error selecting portfolios")
		return nil, err
	}

	result := &m.OptimisationResult{
		RunID:       runID,
		Tickers:     slices.Clone(rr.Returns.Tickers),
		Dropped:     rr.Dropped,
		Start:       start,
		End:         end,
		TradingDays: rr.Returns.Observations(),
		Params:      params,
		Assets:      GetAssetStatistics(rr),
		Population:  pop,
		Selection:   *selection,
		Benchmark:   sc.getBenchmark(ctx, log, rr.Returns),
		Drawn:       pop.Drawn,
		Survivors:   pop.Len(),
		Elapsed:     time.Since(begin),
	}

	log.Info().
		Int("survivors", result.Survivors).
		Float64("max_sharpe", selection.MaxSharpe.Sharpe).
		Float64("min_volatility", selection.MinVolatility.Volatility).
		Float64("best_cvar", selection.BestCVaR.CVaR).
		Dur("elapsed", result.Elapsed).
		Msg("optimisation completed")

	return result, nil
}

// getBenchmark annualises the benchmark over the dates the portfolio returns actually cover,
// which can be narrower than the requested range. Failure only costs the benchmark point.
func (sc *ServiceContext) getBenchmark(ctx context.Context, log zerolog.Logger, returns *m.ReturnsTable) *m.Benchmark {
	if sc.BenchmarkTicker == "" || len(returns.Dates) == 0 {
		return nil
	}

	// end is exclusive
	start := returns.Dates[0]
	end := returns.Dates[len(returns.Dates)-1].AddDate(0, 0, 1)

	prices, err := sc.Prices.GetPriceTable(ctx, []string{sc.BenchmarkTicker}, start, end)
	if err != nil {
		log.Warn().Err(err).Str("ticker", sc.BenchmarkTicker).Msg("could not load benchmark prices")
		return nil
	}

	rr, err := NewReturnsEngine(zerolog.Nop()).Compute(prices, []string{sc.BenchmarkTicker})
	if err != nil {
		log.Warn().Err(err).Str("ticker", sc.BenchmarkTicker).Msg("could not compute benchmark returns")
		return nil
	}

	return &m.Benchmark{
		Ticker:     sc.BenchmarkTicker,
		Return:     rr.MeanReturns[0],
		Volatility: math.Sqrt(rr.Covariance.At(0, 0)),
	}
}
