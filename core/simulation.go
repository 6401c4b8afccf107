package core

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

const (
	Workers = 8
	// each job holds a trading days x BatchSize block of portfolio daily returns
	BatchSize = 1_000
)

type job struct {
	start int
	end   int
}

// GetNumberOfJobsAndWorkers splits iterations into half-open [start, end) batches of at most batchSize
// and caps the worker count at the number of batches.
func GetNumberOfJobsAndWorkers(iterations int, batchSize int, workers int) ([]job, int) {
	nJobs := int(math.Ceil(float64(iterations) / float64(batchSize)))
	nWorkers := ex.Min(nJobs, workers)

	jobs := make([]job, nJobs)
	for i := range nJobs {
		jobs[i] = job{
			start: i * batchSize,
			end:   ex.Min((i+1)*batchSize, iterations),
		}
	}

	return jobs, nWorkers
}

// SimulationEngine samples random long-only portfolios and scores them against a ReturnsResult.
type SimulationEngine struct {
	log       zerolog.Logger
	workers   int
	batchSize int
}

func NewSimulationEngine(log zerolog.Logger, workers int) *SimulationEngine {
	if workers < 1 {
		workers = Workers
	}
	return &SimulationEngine{
		log:       log.With().Str("component", "simulation").Logger(),
		workers:   workers,
		batchSize: BatchSize,
	}
}

// Simulate draws NumSimulations*Oversample weight vectors from the seeded generator, keeps the first
// NumSimulations that respect the weight bounds, and computes their metrics. An empty population is
// not an error here; the caller decides how to report it.
func (se *SimulationEngine) Simulate(ctx context.Context, rr *m.ReturnsResult, params m.SimulationParams) (*m.Population, error) {
	if rr == nil || rr.Returns.Observations() < 2 || len(rr.MeanReturns) == 0 {
		return nil, fmt.Errorf("simulation needs at least one asset and two daily returns")
	}
	if params.NumSimulations < 1 {
		return nil, fmt.Errorf("number of simulations must be positive, got %d", params.NumSimulations)
	}

	oversample := params.Oversample
	if oversample < 1 {
		oversample = m.DefaultOversample
	}

	nAssets := len(rr.MeanReturns)
	weights, drawn := drawWeights(params, nAssets, params.NumSimulations*oversample)

	pop := &m.Population{
		Tickers:    rr.Returns.Tickers,
		Drawn:      drawn,
		MinWeight:  params.MinWeight,
		MaxWeight:  params.MaxWeight,
		Portfolios: make([]m.SimulatedPortfolio, len(weights)),
	}

	se.log.Info().
		Int("assets", nAssets).
		Int("drawn", drawn).
		Int("survivors", len(weights)).
		Uint64("seed", params.Seed).
		Msg("sampled portfolio weights")

	if len(weights) == 0 {
		se.log.Warn().
			Float64("min_weight", params.MinWeight).
			Float64("max_weight", params.MaxWeight).
			Msg("no sampled portfolio satisfies the weight bounds")
		return pop, nil
	}

	jobs, nWorkers := GetNumberOfJobsAndWorkers(len(weights), se.batchSize, se.workers)

	jobsChannel := make(chan job, len(jobs))
	for _, j := range jobs {
		jobsChannel <- j
	}
	close(jobsChannel)

	mu := mat.NewVecDense(nAssets, rr.MeanReturns)
	g, gctx := errgroup.WithContext(ctx)

	for range nWorkers {
		g.Go(func() error {
			for j := range jobsChannel {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				scoreBatch(pop.Portfolios[j.start:j.end], weights[j.start:j.end], rr, mu, params)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return pop, nil
}

// drawWeights consumes the generator row by row and stops once n survivors are found.
// Survivors are identical to filtering all candidates and keeping the first n.
func drawWeights(params m.SimulationParams, nAssets, nCandidates int) ([][]float64, int) {
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(params.Seed, 0)}

	res := make([][]float64, 0, params.NumSimulations)
	drawn := 0

	for drawn < nCandidates && len(res) < params.NumSimulations {
		drawn++

		w := make([]float64, nAssets)
		for j := range w {
			w[j] = uniform.Rand()
		}

		total := floats.Sum(w)
		if total <= 0 {
			continue
		}
		for j := range w {
			w[j] /= total
		}

		if withinBounds(w, params.MinWeight, params.MaxWeight) {
			res = append(res, w)
		}
	}

	return res, drawn
}

func withinBounds(w []float64, minWeight, maxWeight float64) bool {
	for _, v := range w {
		if v < minWeight || v > maxWeight {
			return false
		}
	}
	return true
}

// scoreBatch fills out with the metrics of each weight vector, one matrix product per metric.
func scoreBatch(out []m.SimulatedPortfolio, weights [][]float64, rr *m.ReturnsResult, mu *mat.VecDense, params m.SimulationParams) {
	nBatch := len(weights)
	nAssets := mu.Len()

	flat := make([]float64, 0, nBatch*nAssets)
	for _, w := range weights {
		flat = append(flat, w...)
	}
	w := mat.NewDense(nBatch, nAssets, flat)

	var rets mat.VecDense
	rets.MulVec(w, mu)

	var wCov mat.Dense
	wCov.Mul(w, rr.Covariance)

	// rows are trading days, columns are portfolios of this batch
	var daily mat.Dense
	daily.Mul(rr.Returns.Values, w.T())

	nDays, _ := daily.Dims()
	series := make([]float64, nDays)

	for k := range nBatch {
		variance := floats.Dot(wCov.RawRowView(k), weights[k])
		volatility := math.Sqrt(math.Max(variance, 0))
		ret := rets.AtVec(k)

		mat.Col(series, k, &daily)
		valueAtRisk, cvar := calculateTailRisk(sortedCopy(series), params.Alpha)

		out[k] = m.SimulatedPortfolio{
			Weights:    weights[k],
			Return:     ret,
			Volatility: volatility,
			Sharpe:     sharpeRatio(ret, params.RiskFreeRate, volatility),
			VaR:        valueAtRisk,
			CVaR:       cvar,
		}
	}
}
