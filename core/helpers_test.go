package core

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	m "mc.frontier/models"
)

// annualised drift and volatility of the mock assets
const (
	mu_a    = 0.08
	mu_b    = 0.12
	mu_c    = 0.05
	sigma_a = 0.15
	sigma_b = 0.25
	sigma_c = 0.10

	corr_ab = 0.6
	corr_ac = -0.2
	corr_bc = 0.1
)

var mockTickers = []string{"AAA", "BBB", "CCC"}

// generateMockReturns draws n days of correlated daily log returns for three assets.
func generateMockReturns(t *testing.T, n int) [][]float64 {
	t.Helper()

	nAssets := 3
	corrMatrix := mat.NewSymDense(nAssets, []float64{
		1.0, corr_ab, corr_ac,
		corr_ab, 1.0, corr_bc,
		corr_ac, corr_bc, 1.0,
	})

	var chol mat.Cholesky
	if ok := chol.Factorize(corrMatrix); !ok {
		t.Fatalf("correlation matrix is not positive definite")
	}

	L := new(mat.TriDense)
	chol.LTo(L)

	normalDist := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(42, 0)}
	mus := []float64{mu_a, mu_b, mu_c}
	sigmas := []float64{sigma_a, sigma_b, sigma_c}

	res := [][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	z := make([]float64, nAssets)
	for day := range n {
		for i := range nAssets {
			z[i] = normalDist.Rand()
		}

		var correlatedZ mat.VecDense
		correlatedZ.MulVec(L, mat.NewVecDense(nAssets, z))

		for i := range nAssets {
			res[i][day] = (mus[i]-0.5*sigmas[i]*sigmas[i])/m.Daily + sigmas[i]*correlatedZ.AtVec(i)/math.Sqrt(m.Daily)
		}
	}

	return res
}

// generateMockPriceTable compounds the mock returns into n+1 weekday closes.
func generateMockPriceTable(t *testing.T, n int) *m.PriceTable {
	t.Helper()

	returns := generateMockReturns(t, n)
	start := []float64{100, 50, 200}

	pt := &m.PriceTable{
		Dates:   mockDates(n + 1),
		Tickers: append([]string(nil), mockTickers...),
		Closes:  make([][]float64, len(mockTickers)),
	}

	for i := range mockTickers {
		closes := make([]float64, n+1)
		closes[0] = start[i]
		for day, r := range returns[i] {
			closes[day+1] = closes[day] * math.Exp(r)
		}
		pt.Closes[i] = closes
	}

	return pt
}

func mockDates(n int) []time.Time {
	res := make([]time.Time, 0, n)
	d := time.Date(2022, time.January, 3, 0, 0, 0, 0, time.UTC)
	for len(res) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			res = append(res, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return res
}

// staticProvider serves a fixed price table and records every request.
type staticProvider struct {
	mu       sync.Mutex
	table    *m.PriceTable
	err      error
	calls    int
	requests []priceRequest
}

type priceRequest struct {
	tickers    []string
	start, end time.Time
}

func (sp *staticProvider) Name() string { return "static" }

func (sp *staticProvider) GetPriceTable(ctx context.Context, tickers []string, start, end time.Time) (*m.PriceTable, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.calls++
	sp.requests = append(sp.requests, priceRequest{tickers: tickers, start: start, end: end})
	if sp.err != nil {
		return nil, sp.err
	}
	return sp.table.Between(start, end), nil
}

// arrToMatrix builds an observations x series matrix from column slices.
func arrToMatrix[T ~int | ~float64](data [][]T) *mat.Dense {
	res := mat.NewDense(len(data[0]), len(data), nil)
	for j, col := range data {
		for i, v := range col {
			res.Set(i, j, float64(v))
		}
	}
	return res
}

func dot(a, b []float64) (res float64) {
	for i, v := range a {
		res += v * b[i]
	}
	return
}

func sum(values []float64) (res float64) {
	for _, v := range values {
		res += v
	}
	return
}
