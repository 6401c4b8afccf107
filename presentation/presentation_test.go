package presentation

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "mc.frontier/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func testResult() *m.OptimisationResult {
	pop := &m.Population{
		Tickers:    []string{"AAPL", "MSFT"},
		Drawn:      10,
		Portfolios: []m.SimulatedPortfolio{
			{Weights: []float64{0.25, 0.75}, Return: 0.12, Volatility: 0.2, Sharpe: 0.6, VaR: -0.02, CVaR: -0.03},
			{Weights: []float64{0.5, 0.5}, Return: 0.1, Volatility: 0.15, Sharpe: 0.666, VaR: -0.015, CVaR: -0.025},
			{Weights: []float64{0.9, 0.1}, Return: 0.08, Volatility: 0.25, Sharpe: math.Inf(1), VaR: -0.03, CVaR: -0.04},
		},
	}

	return &m.OptimisationResult{
		RunID:       "run",
		Tickers:     pop.Tickers,
		Start:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		TradingDays: 251,
		Population:  pop,
		Selection: m.PortfolioSelection{
			MaxSharpe:     pop.Portfolios[1],
			MinVolatility: pop.Portfolios[1],
			BestCVaR:      pop.Portfolios[1],
		},
		Benchmark:  &m.Benchmark{Ticker: "^GSPC", Return: 0.09, Volatility: 0.18},
		Drawn:      10,
		Survivors:  3,
	}
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testResult().Population))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"Returns", "Volatility", "Sharpe", "VaR", "CVaR", "AAPL", "MSFT"}, records[0])
	assert.Equal(t, []string{"0.12", "0.2", "0.6", "-0.02", "-0.03", "0.25", "0.75"}, records[1])
	assert.Equal(t, "+Inf", records[3][2])
}

func TestWriteCSV_RejectsWeightMismatch(t *testing.T) {
	pop := &m.Population{Tickers: []string{"A", "B"}, Portfolios: []m.SimulatedPortfolio{{Weights: []float64{1}}}}
	assert.Error(t, WriteCSV(&bytes.Buffer{}, pop))
	assert.Error(t, WriteCSV(&bytes.Buffer{}, nil))
}

func TestMetricsTable_Formatting(t *testing.T) {
	rows := MetricsTable(m.SimulatedPortfolio{Return: 0.123456, Volatility: 0.2, Sharpe: 0.61728, VaR: -0.0213, CVaR: -0.031})

	assert.Equal(t, []MetricRow{
		{Metric: "Expected Return", Value: "12.35%"},
		{Metric: "Volatility", Value: "20.00%"},
		{Metric: "Sharpe Ratio", Value: "0.617"},
		{Metric: "VaR", Value: "-2.13%"},
		{Metric: "CVaR", Value: "-3.10%"},
	}, rows)

	rows = MetricsTable(m.SimulatedPortfolio{Sharpe: math.NaN()})
	assert.Equal(t, "NaN", rows[2].Value)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, testResult()))

	out := buf.String()
	for _, want := range []string{"Max Sharpe Portfolio", "Min Volatility Portfolio", "Best CVaR Portfolio", "MSFT", "50.00%", "^GSPC"} {
		assert.True(t, strings.Contains(out, want), "summary should contain %q", want)
	}
}

func TestRenderFrontier(t *testing.T) {
	png, err := RenderFrontier(testResult())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = RenderFrontier(&m.OptimisationResult{})
	assert.Error(t, err)
}

func TestRenderAllocation(t *testing.T) {
	res := testResult()

	png, err := RenderAllocation(res.Tickers, res.Selection.MaxSharpe, m.LabelMaxSharpe)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = RenderAllocation([]string{"A"}, res.Selection.MaxSharpe, m.LabelMaxSharpe)
	assert.Error(t, err)
}

func TestPadded_NeverCollapses(t *testing.T) {
	lo, hi := padded(5, 5)
	assert.Less(t, lo, 5.0)
	assert.Greater(t, hi, 5.0)
}
