package presentation

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	charts "github.com/vicanso/go-charts/v2"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

const (
	chartWidth  = 1024
	chartHeight = 640
)

var selectionColors = map[string]drawing.Color{
	m.LabelMaxSharpe:     drawing.ColorFromHex("d62728"),
	m.LabelMinVolatility: drawing.ColorFromHex("1f77b4"),
	m.LabelBestCVaR:      drawing.ColorFromHex("2ca02c"),
}

// RenderFrontier draws every simulated portfolio as returns (%) against volatility (%),
// with the selected portfolios and the benchmark highlighted. Returns PNG bytes.
func RenderFrontier(result *m.OptimisationResult) ([]byte, error) {
	if result == nil || result.Population.Len() == 0 {
		return nil, fmt.Errorf("no simulated portfolios to plot")
	}

	pts := newPointRange()

	population := chart.ContinuousSeries{
		Name: "Portfolios",
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    1.5,
			DotColor:    drawing.ColorFromHex("9e9ac8").WithAlpha(160),
		},
	}
	for _, p := range result.Population.Portfolios {
		x, y := p.Volatility*100, p.Return*100
		if !ex.IsFinite(x) || !ex.IsFinite(y) {
			continue
		}
		population.XValues = append(population.XValues, x)
		population.YValues = append(population.YValues, y)
		pts.add(x, y)
	}

	series := []chart.Series{population}

	for _, lp := range result.Selection.Labeled() {
		x, y := lp.Portfolio.Volatility*100, lp.Portfolio.Return*100
		pts.add(x, y)
		series = append(series, marker(lp.Label, x, y, selectionColors[lp.Label]))
	}

	if b := result.Benchmark; b != nil && ex.IsFinite(b.Volatility) && ex.IsFinite(b.Return) {
		x, y := b.Volatility*100, b.Return*100
		pts.add(x, y)
		series = append(series, marker(b.Ticker, x, y, drawing.ColorFromHex("ff7f0e")))
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Efficient Frontier (%s)", strings.Join(result.Tickers, ", ")),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Volatility (%)",
			Range:          pts.xRange(),
			ValueFormatter: oneDecimal,
		},
		YAxis: chart.YAxis{
			Name:           "Returns (%)",
			Range:          pts.yRange(),
			ValueFormatter: oneDecimal,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendThin(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render frontier chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderAllocation draws the weights of one portfolio as a pie chart. Returns PNG bytes.
func RenderAllocation(tickers []string, p m.SimulatedPortfolio, label string) ([]byte, error) {
	if len(tickers) == 0 || len(tickers) != len(p.Weights) {
		return nil, fmt.Errorf("allocation needs one weight per ticker, got %d weights for %d tickers", len(p.Weights), len(tickers))
	}

	legend := make([]string, len(tickers))
	for i, ticker := range tickers {
		legend[i] = fmt.Sprintf("%s (%.1f%%)", ticker, p.Weights[i]*100)
	}

	painter, err := charts.PieRender(
		p.Weights,
		charts.TitleTextOptionFunc(label+" Portfolio Allocation"),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: legend,
			Top:  charts.PositionBottom,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render allocation chart: %w", err)
	}

	buf, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate allocation chart bytes: %w", err)
	}
	return buf, nil
}

func marker(name string, x, y float64, color drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name: name,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    7,
			DotColor:    color,
		},
		XValues: []float64{x},
		YValues: []float64{y},
	}
}

func oneDecimal(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f", f)
	}
	return ""
}

// pointRange tracks the data extent so the axes never collapse to a zero-width range.
type pointRange struct {
	minX, maxX, minY, maxY float64
}

func newPointRange() *pointRange {
	return &pointRange{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
}

func (pr *pointRange) add(x, y float64) {
	if !ex.IsFinite(x) || !ex.IsFinite(y) {
		return
	}
	pr.minX, pr.maxX = math.Min(pr.minX, x), math.Max(pr.maxX, x)
	pr.minY, pr.maxY = math.Min(pr.minY, y), math.Max(pr.maxY, y)
}

func (pr *pointRange) xRange() *chart.ContinuousRange {
	lo, hi := padded(pr.minX, pr.maxX)
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func (pr *pointRange) yRange() *chart.ContinuousRange {
	lo, hi := padded(pr.minY, pr.maxY)
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func padded(lo, hi float64) (float64, float64) {
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1)
	}
	return lo - pad, hi + pad
}
