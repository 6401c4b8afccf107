package presentation

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().PaddingLeft(2).Width(20)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// MetricRow is one line of a portfolio metrics table.
type MetricRow struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// MetricsTable formats a portfolio for display, percentages with two decimals and the Sharpe ratio with three.
func MetricsTable(p m.SimulatedPortfolio) []MetricRow {
	return []MetricRow{
		{Metric: "Expected Return", Value: percent(p.Return)},
		{Metric: "Volatility", Value: percent(p.Volatility)},
		{Metric: "Sharpe Ratio", Value: decimal(p.Sharpe, 3)},
		{Metric: "VaR", Value: percent(p.VaR)},
		{Metric: "CVaR", Value: percent(p.CVaR)},
	}
}

// WriteSummary prints the selected portfolios with their metrics and allocations.
func WriteSummary(w io.Writer, result *m.OptimisationResult) error {
	var sb strings.Builder

	sb.WriteString(headingStyle.Render("Run "+result.RunID) + "\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("%s to %s, %s trading days, %s portfolios kept of %s drawn",
		ex.FmtShort(result.Start), ex.FmtShort(result.End),
		humanize.Comma(int64(result.TradingDays)),
		humanize.Comma(int64(result.Survivors)),
		humanize.Comma(int64(result.Drawn)))) + "\n")
	if len(result.Dropped) > 0 {
		sb.WriteString(mutedStyle.Render("Dropped: "+strings.Join(result.Dropped, ", ")) + "\n")
	}

	for _, lp := range result.Selection.Labeled() {
		sb.WriteString("\n" + headingStyle.Render(lp.Label+" Portfolio") + "\n")
		for _, row := range MetricsTable(lp.Portfolio) {
			sb.WriteString(labelStyle.Render(row.Metric) + row.Value + "\n")
		}
		for j, ticker := range result.Tickers {
			sb.WriteString(labelStyle.Render(ticker) + percent(lp.Portfolio.Weights[j]) + "\n")
		}
	}

	if b := result.Benchmark; b != nil {
		sb.WriteString("\n" + headingStyle.Render("Benchmark "+b.Ticker) + "\n")
		sb.WriteString(labelStyle.Render("Expected Return") + percent(b.Return) + "\n")
		sb.WriteString(labelStyle.Render("Volatility") + percent(b.Volatility) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func decimal(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%.*f", places, v)
}
