package presentation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	m "mc.frontier/models"
)

// ExportFileName is the download name of the results table.
const ExportFileName = "portfolio_simulation_results.csv"

var metricColumns = []string{"Returns", "Volatility", "Sharpe", "VaR", "CVaR"}

// WriteCSV writes one row per simulated portfolio: the five metrics followed by a weight column per ticker.
func WriteCSV(w io.Writer, pop *m.Population) error {
	if pop == nil {
		return fmt.Errorf("no population to export")
	}

	cw := csv.NewWriter(w)

	header := make([]string, 0, len(metricColumns)+len(pop.Tickers))
	header = append(header, metricColumns...)
	header = append(header, pop.Tickers...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}

	record := make([]string, len(header))
	for i, p := range pop.Portfolios {
		if len(p.Weights) != len(pop.Tickers) {
			return fmt.Errorf("portfolio %d has %d weights for %d tickers", i, len(p.Weights), len(pop.Tickers))
		}

		record[0] = formatFloat(p.Return)
		record[1] = formatFloat(p.Volatility)
		record[2] = formatFloat(p.Sharpe)
		record[3] = formatFloat(p.VaR)
		record[4] = formatFloat(p.CVaR)
		for j, weight := range p.Weights {
			record[len(metricColumns)+j] = formatFloat(weight)
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("error writing csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatFloat writes the shortest exact representation; non-finite values come out as NaN, +Inf, -Inf.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
