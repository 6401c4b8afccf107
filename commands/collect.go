package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mc.frontier/api/csv_file"
	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

// collectTickers is the basket the dashboard's price file was built from.
var collectTickers = []string{"AAPL", "AMZN", "GOOGL", "META", "NFLX", "JPM", "GS", "MS", "BAC", "NVDA", "TSM", "MSFT", "PLTR"}

func newCollectCmd(a *app) *cobra.Command {
	var (
		tickers string
		start   string
		end     string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Download closing prices into a csv file for the csv provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := collectTickers
			if tickers != "" {
				symbols = m.ParseTickers(tickers)
			}

			settings := m.SimulationSettings{Start: start, End: end}
			from, to, err := settings.DateRange(time.Now())
			if err != nil {
				return err
			}

			prices, cleanup, err := a.priceRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			pt, err := prices.GetPriceTable(cmd.Context(), symbols, from, to)
			if err != nil {
				return err
			}

			if err := writeFile(out, func(f *os.File) error { return csv_file.WritePriceTable(f, pt) }); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d dates from %s to %s to %s\nmissing data:\n", len(pt.Dates), ex.FmtShort(from), ex.FmtShort(to), out)
			for col, ticker := range pt.Tickers {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %d\n", ticker, missingCount(pt.Closes[col]))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&tickers, "tickers", "", "comma separated tickers, defaults to the dashboard basket")
	flags.StringVar(&start, "start", "2022-01-01", "first date, YYYY-MM-DD")
	flags.StringVar(&end, "end", "", "end date (exclusive), YYYY-MM-DD, default today")
	flags.StringVar(&out, "out", "stock_data.csv", "output file")

	return cmd
}

func missingCount(closes []float64) int {
	return len(ex.FilterMultiple(closes, func(v float64) bool { return !ex.IsFinite(v) }))
}
