package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	m "mc.frontier/models"
	"mc.frontier/presentation"
)

type simulateOptions struct {
	settings  m.SimulationSettings
	tickers   string
	seed      uint64
	benchmark string
	csvPath   string
	chartsDir string
}

func newSimulateCmd(a *app) *cobra.Command {
	opts := &simulateOptions{settings: m.DefaultSimulationSettings()}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one optimisation and print the selected portfolios",
		Long: `Runs the full pipeline once: prices, daily returns, portfolio sampling and selection.

Exit codes:
  2  invalid settings or no usable tickers
  3  no sampled portfolio satisfies the weight bounds
  4  the price provider failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.tickers != "" {
				opts.settings.Tickers = m.ParseTickers(opts.tickers)
			}
			if cmd.Flags().Changed("seed") {
				opts.settings.Seed = &opts.seed
			}
			if cmd.Flags().Changed("benchmark") {
				a.cfg.BenchmarkTicker = opts.benchmark
			}
			return a.simulate(cmd, opts)
		},
	}

	s := &opts.settings
	flags := cmd.Flags()
	flags.StringVar(&s.Universe, "universe", s.Universe, "preset universe: "+strings.Join(m.UniverseNames(), ", "))
	flags.StringVar(&opts.tickers, "tickers", "", "comma separated tickers, used when the universe is Custom")
	flags.StringVar(&s.Start, "start", s.Start, "first date, YYYY-MM-DD")
	flags.StringVar(&s.End, "end", s.End, "end date (exclusive), YYYY-MM-DD, default today")
	flags.IntVarP(&s.NumSimulations, "simulations", "n", s.NumSimulations, fmt.Sprintf("portfolios to keep (%d to %d)", m.MinSimulations, m.MaxSimulations))
	flags.Float64Var(&s.MinWeight, "min-weight", s.MinWeight, "minimum weight per asset")
	flags.Float64Var(&s.MaxWeight, "max-weight", s.MaxWeight, "maximum weight per asset")
	flags.Float64Var(&s.Alpha, "alpha", s.Alpha, "tail probability for VaR and CVaR")
	flags.Float64Var(&s.RiskFreeRate, "risk-free-rate", s.RiskFreeRate, "annual risk free rate used in the Sharpe ratio")
	flags.Uint64Var(&opts.seed, "seed", m.DefaultSeed, "random seed, defaults to SIMULATION_SEED")
	flags.StringVar(&opts.benchmark, "benchmark", "", "benchmark ticker, empty to skip, overrides BENCHMARK_TICKER")
	flags.StringVar(&opts.csvPath, "csv", "", "write every simulated portfolio to this csv file")
	flags.StringVar(&opts.chartsDir, "charts", "", "write the frontier and allocation charts to this directory")

	return cmd
}

func (a *app) simulate(cmd *cobra.Command, opts *simulateOptions) error {
	ctx := cmd.Context()

	prices, cleanup, err := a.priceRepository(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sc := a.serviceContext(ctx, prices)
	result, err := sc.RunOptimisation(ctx, opts.settings)
	if err != nil {
		return err
	}

	if err := presentation.WriteSummary(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("error writing summary: %w", err)
	}

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(f *os.File) error { return presentation.WriteCSV(f, result.Population) }); err != nil {
			return err
		}
		a.log.Info().Str("path", opts.csvPath).Int("portfolios", result.Population.Len()).Msg("wrote simulation results")
	}

	if opts.chartsDir != "" {
		if err := writeCharts(ctx, opts.chartsDir, result); err != nil {
			return err
		}
		a.log.Info().Str("dir", opts.chartsDir).Msg("wrote charts")
	}

	return nil
}

func writeCharts(ctx context.Context, dir string, result *m.OptimisationResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating chart directory: %w", err)
	}

	png, err := presentation.RenderFrontier(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "frontier.png"), png, 0o644); err != nil {
		return fmt.Errorf("error writing frontier chart: %w", err)
	}

	for _, lp := range result.Selection.Labeled() {
		if err := ctx.Err(); err != nil {
			return err
		}

		png, err := presentation.RenderAllocation(result.Tickers, lp.Portfolio, lp.Label)
		if err != nil {
			return err
		}

		name := "allocation_" + strings.ToLower(strings.ReplaceAll(lp.Label, " ", "_")) + ".png"
		if err := os.WriteFile(filepath.Join(dir, name), png, 0o644); err != nil {
			return fmt.Errorf("error writing %s: %w", name, err)
		}
	}

	return nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", path, err)
	}
	return nil
}
