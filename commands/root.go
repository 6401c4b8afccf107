package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mc.frontier/config"
	"mc.frontier/core"
	"mc.frontier/logger"
	m "mc.frontier/models"
)

// Exit codes of the frontier binary.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInvalid    = 2
	ExitConstraint = 3
	ExitDataSource = 4
)

// app carries what every subcommand shares once the root command has run its pre-run hook.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	logLevel  string
	logFormat string
	provider  string
	csvInput  string
	cache     string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "frontier",
		Short: "Monte Carlo efficient frontier for a basket of tickers",
		Long: `frontier samples random long-only portfolios over historical daily returns and
picks the max Sharpe, min volatility and best CVaR portfolios.

Examples:
  frontier simulate --universe FAANG
  frontier simulate --tickers AAPL,MSFT,NVDA --start 2022-01-01 --csv results.csv
  frontier simulate --provider csv --csv-input stock_data.csv --tickers AAPL,JPM
  frontier collect --out stock_data.csv
  frontier serve --port 8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	flags.StringVar(&a.logFormat, "log-format", "", "json or console, overrides LOG_FORMAT")
	flags.StringVar(&a.provider, "provider", "", "price provider (yahoo|alphavantage|csv), overrides PRICE_PROVIDER")
	flags.StringVar(&a.csvInput, "csv-input", "", "price file for the csv provider, overrides PRICE_CSV_PATH")
	flags.StringVar(&a.cache, "cache", "", "price cache (memory|postgres|none), overrides PRICE_CACHE")

	cmd.AddCommand(
		newServeCmd(a),
		newSimulateCmd(a),
		newCollectCmd(a),
		newUniversesCmd(),
	)

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, newRootCmd(), os.Args[1:])
}

func run(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		return exitCode(err)
	}
	return ExitOK
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.provider != "" {
		cfg.PriceProvider = a.provider
	}
	if a.csvInput != "" {
		cfg.PriceCsvPath = a.csvInput
	}
	if a.cache != "" {
		cfg.PriceCache = a.cache
	}

	a.cfg = cfg
	a.log = logger.New(cfg, cmd.ErrOrStderr())
	return nil
}

// exitCode maps the pipeline error kinds to process exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, m.ErrInvalidSettings), errors.Is(err, core.ErrInput):
		return ExitInvalid
	case errors.Is(err, core.ErrConstraint):
		return ExitConstraint
	case errors.Is(err, core.ErrDataSource):
		return ExitDataSource
	default:
		return ExitFailure
	}
}
