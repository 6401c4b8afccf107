package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	m "mc.frontier/models"
)

// PriceProvider returns closing prices for tickers over [start, end).
// Tickers the source does not know are returned as empty columns rather than errors.
type PriceProvider interface {
	Name() string
	GetPriceTable(ctx context.Context, tickers []string, start, end time.Time) (*m.PriceTable, error)
}

type ServiceOptions struct {
	Workers         int
	DefaultSeed     uint64
	BenchmarkTicker string
}

func DefaultServiceOptions() ServiceOptions {
	return ServiceOptions{
		Workers:         Workers,
		DefaultSeed:     m.DefaultSeed,
		BenchmarkTicker: "^GSPC",
	}
}

type ServiceContext struct {
	Context         context.Context
	Prices          PriceProvider
	Log             zerolog.Logger
	Returns         *ReturnsEngine
	Simulation      *SimulationEngine
	DefaultSeed     uint64
	BenchmarkTicker string
}

func NewServiceContext(ctx context.Context, prices PriceProvider, log zerolog.Logger, opts ServiceOptions) *ServiceContext {
	return &ServiceContext{
		Context:         ctx,
		Prices:          prices,
		Log:             log,
		Returns:         NewReturnsEngine(log),
		Simulation:      NewSimulationEngine(log, opts.Workers),
		DefaultSeed:     opts.DefaultSeed,
		BenchmarkTicker: opts.BenchmarkTicker,
	}
}
