package commands

import (
	"context"
	"fmt"

	av "mc.frontier/api/alpha_vantage"
	"mc.frontier/api/csv_file"
	"mc.frontier/api/yahoo"
	"mc.frontier/config"
	"mc.frontier/core"
	"mc.frontier/repos"
)

// priceRepository builds the configured provider behind the configured cache.
// The returned cleanup must be called once the repository is no longer used.
func (a *app) priceRepository(ctx context.Context) (*repos.PriceRepository, func(), error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var provider core.PriceProvider
	switch a.cfg.PriceProvider {
	case config.ProviderAlphaVantage:
		provider = av.GetClient(a.cfg.AlphaVantageApiKey, a.cfg.AlphaVantageRequestsPerMinute, a.log)
	case config.ProviderCSV:
		provider = csv_file.NewProvider(a.cfg.PriceCsvPath, a.log)
	default:
		provider = yahoo.NewClient(a.log)
	}

	cleanup := func() {}
	var cache repos.PriceCache
	switch a.cfg.PriceCache {
	case config.CacheMemory:
		cache = repos.NewMemoryCache()
	case config.CachePostgres:
		pg, err := repos.GetPostgresConnection(ctx, a.cfg.DatabaseUrl)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		cache = pg
		cleanup = pg.Close
	}

	a.log.Debug().
		Str("provider", provider.Name()).
		Str("cache", a.cfg.PriceCache).
		Dur("max_age", a.cfg.CacheMaxAge).
		Msg("price repository ready")

	return repos.NewPriceRepository(provider, cache, a.cfg.CacheMaxAge, a.log), cleanup, nil
}

func (a *app) serviceContext(ctx context.Context, prices core.PriceProvider) *core.ServiceContext {
	return core.NewServiceContext(ctx, prices, a.log, core.ServiceOptions{
		Workers:         a.cfg.SimulationWorkers,
		DefaultSeed:     a.cfg.SimulationSeed,
		BenchmarkTicker: a.cfg.BenchmarkTicker,
	})
}
