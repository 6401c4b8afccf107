package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	m "mc.frontier/models"
)

type cachePurger interface {
	Purge(ctx context.Context, maxAge time.Duration) (int64, error)
}

// WarmPriceCache loads every preset universe and the benchmark from start until today so the
// first requests of the day hit the cache, then drops cache entries older than maxAge.
func (sc *ServiceContext) WarmPriceCache(ctx context.Context, start time.Time, maxAge time.Duration) error {
	log := sc.Log.With().Str("component", "cache_warmer").Logger()
	end := time.Now().UTC().Truncate(24 * time.Hour)

	targets := make(map[string][]string)
	for _, name := range m.UniverseNames() {
		if tickers := m.Universes[name]; len(tickers) > 0 {
			targets[name] = tickers
		}
	}
	if sc.BenchmarkTicker != "" {
		targets["benchmark"] = []string{sc.BenchmarkTicker}
	}

	var errs []error
	for name, tickers := range targets {
		pt, err := sc.Prices.GetPriceTable(ctx, tickers, start, end)
		if err != nil {
			log.Warn().Err(err).Str("universe", name).Msg("error warming price cache")
			errs = append(errs, fmt.Errorf("error warming %s: %w", name, err))
			continue
		}
		log.Info().Str("universe", name).Int("dates", len(pt.Dates)).Msg("price cache warmed")
	}

	if p, ok := sc.Prices.(cachePurger); ok && maxAge > 0 {
		n, err := p.Purge(ctx, maxAge)
		if err != nil {
			errs = append(errs, fmt.Errorf("error purging price cache: %w", err))
		} else {
			log.Info().Int64("removed", n).Dur("max_age", maxAge).Msg("price cache purged")
		}
	}

	return errors.Join(errs...)
}
