package repos

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"mc.frontier/core"
	m "mc.frontier/models"
)

// PriceRepository serves a PriceProvider through an optional cache.
type PriceRepository struct {
	provider core.PriceProvider
	cache    PriceCache
	maxAge   time.Duration
	log      zerolog.Logger
}

// NewPriceRepository returns a repository over provider. A nil cache disables caching.
func NewPriceRepository(provider core.PriceProvider, cache PriceCache, maxAge time.Duration, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		provider: provider,
		cache:    cache,
		maxAge:   maxAge,
		log:      log.With().Str("component", "price_repository").Str("provider", provider.Name()).Logger(),
	}
}

func (pr *PriceRepository) Name() string {
	return pr.provider.Name()
}

// GetPriceTable answers from the cache when a fresh entry exists, otherwise asks the provider and
// stores the answer. Cache failures are logged and never fail the request.
func (pr *PriceRepository) GetPriceTable(ctx context.Context, tickers []string, start, end time.Time) (*m.PriceTable, error) {
	key := NewCacheKey(pr.provider.Name(), tickers, start, end)

	if pr.cache != nil {
		pt, err := pr.cache.GetPriceTable(ctx, key, pr.maxAge)
		switch {
		case err != nil:
			pr.log.Warn().Err(err).Str("key", key.String()).Msg("error reading price cache")
		case pt != nil:
			pr.log.Debug().Str("key", key.String()).Msg("price cache hit")
			return pt, nil
		}
	}

	pt, err := pr.provider.GetPriceTable(ctx, tickers, start, end)
	if err != nil {
		if errors.Is(err, core.ErrDataSource) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &core.DataSourceError{Provider: pr.provider.Name(), Tickers: tickers, Err: err}
	}

	if pr.cache != nil {
		if err := pr.cache.InsertPriceTable(ctx, key, pt); err != nil {
			pr.log.Warn().Err(err).Str("key", key.String()).Msg("error writing price cache")
		}
	}

	return pt, nil
}

// Purge drops cache entries older than maxAge.
func (pr *PriceRepository) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if pr.cache == nil {
		return 0, nil
	}
	return pr.cache.Purge(ctx, maxAge)
}
