package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"mc.frontier/core"
	m "mc.frontier/models"
)

const warmTimeout = 10 * time.Minute

// cacheWarmer refreshes the preset universes on a cron schedule.
type cacheWarmer struct {
	cron   *cron.Cron
	sc     *core.ServiceContext
	maxAge time.Duration
	log    zerolog.Logger
}

// newCacheWarmer returns nil when schedule is empty. Schedules use the five field cron syntax or descriptors like @daily.
func newCacheWarmer(sc *core.ServiceContext, schedule string, maxAge time.Duration, log zerolog.Logger) (*cacheWarmer, error) {
	if schedule == "" {
		return nil, nil
	}

	w := &cacheWarmer{
		cron:   cron.New(),
		sc:     sc,
		maxAge: maxAge,
		log:    log.With().Str("component", "scheduler").Logger(),
	}

	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("invalid CACHE_WARM_SCHEDULE %q: %w", schedule, err)
	}

	w.log.Info().Str("schedule", schedule).Str("job", "warm_price_cache").Msg("job registered")
	return w, nil
}

func (w *cacheWarmer) Start() {
	w.cron.Start()
	w.log.Info().Msg("scheduler started")
}

func (w *cacheWarmer) Stop() {
	<-w.cron.Stop().Done()
	w.log.Info().Msg("scheduler stopped")
}

func (w *cacheWarmer) run() {
	ctx, cancel := context.WithTimeout(w.sc.Context, warmTimeout)
	defer cancel()

	start, err := time.Parse(time.DateOnly, m.DefaultSimulationSettings().Start)
	if err != nil {
		w.log.Error().Err(err).Msg("invalid default start date")
		return
	}

	w.log.Debug().Str("job", "warm_price_cache").Msg("running job")
	if err := w.sc.WarmPriceCache(ctx, start, w.maxAge); err != nil {
		w.log.Error().Err(err).Str("job", "warm_price_cache").Msg("job failed")
		return
	}
	w.log.Debug().Str("job", "warm_price_cache").Msg("job completed")
}
