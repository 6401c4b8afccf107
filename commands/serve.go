package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mc.frontier/core"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Starts the HTTP API and, when CACHE_WARM_SCHEDULE is set, the price cache warmer.

Endpoints:
  GET  /api/ping
  GET  /api/universes
  POST /api/optimise
  POST /api/optimise/export
  POST /api/optimise/frontier.png
  POST /api/optimise/allocation/{portfolio}.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port, overrides PORT")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	prices, cleanup, err := a.priceRepository(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sc := a.serviceContext(ctx, prices)
	s := core.GetHttpServer(sc, a.cfg.Addr(), a.cfg.CorsAllowedOrigins)

	warmer, err := newCacheWarmer(sc, a.cfg.CacheWarmSchedule, a.cfg.CacheMaxAge, a.log)
	if err != nil {
		return err
	}
	if warmer != nil {
		warmer.Start()
		defer warmer.Stop()
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", s.Addr).Str("provider", prices.Name()).Msg("starting http server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("received shutdown signal, shutting down gracefully")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.log.Info().Msg("server stopped")
	return nil
}
