package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/multi"

	"mc.frontier/core"
	m "mc.frontier/models"
)

const ProviderName = "yahoo"

// downloadFunc returns daily closes per symbol plus the symbols Yahoo could not serve.
type downloadFunc func(symbols []string, period string) (map[string][]m.DatedClose, map[string]error, error)

type YahooClient struct {
	log      zerolog.Logger
	download downloadFunc
	now      func() time.Time
}

func NewClient(log zerolog.Logger) *YahooClient {
	return &YahooClient{
		log:      log.With().Str("component", ProviderName).Logger(),
		download: downloadDaily,
		now:      time.Now,
	}
}

func (yc *YahooClient) Name() string {
	return ProviderName
}

// GetPriceTable batch downloads daily bars for tickers and keeps [start, end).
// Symbols Yahoo reports as failed are logged and left as empty columns.
func (yc *YahooClient) GetPriceTable(ctx context.Context, tickers []string, start, end time.Time) (*m.PriceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	period := periodCovering(start, yc.now())
	series, failed, err := yc.download(tickers, period)
	if err != nil {
		return nil, &core.DataSourceError{Provider: ProviderName, Tickers: tickers, Err: err}
	}

	for symbol, symbolErr := range failed {
		yc.log.Warn().Err(symbolErr).Str("ticker", symbol).Msg("failed to download symbol")
	}

	yc.log.Debug().Strs("tickers", tickers).Str("period", period).Int("downloaded", len(series)).Msg("downloaded daily bars")

	return m.NewPriceTable(tickers, series).Between(start, end), nil
}

// periodCovering picks the shortest Yahoo period that reaches back to start.
func periodCovering(start, now time.Time) string {
	if start.IsZero() {
		return "max"
	}

	periods := []struct {
		name  string
		years int
	}{
		{"1y", 1}, {"2y", 2}, {"5y", 5}, {"10y", 10},
	}

	for _, p := range periods {
		if !start.Before(now.AddDate(-p.years, 0, 0)) {
			return p.name
		}
	}
	return "max"
}

func downloadDaily(symbols []string, period string) (map[string][]m.DatedClose, map[string]error, error) {
	params := models.DefaultDownloadParams()
	params.Symbols = symbols
	params.Period = period
	params.Interval = "1d"

	result, err := multi.Download(symbols, &params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download daily bars: %w", err)
	}

	series := make(map[string][]m.DatedClose, len(result.Data))
	for symbol, bars := range result.Data {
		closes := make([]m.DatedClose, 0, len(bars))
		for _, bar := range bars {
			closes = append(closes, m.DatedClose{Date: bar.Date, Close: bar.Close})
		}
		series[symbol] = closes
	}

	return series, result.Errors, nil
}
