package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mc.frontier/core"
	m "mc.frontier/models"
)

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodCovering(t *testing.T) {
	now := date(2025, 6, 1)

	assert.Equal(t, "1y", periodCovering(date(2024, 7, 1), now))
	assert.Equal(t, "2y", periodCovering(date(2024, 1, 1), now))
	assert.Equal(t, "5y", periodCovering(date(2020, 7, 1), now))
	assert.Equal(t, "10y", periodCovering(date(2016, 1, 1), now))
	assert.Equal(t, "max", periodCovering(date(1999, 1, 1), now))
	assert.Equal(t, "max", periodCovering(time.Time{}, now))
}

func TestGetPriceTable_FiltersRangeAndKeepsFailedAsEmpty(t *testing.T) {
	yc := NewClient(zerolog.Nop())
	yc.now = func() time.Time { return date(2025, 6, 1) }

	var gotPeriod string
	yc.download = func(symbols []string, period string) (map[string][]m.DatedClose, map[string]error, error) {
		gotPeriod = period
		return map[string][]m.DatedClose{
				"AAPL": {
					{Date: date(2024, 12, 31), Close: 250},
					{Date: date(2025, 1, 2), Close: 243},
					{Date: date(2025, 1, 3), Close: 244},
				},
			},
			map[string]error{"DELISTED": errors.New("no data found")},
			nil
	}

	pt, err := yc.GetPriceTable(context.Background(), []string{"AAPL", "DELISTED"}, date(2025, 1, 1), date(2025, 1, 3))
	require.NoError(t, err)

	assert.Equal(t, "1y", gotPeriod)
	assert.Equal(t, []time.Time{date(2025, 1, 2)}, pt.Dates)
	assert.Equal(t, []float64{243}, pt.Closes[0])
	assert.False(t, pt.HasData(1))
}

func TestGetPriceTable_DownloadFailure(t *testing.T) {
	yc := NewClient(zerolog.Nop())
	yc.download = func(symbols []string, period string) (map[string][]m.DatedClose, map[string]error, error) {
		return nil, nil, errors.New("connection reset")
	}

	_, err := yc.GetPriceTable(context.Background(), []string{"AAPL"}, date(2025, 1, 1), date(2025, 2, 1))
	assert.ErrorIs(t, err, core.ErrDataSource)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = yc.GetPriceTable(ctx, []string{"AAPL"}, date(2025, 1, 1), date(2025, 2, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
