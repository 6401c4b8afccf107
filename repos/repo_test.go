package repos

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mc.frontier/core"
	m "mc.frontier/models"
)

type countingProvider struct {
	mu    sync.Mutex
	calls int
	table *m.PriceTable
	err   error
}

func (cp *countingProvider) Name() string { return "counting" }

func (cp *countingProvider) GetPriceTable(ctx context.Context, tickers []string, start, end time.Time) (*m.PriceTable, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.calls++
	if cp.err != nil {
		return nil, cp.err
	}
	return cp.table.Clone(), nil
}

func testTable() *m.PriceTable {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	return m.NewPriceTable([]string{"AAPL", "MSFT"}, map[string][]m.DatedClose{
		"AAPL": {{Date: day(1), Close: 180}, {Date: day(4), Close: 181.5}, {Date: day(5), Close: math.NaN()}},
		"MSFT": {{Date: day(1), Close: 410}, {Date: day(4), Close: 412}, {Date: day(5), Close: 409}},
	})
}

func TestCacheKey_IgnoresOrderAndCase(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC)

	a := NewCacheKey("yahoo", []string{"msft", "AAPL", "aapl"}, start, end)
	b := NewCacheKey("yahoo", []string{"AAPL", "MSFT"}, start, end)

	assert.Equal(t, b.String(), a.String())
	assert.Equal(t, "yahoo|AAPL,MSFT|2022-01-01|2025-09-21", a.String())
	assert.NotEqual(t, a.String(), NewCacheKey("csv", []string{"AAPL", "MSFT"}, start, end).String())
}

func TestMemoryCache_ExpiresAndPurges(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	key := NewCacheKey("counting", []string{"AAPL"}, time.Time{}, time.Time{})
	require.NoError(t, cache.InsertPriceTable(ctx, key, testTable()))

	pt, err := cache.GetPriceTable(ctx, key, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, pt)
	pt.Closes[0][0] = -1

	again, _ := cache.GetPriceTable(ctx, key, time.Hour)
	assert.Equal(t, 180.0, again.Closes[0][0], "cached table must not be shared with callers")

	now = now.Add(2 * time.Hour)
	pt, err = cache.GetPriceTable(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, pt)

	pt, _ = cache.GetPriceTable(ctx, key, 0)
	assert.NotNil(t, pt, "zero max age never expires")

	removed, err := cache.Purge(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 0, cache.Len())
}

func TestPriceRepository_CachesProviderResponses(t *testing.T) {
	ctx := context.Background()
	provider := &countingProvider{table: testTable()}
	repo := NewPriceRepository(provider, NewMemoryCache(), time.Hour, zerolog.Nop())

	first, err := repo.GetPriceTable(ctx, []string{"AAPL", "MSFT"}, time.Time{}, time.Time{})
	require.NoError(t, err)
	second, err := repo.GetPriceTable(ctx, []string{"msft", "aapl"}, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, first.Dates, second.Dates)
	assert.Equal(t, "counting", repo.Name())

	_, err = repo.GetPriceTable(ctx, []string{"AAPL"}, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls, "different ticker set is a different key")
}

func TestPriceRepository_WrapsProviderErrors(t *testing.T) {
	provider := &countingProvider{err: errors.New("connection reset")}
	repo := NewPriceRepository(provider, nil, time.Hour, zerolog.Nop())

	_, err := repo.GetPriceTable(context.Background(), []string{"AAPL"}, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataSource)

	var dse *core.DataSourceError
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, "counting", dse.Provider)

	provider.err = context.Canceled
	_, err = repo.GetPriceTable(context.Background(), []string{"AAPL"}, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrDataSource)

	n, err := repo.Purge(context.Background(), time.Hour)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPriceTableRows_KeepMissingClosesAsNull(t *testing.T) {
	pt := testTable()
	rows := priceTableToRows(7, pt)
	require.Len(t, rows, 6)

	closes := make([]*m.CachedClose, 0, len(rows))
	for _, r := range rows {
		assert.Equal(t, int64(7), r[0])
		c := &m.CachedClose{Symbol: r[1].(string), Date: r[2].(time.Time)}
		if p := r[3].(*float64); p != nil {
			c.Close.SetValid(*p)
		}
		closes = append(closes, c)
	}
	assert.Nil(t, rows[2][3].(*float64), "NaN close is stored as null")

	back := cachedClosesToPriceTable(pt.Tickers, closes)
	assert.Equal(t, pt.Dates, back.Dates)
	assert.Equal(t, pt.Closes[1], back.Closes[1])
	assert.True(t, math.IsNaN(back.Closes[0][2]))
}

func TestFreshAfter(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-24*time.Hour), freshAfter(now, 24*time.Hour))
	assert.True(t, freshAfter(now, 0).Before(now.AddDate(-50, 0, 0)))
}

func Test_Postgres_CanInsertGetAndPurge(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)
	require.NoError(t, pg.EnsureSchema(ctx))

	key := NewCacheKey("_test", []string{"AAPL", "MSFT"}, time.Now(), time.Now())
	require.NoError(t, pg.InsertPriceTable(ctx, key, testTable()))

	pt, err := pg.GetPriceTable(ctx, key, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, pt)
	assert.Equal(t, []string{"AAPL", "MSFT"}, pt.Tickers)
	assert.Len(t, pt.Dates, 3)
	assert.True(t, math.IsNaN(pt.Closes[0][2]))

	removed, err := pg.Purge(ctx, time.Nanosecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	pt, err = pg.GetPriceTable(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, pt)
}

func getConnection(t *testing.T, ctx context.Context) *Postgres {
	t.Helper()
	_ = godotenv.Load("../.env")

	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL is not set")
	}

	res, err := GetPostgresConnection(ctx, connectionString)
	if err != nil {
		t.Fatalf("error getting postgres connection: %s", err)
	}
	if err := res.Ping(ctx); err != nil {
		res.Close()
		t.Skipf("postgres is not reachable: %s", err)
	}

	t.Cleanup(func() {
		res.Close()
	})

	return res
}
