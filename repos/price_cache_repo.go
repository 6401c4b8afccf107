package repos

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
	"mc.frontier/queries"
)

var priceCacheCloseColumns = []string{"entry_id", "symbol", "date", "close"}

// GetPriceTable returns the newest entry for key fetched within maxAge, or nil.
func (pg *Postgres) GetPriceTable(ctx context.Context, key CacheKey, maxAge time.Duration) (*m.PriceTable, error) {
	args := pgx.NamedArgs{
		"cache_key":   key.String(),
		"fresh_after": freshAfter(time.Now(), maxAge),
	}

	entry, err := QueryFirst[m.PriceCacheEntry](ctx, pg, queries.Get(queries.QueryHelper.Select.LatestPriceCacheEntry), args)
	if err != nil {
		return nil, fmt.Errorf("unable to query price cache entry (%s): %w", key, err)
	}
	if entry == nil {
		return nil, nil
	}

	closes, err := Query[m.CachedClose](ctx, pg, queries.Get(queries.QueryHelper.Select.PriceCacheCloses), pgx.NamedArgs{"entry_id": entry.Id})
	if err != nil {
		return nil, fmt.Errorf("unable to query cached closes for entry %d: %w", entry.Id, err)
	}

	return cachedClosesToPriceTable(entry.Tickers, closes), nil
}

// InsertPriceTable stores pt as a new entry in one transaction.
func (pg *Postgres) InsertPriceTable(ctx context.Context, key CacheKey, pt *m.PriceTable) (err error) {
	tx, err := pg.GetTransaction(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	args := pgx.NamedArgs{
		"cache_key":  key.String(),
		"provider":   key.Provider,
		"tickers":    pt.Tickers,
		"fetched_at": time.Now().UTC(),
	}

	var entryId int64
	if err = tx.QueryRow(ctx, queries.Get(queries.QueryHelper.Insert.PriceCacheEntry), args).Scan(&entryId); err != nil {
		return fmt.Errorf("error inserting price cache entry: %w", err)
	}

	rows := priceTableToRows(entryId, pt)
	n, err := pg.BulkInsert(ctx, "price_cache_close", priceCacheCloseColumns, rows, tx)
	if err != nil {
		return fmt.Errorf("error inserting cached closes: %w", err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("expected to insert %d cached closes, inserted %d", len(rows), n)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing price cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries older than maxAge, their closes go with them.
func (pg *Postgres) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	tag, err := pg.db.Exec(ctx, queries.Get(queries.QueryHelper.Delete.ExpiredPriceCacheEntries), pgx.NamedArgs{
		"fresh_after": freshAfter(time.Now(), maxAge),
	})
	if err != nil {
		return 0, fmt.Errorf("error purging price cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

// freshAfter is the oldest fetch time still served. A non-positive maxAge keeps everything.
func freshAfter(now time.Time, maxAge time.Duration) time.Time {
	if maxAge <= 0 {
		return time.Unix(0, 0).UTC()
	}
	return now.Add(-maxAge).UTC()
}

func priceTableToRows(entryId int64, pt *m.PriceTable) [][]any {
	rows := make([][]any, 0, len(pt.Tickers)*len(pt.Dates))
	for col, ticker := range pt.Tickers {
		for row, date := range pt.Dates {
			v := pt.Closes[col][row]
			rows = append(rows, []any{entryId, ticker, date, null.NewFloat(v, ex.IsFinite(v)).Ptr()})
		}
	}
	return rows
}

func cachedClosesToPriceTable(tickers []string, closes []*m.CachedClose) *m.PriceTable {
	series := make(map[string][]m.DatedClose, len(tickers))
	for _, c := range closes {
		v := math.NaN()
		if c.Close.Valid {
			v = c.Close.Float64
		}
		series[c.Symbol] = append(series[c.Symbol], m.DatedClose{Date: c.Date, Close: v})
	}
	return m.NewPriceTable(tickers, series)
}
