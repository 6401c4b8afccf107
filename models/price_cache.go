package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// PriceCacheEntry is one stored provider response.
type PriceCacheEntry struct {
	Id        int64     `db:"id"`
	CacheKey  string    `db:"cache_key"`
	Provider  string    `db:"provider"`
	Tickers   []string  `db:"tickers"`
	FetchedAt time.Time `db:"fetched_at"`
}

// CachedClose is a stored close, null when the provider had no price for the date.
type CachedClose struct {
	Symbol string     `db:"symbol"`
	Date   time.Time  `db:"date"`
	Close  null.Float `db:"close"`
}
