package queries

import (
	"embed"
	"fmt"
)

//go:embed delete/*.sql insert/*.sql schema/*.sql select/*.sql
var Files embed.FS

type DeleteQueries struct {
	ExpiredPriceCacheEntries string
}

type InsertQueries struct {
	PriceCacheEntry string
}

type SchemaQueries struct {
	PriceCache string
}

type SelectQueries struct {
	LatestPriceCacheEntry string
	PriceCacheCloses      string
}

type QueryHelperStruct struct {
	Delete DeleteQueries
	Insert InsertQueries
	Schema SchemaQueries
	Select SelectQueries
}

var QueryHelper = QueryHelperStruct{
	Delete: DeleteQueries{
		ExpiredPriceCacheEntries: "delete/expired_price_cache_entries.sql",
	},
	Insert: InsertQueries{
		PriceCacheEntry: "insert/price_cache_entry.sql",
	},
	Schema: SchemaQueries{
		PriceCache: "schema/price_cache.sql",
	},
	Select: SelectQueries{
		LatestPriceCacheEntry: "select/latest_price_cache_entry.sql",
		PriceCacheCloses:      "select/price_cache_closes.sql",
	},
}

// Get returns the embedded query at path and panics if it does not exist.
func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
