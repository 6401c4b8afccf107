package repos

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

// CacheKey identifies one provider response: provider, ticker set and date range.
type CacheKey struct {
	Provider string
	Tickers  []string
	Start    time.Time
	End      time.Time
}

// NewCacheKey upper-cases and sorts a copy of tickers so the order of a request does not matter.
func NewCacheKey(provider string, tickers []string, start, end time.Time) CacheKey {
	sorted := make([]string, len(tickers))
	for i, t := range tickers {
		sorted[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	slices.Sort(sorted)

	return CacheKey{
		Provider: provider,
		Tickers:  slices.Compact(sorted),
		Start:    start,
		End:      end,
	}
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.Provider, strings.Join(k.Tickers, ","), ex.FmtShort(k.Start), ex.FmtShort(k.End))
}

// PriceCache stores price tables by key. Entries are never updated, only added and purged.
type PriceCache interface {
	// GetPriceTable returns nil without error on a miss or when the newest entry is older than maxAge.
	GetPriceTable(ctx context.Context, key CacheKey, maxAge time.Duration) (*m.PriceTable, error)
	InsertPriceTable(ctx context.Context, key CacheKey, pt *m.PriceTable) error
	Purge(ctx context.Context, maxAge time.Duration) (int64, error)
}

type memoryEntry struct {
	table     *m.PriceTable
	fetchedAt time.Time
}

// MemoryCache is a process local PriceCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (mc *MemoryCache) GetPriceTable(ctx context.Context, key CacheKey, maxAge time.Duration) (*m.PriceTable, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	entry, found := mc.entries[key.String()]
	if !found || mc.expired(entry, maxAge) {
		return nil, nil
	}
	return entry.table.Clone(), nil
}

func (mc *MemoryCache) InsertPriceTable(ctx context.Context, key CacheKey, pt *m.PriceTable) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries[key.String()] = memoryEntry{table: pt.Clone(), fetchedAt: mc.now()}
	return nil
}

func (mc *MemoryCache) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var removed int64
	for k, entry := range mc.entries {
		if mc.expired(entry, maxAge) {
			delete(mc.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.entries)
}

func (mc *MemoryCache) expired(entry memoryEntry, maxAge time.Duration) bool {
	return maxAge > 0 && mc.now().Sub(entry.fetchedAt) > maxAge
}
