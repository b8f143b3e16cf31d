package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradebot/internal/domain"
	"tradebot/internal/store"
)

// Compile-time interface check.
var _ Feed = (*CascadeFeed)(nil)

// CascadeFeed is the live read path. For each call it tries, in order: the
// in-memory cache, the durable bar store, and the upstream fetcher. A
// successful fetch becomes the new last-known-good value for the symbol; a
// failed fetch falls back to the previous last-known-good before giving up
// with ErrNoData.
//
// Plain reads never write to the cache or the store. Those are populated
// only by an explicit backfill; the single exception is the last-known-good
// value updated on a successful fetch.
type CascadeFeed struct {
	cache   *memoryCache
	store   store.BarStore
	fetcher Fetcher
	timeout time.Duration
	log     *slog.Logger

	mu       sync.RWMutex
	lastGood map[string]domain.Bar
}

// NewCascadeFeed assembles the live cascade. cacheTTL controls staleness of
// the fast cache layer (zero or negative means entries never expire);
// fetchTimeout bounds the network fetch.
func NewCascadeFeed(barStore store.BarStore, fetcher Fetcher, cacheTTL, fetchTimeout time.Duration) *CascadeFeed {
	return &CascadeFeed{
		cache:    newMemoryCache(cacheTTL),
		store:    barStore,
		fetcher:  fetcher,
		timeout:  fetchTimeout,
		log:      slog.Default().With("feed", "cascade"),
		lastGood: make(map[string]domain.Bar),
	}
}

// Latest returns the most recent bar for the symbol from the first layer
// that has one.
func (f *CascadeFeed) Latest(ctx context.Context, symbol string) (*domain.Bar, error) {
	// 1. Fast cache.
	if bar, ok := f.cache.get(symbol); ok {
		return bar, nil
	}

	// 2. Durable store.
	if f.store != nil {
		bar, err := f.store.LatestBar(ctx, symbol)
		if err == nil {
			return bar, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			f.log.Warn("durable store lookup failed", "symbol", symbol, "err", err)
		}
	}

	// 3. Live fetch, bounded by the configured timeout.
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	bar, err := f.fetcher.FetchLatest(fetchCtx, symbol)
	cancel()
	if err == nil {
		f.mu.Lock()
		f.lastGood[symbol] = *bar
		f.mu.Unlock()
		return bar, nil
	}
	f.log.Warn("live fetch failed", "symbol", symbol, "err", err)

	// 4. Last known good.
	f.mu.RLock()
	prev, ok := f.lastGood[symbol]
	f.mu.RUnlock()
	if ok {
		f.log.Debug("serving last known good", "symbol", symbol, "timestamp", prev.Timestamp)
		return &prev, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
}

// Prime seeds the fast cache with freshly backfilled bars. Only the
// backfill path calls this; plain reads never write the cache.
func (f *CascadeFeed) Prime(bars []domain.Bar) {
	for _, b := range bars {
		f.cache.set(b)
	}
}
