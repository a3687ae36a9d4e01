package redis

import (
	"context"
	"time"

	"dexter/internal/adapters/redis"
	"dexter/internal/domain/marketdata"
	"dexter/pkg/logger"
)

// MarketDataCache is a read-through cache in front of another repository.
// Quote lookups are cached briefly; hits report the "cache" source tag so
// tool results stay truthful about where data came from. The slower-moving
// lookups (fundamentals, statements, search) pass straight through.
type MarketDataCache struct {
	inner marketdata.Repository
	cache *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// NewMarketDataCache wraps inner with a Redis quote cache.
func NewMarketDataCache(inner marketdata.Repository, cache *redis.Client, ttl time.Duration) *MarketDataCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MarketDataCache{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get().With("component", "marketdata_cache"),
	}
}

var _ marketdata.Repository = (*MarketDataCache)(nil)

func quoteKey(ticker string) string {
	return "quote:" + ticker
}

// GetQuote serves from cache when possible, falling back to the store.
func (c *MarketDataCache) GetQuote(ctx context.Context, ticker string) (*marketdata.Quote, string, error) {
	var cached marketdata.Quote
	if err := c.cache.Get(ctx, quoteKey(ticker), &cached); err == nil {
		return &cached, marketdata.SourceCache, nil
	}

	quote, source, err := c.inner.GetQuote(ctx, ticker)
	if err != nil {
		return nil, source, err
	}

	if err := c.cache.Set(ctx, quoteKey(ticker), quote, c.ttl); err != nil {
		// Cache write failures never fail the lookup.
		c.log.Warnf("Failed to cache quote %s: %v", ticker, err)
	}

	return quote, source, nil
}

// GetFundamentals passes through to the store.
func (c *MarketDataCache) GetFundamentals(ctx context.Context, ticker string) (*marketdata.Fundamentals, string, error) {
	return c.inner.GetFundamentals(ctx, ticker)
}

// GetStatements passes through to the store.
func (c *MarketDataCache) GetStatements(ctx context.Context, ticker, period string, limit int) ([]marketdata.Statement, string, error) {
	return c.inner.GetStatements(ctx, ticker, period, limit)
}

// Search passes through to the store.
func (c *MarketDataCache) Search(ctx context.Context, query string, limit int) ([]marketdata.SearchHit, string, error) {
	return c.inner.Search(ctx, query, limit)
}
