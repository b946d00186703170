package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/cache"
	"github.com/vantri-labs/ragchat/internal/metrics"
)

// DefaultCacheTTL bounds catalog staleness. Past it the next read refetches.
const DefaultCacheTTL = 5 * time.Minute

// envelope is the cached catalog snapshot. Source records which connected
// sources contributed, so connecting or disconnecting a provider invalidates
// the snapshot even inside the TTL window.
type envelope struct {
	Documents []Entry   `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Cache stores per-user catalog snapshots in the shared store.
type Cache struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewCache(store cache.Store, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{store: store, ttl: ttl, logger: logger}
}

func cacheKey(userID string) string {
	return fmt.Sprintf("catalog:documents:%s", userID)
}

// Get returns the cached catalog for the user if it exists, is younger than
// the TTL, and was built from the same source tag. Store errors degrade to a
// miss; the catalog can always be rebuilt.
func (c *Cache) Get(ctx context.Context, userID, sourceTag string) ([]Entry, bool) {
	data, found, err := c.store.Get(ctx, cacheKey(userID))
	if err != nil {
		c.logger.Warn("Catalog cache read failed",
			zap.String("user_id", userID),
			zap.Error(err))
		metrics.CatalogCacheMisses.Inc()
		return nil, false
	}
	if !found {
		metrics.CatalogCacheMisses.Inc()
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("Catalog cache entry corrupt, discarding",
			zap.String("user_id", userID),
			zap.Error(err))
		metrics.CatalogCacheMisses.Inc()
		return nil, false
	}

	if env.Source != sourceTag || time.Since(env.Timestamp) > c.ttl {
		metrics.CatalogCacheMisses.Inc()
		return nil, false
	}

	metrics.CatalogCacheHits.Inc()
	return env.Documents, true
}

// Put stores a fresh snapshot tagged with the sources it was built from.
func (c *Cache) Put(ctx context.Context, userID, sourceTag string, entries []Entry) {
	env := envelope{
		Documents: entries,
		Timestamp: time.Now(),
		Source:    sourceTag,
	}
	data, err := json.Marshal(env)
	if err != nil {
		c.logger.Warn("Catalog cache encode failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, cacheKey(userID), data, c.ttl); err != nil {
		c.logger.Warn("Catalog cache write failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

// Invalidate drops the user's snapshot, e.g. right after an upload.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	if err := c.store.Clear(ctx, cacheKey(userID)); err != nil {
		c.logger.Warn("Catalog cache invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
