package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

// DefaultCacheTTL absorbs keystroke-rate repeated calls; minutes, not
// seconds.
const DefaultCacheTTL = 5 * time.Minute

// Cache stores computed suggestion lists keyed per owner and query. Both
// implementations invalidate per owner by bumping a version folded into
// every key; stale entries age out via TTL.
type Cache interface {
	Get(ctx context.Context, ownerID, key string) ([]models.Suggestion, bool)
	Set(ctx context.Context, ownerID, key string, suggestions []models.Suggestion)
	InvalidateOwner(ctx context.Context, ownerID string)
}

// RedisCache is the shared cache tier, used when the service runs with
// Redis available.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) version(ctx context.Context, ownerID string) int64 {
	v, err := c.client.Get(ctx, "suggest:ver:"+ownerID).Int64()
	if err != nil {
		return 0
	}
	return v
}

func (c *RedisCache) dataKey(ctx context.Context, ownerID, key string) string {
	return fmt.Sprintf("suggest:%s:%d:%s", ownerID, c.version(ctx, ownerID), key)
}

func (c *RedisCache) Get(ctx context.Context, ownerID, key string) ([]models.Suggestion, bool) {
	val, err := c.client.Get(ctx, c.dataKey(ctx, ownerID, key)).Result()
	if err != nil {
		return nil, false
	}
	var out []models.Suggestion
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Set(ctx context.Context, ownerID, key string, suggestions []models.Suggestion) {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.dataKey(ctx, ownerID, key), data, c.ttl).Err(); err != nil {
		slog.Debug("suggestion cache set failed", "error", err)
	}
}

func (c *RedisCache) InvalidateOwner(ctx context.Context, ownerID string) {
	if err := c.client.Incr(ctx, "suggest:ver:"+ownerID).Err(); err != nil {
		slog.Debug("suggestion cache invalidate failed", "error", err)
	}
}

// MemoryCache is the process-local tier backed by an expirable LRU, used
// when Redis is unavailable and in tests.
type MemoryCache struct {
	lru      *expirable.LRU[string, []models.Suggestion]
	versions *expirable.LRU[string, uint64]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		lru:      expirable.NewLRU[string, []models.Suggestion](size, nil, ttl),
		versions: expirable.NewLRU[string, uint64](size, nil, 0),
	}
}

func (c *MemoryCache) dataKey(ownerID, key string) string {
	ver, _ := c.versions.Get(ownerID)
	return fmt.Sprintf("%s:%d:%s", ownerID, ver, key)
}

func (c *MemoryCache) Get(_ context.Context, ownerID, key string) ([]models.Suggestion, bool) {
	return c.lru.Get(c.dataKey(ownerID, key))
}

func (c *MemoryCache) Set(_ context.Context, ownerID, key string, suggestions []models.Suggestion) {
	c.lru.Add(c.dataKey(ownerID, key), suggestions)
}

func (c *MemoryCache) InvalidateOwner(_ context.Context, ownerID string) {
	ver, _ := c.versions.Get(ownerID)
	c.versions.Add(ownerID, ver+1)
}
