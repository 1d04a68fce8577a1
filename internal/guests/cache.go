package guests

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"rsvp-service/internal/logger"
	"rsvp-service/internal/models"
)

const guestCachePrefix = "guest_lookup:"

// Cache is a read-through cache for directory lookups. A nil Cache (or nil
// client) disables caching entirely; every failure degrades to a DB read.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{Client: client, TTL: ttl, Logger: log}
}

func (c *Cache) Get(ctx context.Context, nameKey string) (*models.Guest, bool) {
	if c == nil || c.Client == nil {
		return nil, false
	}
	raw, err := c.Client.Get(ctx, guestCachePrefix+nameKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.Logger.Warn("CACHE", "Guest cache read failed: "+err.Error())
		return nil, false
	}
	var guest models.Guest
	if err := json.Unmarshal([]byte(raw), &guest); err != nil {
		return nil, false
	}
	return &guest, true
}

func (c *Cache) Set(ctx context.Context, guest *models.Guest) {
	if c == nil || c.Client == nil || guest == nil {
		return
	}
	raw, err := json.Marshal(guest)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, guestCachePrefix+guest.NameKey, raw, c.TTL).Err(); err != nil {
		c.Logger.Warn("CACHE", "Guest cache write failed: "+err.Error())
	}
}

func (c *Cache) Invalidate(ctx context.Context, nameKeys ...string) {
	if c == nil || c.Client == nil || len(nameKeys) == 0 {
		return
	}
	keys := make([]string, 0, len(nameKeys))
	for _, k := range nameKeys {
		keys = append(keys, guestCachePrefix+k)
	}
	if err := c.Client.Del(ctx, keys...).Err(); err != nil {
		c.Logger.Warn("CACHE", "Guest cache invalidation failed: "+err.Error())
	}
}
