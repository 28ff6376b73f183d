package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	productCacheTTL  = 60 * time.Second
	categoryCacheTTL = 5 * time.Minute
)

// cache is a JSON read-through helper. A nil client disables caching.
type cache struct{ rdb *redis.Client }

func (c cache) get(ctx context.Context, key string, dst any) bool {
	if c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c cache) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		c.rdb.Set(ctx, key, data, ttl)
	}
}

func (c cache) del(ctx context.Context, keys ...string) {
	if c.rdb == nil || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}
