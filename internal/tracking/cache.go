package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wrapcrm_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "wrapcrm:tracking:"

// Cache keeps carrier results in Redis.
type Cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewCache(rdb redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// NewRedisClient connects to the Redis instance behind url.
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func cacheKey(trackingNumber string) string {
	return cacheKeyPrefix + trackingNumber
}

// Get returns the cached result; ok is false on a miss.
func (c *Cache) Get(ctx context.Context, trackingNumber string) (Result, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(trackingNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("get tracking cache: %w", err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false, fmt.Errorf("decode tracking cache: %w", err)
	}
	return res, true, nil
}

func (c *Cache) Set(ctx context.Context, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode tracking cache: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(res.TrackingNumber), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set tracking cache: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, trackingNumber string) error {
	if err := c.rdb.Del(ctx, cacheKey(trackingNumber)).Err(); err != nil {
		return fmt.Errorf("invalidate tracking cache: %w", err)
	}
	return nil
}

// CachedCarrier serves repeated lookups from the cache. Cache failures are
// logged and the carrier is asked directly.
type CachedCarrier struct {
	next  Carrier
	cache *Cache
	log   *logger.Logger
}

func NewCachedCarrier(next Carrier, cache *Cache, log *logger.Logger) *CachedCarrier {
	return &CachedCarrier{next: next, cache: cache, log: log}
}

func (c *CachedCarrier) Track(ctx context.Context, trackingNumber string) (Result, error) {
	res, ok, err := c.cache.Get(ctx, trackingNumber)
	if err != nil {
		c.log.WithContext(ctx).Warn("tracking cache read failed", "error", err)
	}
	if ok {
		return res, nil
	}

	res, err = c.next.Track(ctx, trackingNumber)
	if err != nil {
		return Result{}, err
	}
	if err := c.cache.Set(ctx, res); err != nil {
		c.log.WithContext(ctx).Warn("tracking cache write failed", "error", err)
	}
	return res, nil
}

// Forget drops the cached result so the next lookup reaches the carrier.
func (c *CachedCarrier) Forget(ctx context.Context, trackingNumber string) error {
	return c.cache.Invalidate(ctx, trackingNumber)
}

var _ Carrier = (*CachedCarrier)(nil)
