package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const rateKeyPrefix = "fx:rate:"

// RateCache keeps the latest rate of each currency for a bounded time.
// A RateCache without a Redis client never hits and ignores writes.
type RateCache struct {
	rdb *redis.Client
}

func NewRateCache(rdb *redis.Client) *RateCache {
	return &RateCache{rdb: rdb}
}

// CachedRate is a rate together with the time it was last stored upstream.
type CachedRate struct {
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func rateKey(code string) string {
	return rateKeyPrefix + code
}

func encodeRate(r CachedRate) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRate(val string) (CachedRate, error) {
	var r CachedRate
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return CachedRate{}, err
	}
	return r, nil
}

// Get returns the cached rate and whether it was present.
func (c *RateCache) Get(ctx context.Context, code string) (CachedRate, bool, error) {
	if c == nil || c.rdb == nil {
		return CachedRate{}, false, nil
	}
	val, err := c.rdb.Get(ctx, rateKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return CachedRate{}, false, nil
	}
	if err != nil {
		return CachedRate{}, false, fmt.Errorf("failed to read cached rate %s: %w", code, err)
	}
	rate, err := decodeRate(val)
	if err != nil {
		return CachedRate{}, false, fmt.Errorf("corrupt cached rate %s: %w", code, err)
	}
	return rate, true, nil
}

func (c *RateCache) Set(ctx context.Context, code string, rate CachedRate, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	val, err := encodeRate(rate)
	if err != nil {
		return fmt.Errorf("failed to encode rate %s: %w", code, err)
	}
	if err := c.rdb.Set(ctx, rateKey(code), val, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rate %s: %w", code, err)
	}
	return nil
}

func (c *RateCache) Delete(ctx context.Context, code string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, rateKey(code)).Err(); err != nil {
		return fmt.Errorf("failed to evict rate %s: %w", code, err)
	}
	return nil
}
