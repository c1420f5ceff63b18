package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/Legalistas/brixar-sub002/internal/config"
)

// ErrNotObtained means another holder owns the lock.
var ErrNotObtained = errors.New("lock held elsewhere")

// Locker hands out cluster-wide locks backed by Redis.
// Without a Redis client every Obtain succeeds, which is correct for a single instance.
type Locker struct {
	client *redislock.Client
}

func NewLocker(rdb *redis.Client) *Locker {
	if rdb == nil {
		return &Locker{}
	}
	return &Locker{client: redislock.New(rdb)}
}

// Obtain takes key for at most ttl. The returned release func is always safe to call.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return func() {
		// The caller's context may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(config.GetLogger(), "cache", "Locker.Obtain", "release lock", key, err)
		}
	}, nil
}
