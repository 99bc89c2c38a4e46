// Package throttle limits how often a keyed action runs, e.g. writing a
// session's activity timestamp.
package throttle

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Throttle interface {
	// Allow reports whether key may run now. A true result reserves the key
	// for the given window.
	Allow(ctx context.Context, key string, window time.Duration) bool
}

type Memory struct {
	cache *cache.Cache
}

func NewMemory() *Memory {
	return &Memory{cache: cache.New(time.Hour, 10*time.Minute)}
}

func (m *Memory) Allow(_ context.Context, key string, window time.Duration) bool {
	// Add fails when the key is still present, which makes this atomic.
	return m.cache.Add(key, struct{}{}, window) == nil
}

// Redis shares the window across API replicas. When Redis cannot be reached
// it degrades to the in-process fallback instead of failing the request.
type Redis struct {
	rdb      *redis.Client
	prefix   string
	fallback *Memory
}

func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, fallback: NewMemory()}
}

func (r *Redis) Allow(ctx context.Context, key string, window time.Duration) bool {
	ok, err := r.rdb.SetNX(ctx, r.prefix+key, 1, window).Result()
	if err != nil {
		return r.fallback.Allow(ctx, key, window)
	}
	return ok
}
