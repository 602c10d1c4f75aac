// Package cache wraps the Redis client used for rate limiting and for the
// sweeper's leader lease. Redis is optional: when it is not configured or
// unreachable the constructors return nil and callers degrade gracefully.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to addr and pings it with a short timeout. It
// returns nil when addr is empty or the server cannot be reached.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, continuing without it", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	slog.Info("connected to redis", "addr", addr)
	return client
}

var errNoClient = errors.New("redis client not configured")

// Locker hands out expiring leases with SET NX PX. Leases are never
// released explicitly; they run out on their own.
type Locker struct {
	client redis.UniversalClient
	prefix string
}

func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: client, prefix: "boardcafe:lock:"}
}

// TryLock reports whether the caller now holds key for ttl.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l == nil || l.client == nil {
		return false, errNoClient
	}
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	return l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
}
