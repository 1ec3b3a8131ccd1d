package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
)

// ErrNotAcquired is returned by TryLock when another owner holds the key.
var ErrNotAcquired = errors.New("distlock: lock held by another owner")

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker provides cross-instance locking via SET NX with a TTL.
// Each acquisition stores a random ownership value and releases through a
// Lua compare-and-delete so a lock that expired and was taken by someone
// else is never released by us.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewRedisLocker creates a Redis-backed locker. Keys are stored as
// "<prefix>:lock:<key>".
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		poll:   50 * time.Millisecond,
	}
}

func (l *RedisLocker) key(key string) string {
	if l.prefix == "" {
		return "lock:" + key
	}
	return l.prefix + ":lock:" + key
}

// TryLock makes a single acquisition attempt.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	value := ownerValue()
	k := l.key(key)

	ok, err := l.client.SetNX(ctx, k, value, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", k, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func() {
		// Release must run even if the caller's context was cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := releaseScript.Run(rctx, l.client, []string{k}, value).Result(); err != nil {
			logger.Warn("lock release failed", "key", k, "err", err)
		}
	}, nil
}

// Lock polls until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		unlock, err := l.TryLock(ctx, key)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func ownerValue() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
