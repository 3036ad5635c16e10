package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKey guards the expiry scan across processes
const DefaultKey = "deadlinemind:scan-lock"

// ErrLocked is returned when another holder owns the lock
var ErrLocked = errors.New("lock is held by another run")

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by someone else is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Client is the subset of the redis client the lock needs
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLock is a single-key mutual exclusion lock with a TTL
type RedisLock struct {
	rdb Client
	key string
}

func NewRedisLock(rdb Client, key string) *RedisLock {
	if key == "" {
		key = DefaultKey
	}
	return &RedisLock{rdb: rdb, key: key}
}

// Acquire takes the lock for at most ttl. The returned release func must be
// called when the run ends; it is safe to call after the TTL has elapsed.
func (l *RedisLock) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	release := func(ctx context.Context) error {
		if err := l.rdb.Eval(ctx, releaseScript, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
		return nil
	}
	return release, nil
}
