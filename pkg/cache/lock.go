package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short-lived cross-instance locks backed by Redis SET NX.
// A Locker without a client grants every lock, which keeps single-instance
// deployments and tests working without Redis.
type Locker struct {
	client *redis.Client
	prefix string
}

// NewLocker builds a Locker whose keys are namespaced by prefix.
func NewLocker(client *redis.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = "lock"
	}
	return &Locker{client: client, prefix: prefix}
}

// Lock represents a held lock. Release is safe to call on a nil Lock.
type Lock struct {
	locker *Locker
	key    string
	token  string
}

// TryAcquire attempts to take the lock once. ok is false when another holder
// owns the key.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lock, bool, error) {
	if l == nil || l.client == nil {
		return &Lock{}, true, nil
	}
	fullKey := fmt.Sprintf("%s:%s", l.prefix, key)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{locker: l, key: fullKey, token: token}, true, nil
}

// Acquire polls until the lock is taken, the context ends or wait elapses.
func (l *Locker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (*Lock, bool, error) {
	deadline := time.Now().Add(wait)
	backoff := 25 * time.Millisecond
	for {
		lock, ok, err := l.TryAcquire(ctx, key, ttl)
		if err != nil || ok {
			return lock, ok, err
		}
		if time.Now().Add(backoff).After(deadline) {
			return nil, false, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

// Release frees the lock if it is still owned by this holder.
func (lk *Lock) Release(ctx context.Context) error {
	if lk == nil || lk.locker == nil || lk.locker.client == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, lk.locker.client, []string{lk.key}, lk.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release %s: %w", lk.key, err)
	}
	return nil
}
