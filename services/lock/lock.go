// Package lock provides the per-wager settlement lock: a Redis-backed
// implementation for multi-process deployments and an in-process fallback.
// Losing a lock race is not an error to settlement; it means the work is
// happening elsewhere.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"oddsEngine/services/common"
)

// unlockLua deletes a lock key only if its value matches the caller's
// token, so one holder cannot release another holder's lock.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// RedisLocker implements settlement.Locker with SETNX plus a TTL and a
// Lua-based conditional unlock.
type RedisLocker struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, unlockSc: redis.NewScript(unlockLua)}
}

// Acquire obtains the lock for key with the given TTL. On success it
// returns an unlock function that is safe to call more than once. It
// returns ErrLockHeld when another party holds the key.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, common.ErrLockHeld
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, _ = l.unlockSc.Run(rctx, l.rdb, []string{key}, token).Result()
		})
	}
	return unlock, nil
}

// LocalLocker serializes settlement within a single process. The TTL is
// ignored; locks live until released.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, common.ErrLockHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return unlock, nil
}
