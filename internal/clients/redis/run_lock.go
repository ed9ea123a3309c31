package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultRunLockTTL = 10 * time.Minute

// ErrLockHeld is returned by Acquire when another process holds the key.
var ErrLockHeld = errors.New("run lock held")

// releaseScript deletes the key only while it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock keeps maintenance runs from overlapping across processes.
type RunLock struct {
	rdb goredis.UniversalClient
	key string
	ttl time.Duration
}

func NewRunLock(rdb goredis.UniversalClient, key string, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = DefaultRunLockTTL
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "esteira:lock:sla_maintenance"
	}
	return &RunLock{rdb: rdb, key: key, ttl: ttl}
}

// Acquire takes the lock and returns the func that gives it back.
func (l *RunLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("run lock not initialized")
	}
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err()
	}, nil
}

// Held reports whether err from Acquire means another process has the lock.
func (l *RunLock) Held(err error) bool { return errors.Is(err, ErrLockHeld) }
