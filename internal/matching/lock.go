// internal/matching/lock.go
package matching

import (
	"context"
	"sync"
	"time"

	apperrors "matching-workers/internal/common/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CascadeLocker serializes reassignment cascades per lead. TryLock reports
// acquired=false when another caller holds the lock; the returned release is
// nil in that case.
type CascadeLocker interface {
	TryLock(ctx context.Context, leadID string) (release func(context.Context) error, acquired bool, err error)
}

const cascadeKeyPrefix = "matching:cascade:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCascadeLocker struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCascadeLocker(rdb redis.Cmdable, ttl time.Duration) *RedisCascadeLocker {
	return &RedisCascadeLocker{rdb: rdb, ttl: ttl}
}

func CascadeLockKey(leadID string) string {
	return cascadeKeyPrefix + leadID
}

func (l *RedisCascadeLocker) TryLock(ctx context.Context, leadID string) (func(context.Context) error, bool, error) {
	key := CascadeLockKey(leadID)
	token := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, apperrors.NewCascadeLockFailedError(leadID, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return apperrors.NewCascadeLockFailedError(leadID, err)
		}
		return nil
	}
	return release, true, nil
}

// LocalCascadeLocker is an in-process CascadeLocker for single-instance runs and tests.
type LocalCascadeLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalCascadeLocker() *LocalCascadeLocker {
	return &LocalCascadeLocker{held: make(map[string]struct{})}
}

func (l *LocalCascadeLocker) TryLock(_ context.Context, leadID string) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[leadID]; busy {
		return nil, false, nil
	}
	l.held[leadID] = struct{}{}

	return func(context.Context) error {
		l.mu.Lock()
		delete(l.held, leadID)
		l.mu.Unlock()
		return nil
	}, true, nil
}
