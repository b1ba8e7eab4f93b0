// internal/reminder/coordinator/runlock.go
package coordinator

import (
	"context"
	"time"

	"membership-reminders/internal/common/database"
)

const runLockKey = "reminders:run-lock"

// RedisRunLock is a best-effort distributed mutex around TriggerRun for
// multi-instance deployments. The TTL bounds how long a crashed holder can
// block the next run.
type RedisRunLock struct {
	redis  *database.RedisClient
	holder string
	ttl    time.Duration
}

func NewRedisRunLock(redis *database.RedisClient, holder string, ttl time.Duration) *RedisRunLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisRunLock{redis: redis, holder: holder, ttl: ttl}
}

func (l *RedisRunLock) Acquire(ctx context.Context) (bool, error) {
	return l.redis.SetNX(ctx, runLockKey, l.holder, l.ttl)
}

func (l *RedisRunLock) Release(ctx context.Context) error {
	return l.redis.Del(ctx, runLockKey)
}
