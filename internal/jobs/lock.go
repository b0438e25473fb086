package jobs

import (
	"context"
	"log"
	"time"

	"fleetdeck/internal/services"

	"github.com/google/uuid"
)

// acquireJobLock takes a Redis lock so only one instance runs a job sweep.
// Without Redis the lock is a no-op and every instance runs the job; the
// sweeps themselves are idempotent so that is merely wasteful, not wrong.
func acquireJobLock(ctx context.Context, redis *services.RedisService, name string, ttl time.Duration) (release func(), ok bool) {
	if redis == nil {
		return func() {}, true
	}

	key := "fleetdeck:joblock:" + name
	value := uuid.New().String()

	acquired, err := redis.AcquireLock(ctx, key, value, ttl)
	if err != nil {
		log.Printf("⚠️ [JOBS] Lock error for %s, running anyway: %v", name, err)
		return func() {}, true
	}
	if !acquired {
		return nil, false
	}

	return func() {
		if _, err := redis.ReleaseLock(context.Background(), key, value); err != nil {
			log.Printf("⚠️ [JOBS] Failed to release lock for %s: %v", name, err)
		}
	}, true
}
