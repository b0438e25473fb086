package jobs

import (
	"context"
	"time"

	"fleetdeck/internal/services"
)

// SyncRequestReaperJob expires sync requests that have sat pending past the
// staleness window. The in-call sweep inside RequestSync already does this
// opportunistically; the reaper guarantees it happens even when no new
// requests arrive.
type SyncRequestReaperJob struct {
	syncRequests *services.SyncRequestService
	redis        *services.RedisService
	interval     time.Duration
}

// NewSyncRequestReaperJob creates a new reaper job
func NewSyncRequestReaperJob(syncRequests *services.SyncRequestService, redis *services.RedisService) *SyncRequestReaperJob {
	return &SyncRequestReaperJob{
		syncRequests: syncRequests,
		redis:        redis,
		interval:     time.Minute,
	}
}

func (j *SyncRequestReaperJob) Name() string { return "sync-request-reaper" }

// Run sweeps stale pending requests into expired
func (j *SyncRequestReaperJob) Run(ctx context.Context) error {
	release, ok := acquireJobLock(ctx, j.redis, j.Name(), j.interval)
	if !ok {
		return nil
	}
	defer release()

	_, err := j.syncRequests.ExpireStale(ctx, time.Now())
	return err
}

// NextRun schedules the next sweep one interval out
func (j *SyncRequestReaperJob) NextRun() time.Time {
	return time.Now().Add(j.interval)
}
