package jobs

import (
	"context"
	"log"
	"time"

	"fleetdeck/internal/services"
)

// RetentionCleanupJob deletes append-only feed data past the retention
// window. Only activities and cost entries grow unboundedly; keyed
// collections stay one-document-per-entity and need no trimming.
type RetentionCleanupJob struct {
	activities    *services.ActivityService
	costs         *services.CostService
	redis         *services.RedisService
	retentionDays int
}

// NewRetentionCleanupJob creates a new retention cleanup job
func NewRetentionCleanupJob(activities *services.ActivityService, costs *services.CostService, redis *services.RedisService, retentionDays int) *RetentionCleanupJob {
	return &RetentionCleanupJob{
		activities:    activities,
		costs:         costs,
		redis:         redis,
		retentionDays: retentionDays,
	}
}

func (j *RetentionCleanupJob) Name() string { return "retention-cleanup" }

// Run deletes feed documents older than the retention cutoff
func (j *RetentionCleanupJob) Run(ctx context.Context) error {
	release, ok := acquireJobLock(ctx, j.redis, j.Name(), time.Hour)
	if !ok {
		return nil
	}
	defer release()

	cutoff := retentionCutoff(time.Now(), j.retentionDays)
	log.Printf("🧹 [RETENTION] Deleting feed data older than %s", cutoff.Format(time.RFC3339))

	activitiesDeleted, err := j.activities.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	costsDeleted, err := j.costs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	log.Printf("🧹 [RETENTION] Deleted %d activities, %d cost entries", activitiesDeleted, costsDeleted)
	return nil
}

// retentionCutoff computes the oldest createdAt a feed document may keep
func retentionCutoff(now time.Time, retentionDays int) time.Time {
	return now.UTC().AddDate(0, 0, -retentionDays)
}

// NextRun schedules the job daily at 02:00 UTC
func (j *RetentionCleanupJob) NextRun() time.Time {
	now := time.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, time.UTC)
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
