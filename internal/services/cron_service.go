package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleetdeck/internal/database"
	"fleetdeck/internal/models"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CronService reconciles scheduled-job state pushed by agent runtimes.
// Batches are processed with per-item isolation: one bad entry is recorded
// and skipped, the rest still land.
type CronService struct {
	collection *mongo.Collection
	parser     cron.Parser
}

// NewCronService creates a new cron sync service
func NewCronService(db *database.MongoDB) *CronService {
	return &CronService{
		collection: db.Collection(database.CollectionCronJobs),
		parser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// SyncBatch upserts each entry of a cron batch independently and reports a
// synced/failed summary. A failure on one entry never aborts the rest.
func (s *CronService) SyncBatch(ctx context.Context, req *models.SyncCronRequest) *models.CronSyncSummary {
	summary := &models.CronSyncSummary{}

	for _, job := range req.Jobs {
		if err := s.upsertOne(ctx, &job); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("job %s: %v", job.CronID, err))
			log.Printf("⚠️ Failed to sync cron job %s: %v", job.CronID, err)
			RecordFailure("cron")
		} else {
			summary.Synced++
		}
	}

	return summary
}

// upsertOne validates and atomically upserts a single cron job by cronId
func (s *CronService) upsertOne(ctx context.Context, job *models.CronJobSync) error {
	if err := job.Validate(); err != nil {
		return err
	}

	now := time.Now()
	nextRun := job.NextRun
	if nextRun == 0 {
		// Producer omitted nextRun: derive it from the cron expression.
		derived, err := s.nextRunFromExpr(job.CronExpr, job.Timezone, now)
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", job.CronExpr, err)
		}
		nextRun = derived
	}

	filter, update := buildCronUpsert(job, nextRun, now)

	_, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}

	RecordUpsert("cron", "upsert")
	return nil
}

// buildCronUpsert constructs the atomic per-job upsert document
func buildCronUpsert(job *models.CronJobSync, nextRun int64, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"cronId": job.CronID}

	set := bson.M{
		"name":         job.Name,
		"agent":        job.Agent,
		"schedule":     job.Schedule,
		"cronExpr":     job.CronExpr,
		"timezone":     job.Timezone,
		"status":       job.Status,
		"nextRun":      nextRun,
		"lastSyncedAt": now,
	}

	if job.LastRun != nil {
		set["lastRun"] = *job.LastRun
	}
	if job.Description != nil {
		set["description"] = *job.Description
	}
	if job.LastStatus != nil {
		set["lastStatus"] = *job.LastStatus
	}
	if job.LastDurationMs != nil {
		set["lastDurationMs"] = *job.LastDurationMs
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"cronId":    job.CronID,
			"createdAt": now,
		},
	}

	return filter, update
}

// nextRunFromExpr computes the next fire time of a standard 5-field cron
// expression in the job's timezone
func (s *CronService) nextRunFromExpr(expr, timezone string, now time.Time) (int64, error) {
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return 0, err
	}

	loc := time.UTC
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			loc = parsed
		}
	}

	return schedule.Next(now.In(loc)).UnixMilli(), nil
}

// List returns all mirrored cron jobs, optionally filtered by agent
func (s *CronService) List(ctx context.Context, agent string) ([]models.CronJob, error) {
	filter := bson.M{}
	if agent != "" {
		filter["agent"] = agent
	}

	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "nextRun", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list cron jobs: %w", err)
	}
	defer cursor.Close(ctx)

	jobs := make([]models.CronJob, 0)
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode cron jobs: %w", err)
	}

	return jobs, nil
}
