package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CronJob mirrors one scheduled job from an agent runtime's cron scheduler.
// At most one document exists per cronId.
type CronJob struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CronID         string             `bson:"cronId" json:"cronId"`
	Name           string             `bson:"name" json:"name"`
	Agent          string             `bson:"agent" json:"agent"`
	Schedule       string             `bson:"schedule" json:"schedule"` // human-readable schedule text
	CronExpr       string             `bson:"cronExpr" json:"cronExpr"`
	Timezone       string             `bson:"timezone" json:"timezone"`
	Status         string             `bson:"status" json:"status"` // enabled / disabled
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	NextRun        int64              `bson:"nextRun" json:"nextRun"` // unix millis
	LastRun        int64              `bson:"lastRun,omitempty" json:"lastRun,omitempty"`
	LastStatus     string             `bson:"lastStatus,omitempty" json:"lastStatus,omitempty"`
	LastDurationMs int64              `bson:"lastDurationMs,omitempty" json:"lastDurationMs,omitempty"`
	LastSyncedAt   time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// CronJobSync is one entry in a cron batch sync
type CronJobSync struct {
	CronID         string  `json:"cronId"`
	Name           string  `json:"name"`
	Agent          string  `json:"agent"`
	Schedule       string  `json:"schedule"`
	CronExpr       string  `json:"cronExpr"`
	Timezone       string  `json:"timezone"`
	Status         string  `json:"status"`
	NextRun        int64   `json:"nextRun,omitempty"`
	LastRun        *int64  `json:"lastRun,omitempty"`
	Description    *string `json:"description,omitempty"`
	LastStatus     *string `json:"lastStatus,omitempty"`
	LastDurationMs *int64  `json:"lastDurationMs,omitempty"`
}

// Validate checks required fields of a single batch entry
func (j *CronJobSync) Validate() error {
	if j.CronID == "" {
		return fmt.Errorf("cronId is required")
	}
	if j.Name == "" {
		return fmt.Errorf("name is required")
	}
	if j.Agent == "" {
		return fmt.Errorf("agent is required")
	}
	if j.CronExpr == "" {
		return fmt.Errorf("cronExpr is required")
	}
	return nil
}

// SyncCronRequest is the POST /api/sync/cron payload
type SyncCronRequest struct {
	Jobs []CronJobSync `json:"jobs"`
}

// CronSyncSummary reports the outcome of a batch sync. Entries fail
// independently; one bad entry never aborts the rest.
type CronSyncSummary struct {
	Synced int      `json:"synced"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}
