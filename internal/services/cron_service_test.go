package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"fleetdeck/internal/models"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
)

func newTestCronService() *CronService {
	return &CronService{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

func TestNextRunFromExpr(t *testing.T) {
	svc := newTestCronService()
	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	// Top of every hour: next fire is 13:00 UTC.
	got, err := svc.nextRunFromExpr("0 * * * *", "UTC", now)
	if err != nil {
		t.Fatalf("nextRunFromExpr failed: %v", err)
	}
	want := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Errorf("next run = %d, want %d", got, want)
	}
}

func TestNextRunFromExprInvalidExpression(t *testing.T) {
	svc := newTestCronService()

	if _, err := svc.nextRunFromExpr("not a cron expr", "UTC", time.Now()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	// 6-field expressions are rejected; the parser is 5-field standard cron.
	if _, err := svc.nextRunFromExpr("0 0 * * * *", "UTC", time.Now()); err == nil {
		t.Error("expected error for 6-field expression")
	}
}

func TestNextRunFromExprUnknownTimezoneFallsBack(t *testing.T) {
	svc := newTestCronService()
	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	got, err := svc.nextRunFromExpr("0 * * * *", "Not/AZone", now)
	if err != nil {
		t.Fatalf("nextRunFromExpr failed: %v", err)
	}
	want := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Errorf("next run = %d, want %d (UTC fallback)", got, want)
	}
}

func TestBuildCronUpsert(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := &models.CronJobSync{
		CronID:   "cron-1",
		Name:     "nightly report",
		Agent:    "scout",
		Schedule: "every day at 02:00",
		CronExpr: "0 2 * * *",
		Timezone: "UTC",
		Status:   "enabled",
		LastRun:  i64Ptr(1700000000000),
	}

	filter, update := buildCronUpsert(job, 1700086400000, now)

	if filter["cronId"] != "cron-1" {
		t.Errorf("filter cronId = %v, want cron-1", filter["cronId"])
	}

	set := update["$set"].(bson.M)
	if set["name"] != "nightly report" {
		t.Errorf("$set name = %v", set["name"])
	}
	if set["nextRun"] != int64(1700086400000) {
		t.Errorf("$set nextRun = %v, want 1700086400000", set["nextRun"])
	}
	if set["lastRun"] != int64(1700000000000) {
		t.Errorf("$set lastRun = %v, want 1700000000000", set["lastRun"])
	}
	for _, field := range []string{"description", "lastStatus", "lastDurationMs"} {
		if _, ok := set[field]; ok {
			t.Errorf("omitted field %s must not appear in $set", field)
		}
	}

	setOnInsert := update["$setOnInsert"].(bson.M)
	if setOnInsert["cronId"] != "cron-1" {
		t.Errorf("$setOnInsert cronId = %v, want cron-1", setOnInsert["cronId"])
	}
	if setOnInsert["createdAt"] != now {
		t.Errorf("$setOnInsert createdAt = %v, want %v", setOnInsert["createdAt"], now)
	}
}

// Invalid entries fail at validation, before any database call, so a service
// without a collection exercises the isolation path safely.
func TestSyncBatchPerItemIsolation(t *testing.T) {
	svc := newTestCronService()

	req := &models.SyncCronRequest{
		Jobs: []models.CronJobSync{
			{Name: "missing id", Agent: "scout", CronExpr: "* * * * *"},
			{CronID: "cron-2", Agent: "scout", CronExpr: "* * * * *"},
			{CronID: "cron-3", Name: "bad expr", Agent: "scout", CronExpr: "not valid"},
		},
	}

	summary := svc.SyncBatch(context.Background(), req)

	if summary.Synced != 0 {
		t.Errorf("synced = %d, want 0", summary.Synced)
	}
	if summary.Failed != 3 {
		t.Errorf("failed = %d, want 3", summary.Failed)
	}
	if len(summary.Errors) != 3 {
		t.Fatalf("errors = %v, want 3 entries", summary.Errors)
	}
	if !strings.Contains(summary.Errors[0], "cronId is required") {
		t.Errorf("errors[0] = %q, want cronId is required", summary.Errors[0])
	}
	if !strings.Contains(summary.Errors[1], "name is required") {
		t.Errorf("errors[1] = %q, want name is required", summary.Errors[1])
	}
	if !strings.Contains(summary.Errors[2], "invalid cron expression") {
		t.Errorf("errors[2] = %q, want invalid cron expression", summary.Errors[2])
	}
}
