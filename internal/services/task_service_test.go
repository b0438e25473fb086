package services

import (
	"testing"
	"time"

	"fleetdeck/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildTaskUpsertDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &models.SyncTaskRequest{TaskID: "task-1", Title: "Ship it", Agent: "scout"}

	filter, update := buildTaskUpsert(req, now)

	if filter["taskId"] != "task-1" {
		t.Errorf("filter taskId = %v, want task-1", filter["taskId"])
	}

	set := update["$set"].(bson.M)
	setOnInsert := update["$setOnInsert"].(bson.M)

	if setOnInsert["priority"] != "p2" {
		t.Errorf("$setOnInsert priority = %v, want p2", setOnInsert["priority"])
	}
	if setOnInsert["status"] != "up_next" {
		t.Errorf("$setOnInsert status = %v, want up_next", setOnInsert["status"])
	}
	if setOnInsert["taskCreatedAt"] != now.UnixMilli() {
		t.Errorf("$setOnInsert taskCreatedAt = %v, want %d", setOnInsert["taskCreatedAt"], now.UnixMilli())
	}
	for _, field := range []string{"priority", "status", "description", "dueDate", "completedAt"} {
		if _, ok := set[field]; ok {
			t.Errorf("omitted field %s must not appear in $set", field)
		}
	}

	// taskUpdatedAt always patches so a re-sync bumps the sort key.
	if set["taskUpdatedAt"] != now.UnixMilli() {
		t.Errorf("$set taskUpdatedAt = %v, want %d", set["taskUpdatedAt"], now.UnixMilli())
	}
}

func TestBuildTaskUpsertProvidedFieldsPatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &models.SyncTaskRequest{
		TaskID:      "task-2",
		Title:       "Review queue",
		Agent:       "scout",
		Description: strPtr("clear the backlog"),
		Priority:    strPtr("p0"),
		Status:      strPtr("in_progress"),
		DueDate:     i64Ptr(1700000000000),
		CreatedAt:   i64Ptr(1690000000000),
		UpdatedAt:   i64Ptr(1695000000000),
		CompletedAt: i64Ptr(1699000000000),
	}

	_, update := buildTaskUpsert(req, now)

	set := update["$set"].(bson.M)
	want := map[string]any{
		"title":         "Review queue",
		"agent":         "scout",
		"description":   "clear the backlog",
		"priority":      "p0",
		"status":        "in_progress",
		"dueDate":       int64(1700000000000),
		"taskCreatedAt": int64(1690000000000),
		"taskUpdatedAt": int64(1695000000000),
		"completedAt":   int64(1699000000000),
	}
	for field, expect := range want {
		if set[field] != expect {
			t.Errorf("$set[%s] = %v, want %v", field, set[field], expect)
		}
	}

	setOnInsert := update["$setOnInsert"].(bson.M)
	for _, field := range []string{"priority", "status", "taskCreatedAt"} {
		if _, ok := setOnInsert[field]; ok {
			t.Errorf("provided field %s must not also get an insert default", field)
		}
	}
}
