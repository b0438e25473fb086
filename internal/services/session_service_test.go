package services

import (
	"testing"
	"time"

	"fleetdeck/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func strPtr(s string) *string   { return &s }
func i64Ptr(v int64) *int64     { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestBuildSessionUpsertFullPayload(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &models.SyncSessionRequest{
		SessionID:       "sess-1",
		Agent:           "scout",
		SessionKey:      strPtr("key-1"),
		Model:           strPtr("gpt-4o"),
		Status:          strPtr("running"),
		StartedAt:       i64Ptr(1000),
		EndedAt:         i64Ptr(2000),
		TokensIn:        i64Ptr(150),
		TokensOut:       i64Ptr(300),
		Cost:            f64Ptr(0.42),
		TaskSummary:     strPtr("did things"),
		ParentSessionID: strPtr("sess-0"),
	}

	filter, update := buildSessionUpsert(req, now)

	if filter["sessionId"] != "sess-1" {
		t.Errorf("filter sessionId = %v, want sess-1", filter["sessionId"])
	}

	set := update["$set"].(bson.M)
	want := map[string]any{
		"agent":           "scout",
		"sessionKey":      "key-1",
		"model":           "gpt-4o",
		"status":          "running",
		"startedAt":       int64(1000),
		"endedAt":         int64(2000),
		"tokensIn":        int64(150),
		"tokensOut":       int64(300),
		"cost":            0.42,
		"taskSummary":     "did things",
		"parentSessionId": "sess-0",
	}
	for field, expect := range want {
		if set[field] != expect {
			t.Errorf("$set[%s] = %v, want %v", field, set[field], expect)
		}
	}
	if set["lastSyncedAt"] != now {
		t.Errorf("$set lastSyncedAt = %v, want %v", set["lastSyncedAt"], now)
	}

	setOnInsert := update["$setOnInsert"].(bson.M)
	if setOnInsert["sessionId"] != "sess-1" {
		t.Errorf("$setOnInsert sessionId = %v, want sess-1", setOnInsert["sessionId"])
	}
	// All optionals were provided, so no defaults beyond the key and createdAt.
	if len(setOnInsert) != 2 {
		t.Errorf("$setOnInsert has %d fields, want 2: %v", len(setOnInsert), setOnInsert)
	}
}

// A minimal payload must not patch omitted fields on an existing document;
// their defaults land in $setOnInsert and only take effect on first insert.
func TestBuildSessionUpsertMinimalPayload(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &models.SyncSessionRequest{SessionID: "sess-2", Agent: "scout"}

	_, update := buildSessionUpsert(req, now)

	set := update["$set"].(bson.M)
	for _, field := range []string{"sessionKey", "model", "status", "startedAt", "tokensIn", "tokensOut", "cost", "endedAt", "taskSummary", "parentSessionId"} {
		if _, ok := set[field]; ok {
			t.Errorf("omitted field %s must not appear in $set", field)
		}
	}
	if set["agent"] != "scout" {
		t.Errorf("$set agent = %v, want scout", set["agent"])
	}

	setOnInsert := update["$setOnInsert"].(bson.M)
	defaults := map[string]any{
		"sessionKey": "",
		"model":      "unknown",
		"status":     "completed",
		"startedAt":  now.UnixMilli(),
		"tokensIn":   int64(0),
		"tokensOut":  int64(0),
		"cost":       float64(0),
	}
	for field, expect := range defaults {
		if setOnInsert[field] != expect {
			t.Errorf("$setOnInsert[%s] = %v, want %v", field, setOnInsert[field], expect)
		}
	}
	// endedAt/taskSummary/parentSessionId have no defaults at all.
	for _, field := range []string{"endedAt", "taskSummary", "parentSessionId"} {
		if _, ok := setOnInsert[field]; ok {
			t.Errorf("field %s must not get an insert default", field)
		}
	}
}

func TestBuildSessionUpsertExplicitZeroWins(t *testing.T) {
	// An explicit zero is a real value, not an omission: it must patch.
	req := &models.SyncSessionRequest{
		SessionID: "sess-3",
		Agent:     "scout",
		TokensIn:  i64Ptr(0),
		Cost:      f64Ptr(0),
	}

	_, update := buildSessionUpsert(req, time.Now())

	set := update["$set"].(bson.M)
	if set["tokensIn"] != int64(0) {
		t.Errorf("$set tokensIn = %v, want 0", set["tokensIn"])
	}
	if set["cost"] != float64(0) {
		t.Errorf("$set cost = %v, want 0", set["cost"])
	}
	setOnInsert := update["$setOnInsert"].(bson.M)
	for _, field := range []string{"tokensIn", "cost"} {
		if _, ok := setOnInsert[field]; ok {
			t.Errorf("provided field %s must not also get an insert default", field)
		}
	}
}
