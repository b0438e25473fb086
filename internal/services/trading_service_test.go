package services

import (
	"reflect"
	"testing"
	"time"

	"fleetdeck/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildTurnLogUpsertDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &models.SyncTurnLogRequest{TurnID: "turn-1"}

	filter, update := buildTurnLogUpsert(req, now)

	if filter["turnId"] != "turn-1" {
		t.Errorf("filter turnId = %v, want turn-1", filter["turnId"])
	}

	set := update["$set"].(bson.M)
	if len(set) != 1 {
		t.Errorf("bare payload should only patch lastSyncedAt, got %v", set)
	}

	setOnInsert := update["$setOnInsert"].(bson.M)
	defaults := map[string]any{
		"turnId":    "turn-1",
		"tokensIn":  int64(0),
		"tokensOut": int64(0),
		"status":    "completed",
		"timestamp": now.UnixMilli(),
		"createdAt": now,
	}
	for field, expect := range defaults {
		if setOnInsert[field] != expect {
			t.Errorf("$setOnInsert[%s] = %v, want %v", field, setOnInsert[field], expect)
		}
	}
}

func TestBuildTurnLogUpsertFullPayload(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &models.SyncTurnLogRequest{
		TurnID:     "turn-2",
		Prompt:     strPtr("should I enter this market?"),
		ToolCalls:  []string{"get_orderbook", "place_order"},
		TokensIn:   i64Ptr(1200),
		TokensOut:  i64Ptr(350),
		DurationMs: i64Ptr(4200),
		Status:     strPtr("completed"),
		Timestamp:  i64Ptr(1700000000000),
	}

	_, update := buildTurnLogUpsert(req, now)

	set := update["$set"].(bson.M)
	if set["prompt"] != "should I enter this market?" {
		t.Errorf("$set prompt = %v", set["prompt"])
	}
	if !reflect.DeepEqual(set["toolCalls"], []string{"get_orderbook", "place_order"}) {
		t.Errorf("$set toolCalls = %v", set["toolCalls"])
	}
	if set["tokensIn"] != int64(1200) {
		t.Errorf("$set tokensIn = %v, want 1200", set["tokensIn"])
	}
	if set["timestamp"] != int64(1700000000000) {
		t.Errorf("$set timestamp = %v, want 1700000000000", set["timestamp"])
	}

	setOnInsert := update["$setOnInsert"].(bson.M)
	for _, field := range []string{"tokensIn", "tokensOut", "status", "timestamp"} {
		if _, ok := setOnInsert[field]; ok {
			t.Errorf("provided field %s must not also get an insert default", field)
		}
	}
}
