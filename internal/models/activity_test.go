package models

import (
	"testing"
	"time"
)

func TestSyncActivityRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SyncActivityRequest
		wantErr string
	}{
		{"valid", SyncActivityRequest{Agent: "scout", Action: "commit", Title: "Pushed fix"}, ""},
		{"missing agent", SyncActivityRequest{Action: "commit", Title: "Pushed fix"}, "agent is required"},
		{"missing action", SyncActivityRequest{Agent: "scout", Title: "Pushed fix"}, "action is required"},
		{"missing title", SyncActivityRequest{Agent: "scout", Action: "commit"}, "title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestSyncActivityRequestApplyDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	req := SyncActivityRequest{Agent: "scout", Action: "commit", Title: "Pushed fix"}
	req.ApplyDefaults(now)
	if req.Status != "completed" {
		t.Errorf("status = %q, want completed", req.Status)
	}
	if req.Timestamp != now.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", req.Timestamp, now.UnixMilli())
	}

	// Provided values survive defaulting.
	req = SyncActivityRequest{Agent: "scout", Action: "commit", Title: "Pushed fix", Status: "failed", Timestamp: 1700000000000}
	req.ApplyDefaults(now)
	if req.Status != "failed" {
		t.Errorf("status = %q, want failed", req.Status)
	}
	if req.Timestamp != 1700000000000 {
		t.Errorf("timestamp = %d, want 1700000000000", req.Timestamp)
	}
}

func TestToActivity(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := SyncActivityRequest{
		Agent:     "scout",
		Action:    "commit",
		Title:     "Pushed fix",
		Status:    "completed",
		Timestamp: 1700000000000,
		TokensIn:  100,
		TokensOut: 250,
		Cost:      0.03,
		SessionID: "sess-1",
	}

	activity := req.ToActivity(now)

	if activity.Agent != "scout" || activity.Action != "commit" || activity.Title != "Pushed fix" {
		t.Errorf("identity fields not carried over: %+v", activity)
	}
	if activity.Timestamp != 1700000000000 {
		t.Errorf("timestamp = %d, want 1700000000000", activity.Timestamp)
	}
	if activity.SessionID != "sess-1" {
		t.Errorf("sessionId = %q, want sess-1", activity.SessionID)
	}
	if !activity.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", activity.CreatedAt, now)
	}
}
