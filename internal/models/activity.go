package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is a single append-only log entry describing something an agent
// did. Activities are immutable once inserted and are never upserted.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Agent       string             `bson:"agent" json:"agent"`
	Action      string             `bson:"action" json:"action"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status"`
	Timestamp   int64              `bson:"timestamp" json:"timestamp"` // unix millis
	Metadata    map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	DurationMs  int64              `bson:"durationMs,omitempty" json:"durationMs,omitempty"`
	TokensIn    int64              `bson:"tokensIn,omitempty" json:"tokensIn,omitempty"`
	TokensOut   int64              `bson:"tokensOut,omitempty" json:"tokensOut,omitempty"`
	Cost        float64            `bson:"cost,omitempty" json:"cost,omitempty"`
	SessionID   string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	ParentID    string             `bson:"parentId,omitempty" json:"parentId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// SyncActivityRequest is the POST /api/sync/activity payload
type SyncActivityRequest struct {
	Agent       string         `json:"agent"`
	Action      string         `json:"action"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status,omitempty"`
	Timestamp   int64          `json:"timestamp,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	DurationMs  int64          `json:"duration,omitempty"`
	TokensIn    int64          `json:"tokensIn,omitempty"`
	TokensOut   int64          `json:"tokensOut,omitempty"`
	Cost        float64        `json:"cost,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	ParentID    string         `json:"parentId,omitempty"`
}

// Validate checks required fields
func (r *SyncActivityRequest) Validate() error {
	if r.Agent == "" {
		return fmt.Errorf("agent is required")
	}
	if r.Action == "" {
		return fmt.Errorf("action is required")
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// ApplyDefaults fills optional fields the producer omitted
func (r *SyncActivityRequest) ApplyDefaults(now time.Time) {
	if r.Status == "" {
		r.Status = "completed"
	}
	if r.Timestamp == 0 {
		r.Timestamp = now.UnixMilli()
	}
}

// ToActivity converts a defaulted request into an insertable document
func (r *SyncActivityRequest) ToActivity(now time.Time) *Activity {
	return &Activity{
		Agent:       r.Agent,
		Action:      r.Action,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Timestamp:   r.Timestamp,
		Metadata:    r.Metadata,
		DurationMs:  r.DurationMs,
		TokensIn:    r.TokensIn,
		TokensOut:   r.TokensOut,
		Cost:        r.Cost,
		SessionID:   r.SessionID,
		ParentID:    r.ParentID,
		CreatedAt:   now,
	}
}
