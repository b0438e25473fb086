package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session mirrors one agent runtime session. At most one document exists per
// sessionId; later syncs patch the existing document.
type Session struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID       string             `bson:"sessionId" json:"sessionId"`
	SessionKey      string             `bson:"sessionKey" json:"sessionKey"`
	Agent           string             `bson:"agent" json:"agent"`
	Model           string             `bson:"model" json:"model"`
	Status          string             `bson:"status" json:"status"`
	StartedAt       int64              `bson:"startedAt" json:"startedAt"` // unix millis
	EndedAt         int64              `bson:"endedAt,omitempty" json:"endedAt,omitempty"`
	TokensIn        int64              `bson:"tokensIn" json:"tokensIn"`
	TokensOut       int64              `bson:"tokensOut" json:"tokensOut"`
	Cost            float64            `bson:"cost" json:"cost"`
	TaskSummary     string             `bson:"taskSummary,omitempty" json:"taskSummary,omitempty"`
	ParentSessionID string             `bson:"parentSessionId,omitempty" json:"parentSessionId,omitempty"`
	LastSyncedAt    time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// SyncSessionRequest is the POST /api/sync/session payload.
//
// Optional fields are pointers so the reconciler can tell "omitted" apart
// from "explicitly zero": omitted fields are never patched onto an existing
// document, and their defaults only materialize when the upsert inserts.
type SyncSessionRequest struct {
	SessionID       string   `json:"sessionId"`
	Agent           string   `json:"agent"`
	SessionKey      *string  `json:"sessionKey,omitempty"`
	Model           *string  `json:"model,omitempty"`
	Status          *string  `json:"status,omitempty"`
	StartedAt       *int64   `json:"startedAt,omitempty"`
	EndedAt         *int64   `json:"endedAt,omitempty"`
	TokensIn        *int64   `json:"tokensIn,omitempty"`
	TokensOut       *int64   `json:"tokensOut,omitempty"`
	Cost            *float64 `json:"cost,omitempty"`
	TaskSummary     *string  `json:"taskSummary,omitempty"`
	ParentSessionID *string  `json:"parentSessionId,omitempty"`
}

// Validate checks required fields
func (r *SyncSessionRequest) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("sessionId is required")
	}
	if r.Agent == "" {
		return fmt.Errorf("agent is required")
	}
	return nil
}
