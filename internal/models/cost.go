package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CostEntry is one append-only LLM usage record. Immutable once inserted.
type CostEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Agent     string             `bson:"agent" json:"agent"`
	Model     string             `bson:"model" json:"model"`
	TokensIn  int64              `bson:"tokensIn" json:"tokensIn"`
	TokensOut int64              `bson:"tokensOut" json:"tokensOut"`
	Cost      float64            `bson:"cost" json:"cost"`
	SessionID string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Timestamp int64              `bson:"timestamp" json:"timestamp"` // unix millis
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// SyncCostRequest is the POST /api/sync/cost payload
type SyncCostRequest struct {
	Agent     string  `json:"agent"`
	Model     string  `json:"model"`
	TokensIn  int64   `json:"tokensIn,omitempty"`
	TokensOut int64   `json:"tokensOut,omitempty"`
	Cost      float64 `json:"cost,omitempty"`
	SessionID string  `json:"sessionId,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Validate checks required fields
func (r *SyncCostRequest) Validate() error {
	if r.Agent == "" {
		return fmt.Errorf("agent is required")
	}
	if r.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

// ApplyDefaults fills optional fields the producer omitted
func (r *SyncCostRequest) ApplyDefaults(now time.Time) {
	if r.Timestamp == 0 {
		r.Timestamp = now.UnixMilli()
	}
}

// ToCostEntry converts a defaulted request into an insertable document
func (r *SyncCostRequest) ToCostEntry(now time.Time) *CostEntry {
	return &CostEntry{
		Agent:     r.Agent,
		Model:     r.Model,
		TokensIn:  r.TokensIn,
		TokensOut: r.TokensOut,
		Cost:      r.Cost,
		SessionID: r.SessionID,
		Timestamp: r.Timestamp,
		CreatedAt: now,
	}
}
