package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AgentStatus is the live status row for one agent. Exactly one document
// exists per agentId. These documents are owned by the provisioning flow;
// sync only ever patches them and silently drops unknown agentIds.
type AgentStatus struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgentID      string             `bson:"agentId" json:"agentId"`
	Name         string             `bson:"name" json:"name"`
	Status       string             `bson:"status" json:"status"`
	CurrentTask  string             `bson:"currentTask,omitempty" json:"currentTask,omitempty"`
	LastActive   int64              `bson:"lastActive,omitempty" json:"lastActive,omitempty"` // unix millis
	TokensToday  int64              `bson:"tokensToday" json:"tokensToday"`
	TasksToday   int64              `bson:"tasksToday" json:"tasksToday"`
	TasksTotal   int64              `bson:"tasksTotal" json:"tasksTotal"`
	CostToday    float64            `bson:"costToday" json:"costToday"`
	CostWeek     float64            `bson:"costWeek" json:"costWeek"`
	CostMonth    float64            `bson:"costMonth" json:"costMonth"`
	LastSyncedAt time.Time          `bson:"lastSyncedAt,omitempty" json:"lastSyncedAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// SyncAgentStatusRequest is the POST /api/sync/agent-status payload.
// Counters sent here OVERWRITE the stored values; the producer is the
// authority for cumulative numbers on this path.
type SyncAgentStatusRequest struct {
	AgentID     string   `json:"agentId"`
	Status      *string  `json:"status,omitempty"`
	CurrentTask *string  `json:"currentTask,omitempty"`
	LastActive  *int64   `json:"lastActive,omitempty"`
	TokensToday *int64   `json:"tokensToday,omitempty"`
	TasksToday  *int64   `json:"tasksToday,omitempty"`
	TasksTotal  *int64   `json:"tasksTotal,omitempty"`
	CostToday   *float64 `json:"costToday,omitempty"`
	CostWeek    *float64 `json:"costWeek,omitempty"`
	CostMonth   *float64 `json:"costMonth,omitempty"`
}

// Validate checks required fields
func (r *SyncAgentStatusRequest) Validate() error {
	if r.AgentID == "" {
		return fmt.Errorf("agentId is required")
	}
	return nil
}

// UpdateStatsRequest is the dashboard-direct stats mutation. Unlike the sync
// path, these deltas are ADDED to the stored counters.
type UpdateStatsRequest struct {
	TokensDelta int64 `json:"tokensDelta,omitempty"`
	TasksDelta  int64 `json:"tasksDelta,omitempty"`
}
