package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task mirrors one kanban task owned by an agent. At most one document
// exists per taskId.
type Task struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID       string             `bson:"taskId" json:"taskId"`
	Title        string             `bson:"title" json:"title"`
	Agent        string             `bson:"agent" json:"agent"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Priority     string             `bson:"priority" json:"priority"` // p0..p3
	Status       string             `bson:"status" json:"status"`     // up_next / in_progress / done ...
	DueDate      int64              `bson:"dueDate,omitempty" json:"dueDate,omitempty"` // unix millis
	TaskCreated  int64              `bson:"taskCreatedAt" json:"taskCreatedAt"`
	TaskUpdated  int64              `bson:"taskUpdatedAt" json:"taskUpdatedAt"`
	CompletedAt  int64              `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	LastSyncedAt time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// SyncTaskRequest is the POST /api/sync/task payload
type SyncTaskRequest struct {
	TaskID      string  `json:"taskId"`
	Title       string  `json:"title"`
	Agent       string  `json:"agent"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDate     *int64  `json:"dueDate,omitempty"`
	CreatedAt   *int64  `json:"createdAt,omitempty"`
	UpdatedAt   *int64  `json:"updatedAt,omitempty"`
	CompletedAt *int64  `json:"completedAt,omitempty"`
}

// Validate checks required fields
func (r *SyncTaskRequest) Validate() error {
	if r.TaskID == "" {
		return fmt.Errorf("taskId is required")
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Agent == "" {
		return fmt.Errorf("agent is required")
	}
	return nil
}
