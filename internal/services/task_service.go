package services

import (
	"context"
	"fmt"
	"time"

	"fleetdeck/internal/database"
	"fleetdeck/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskService reconciles kanban tasks by taskId, with the same patch
// semantics as sessions.
type TaskService struct {
	collection *mongo.Collection
}

// NewTaskService creates a new task service
func NewTaskService(db *database.MongoDB) *TaskService {
	return &TaskService{
		collection: db.Collection(database.CollectionTasks),
	}
}

// Upsert patches the task matching req.TaskID or inserts a new one
func (s *TaskService) Upsert(ctx context.Context, req *models.SyncTaskRequest) (string, error) {
	filter, update := buildTaskUpsert(req, time.Now())

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var task models.Task
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&task); err != nil {
		RecordFailure("task")
		return "", fmt.Errorf("failed to upsert task %s: %w", req.TaskID, err)
	}

	RecordUpsert("task", "upsert")
	return task.ID.Hex(), nil
}

// buildTaskUpsert constructs the atomic upsert for one task sync
func buildTaskUpsert(req *models.SyncTaskRequest, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"taskId": req.TaskID}

	set := bson.M{
		"title":        req.Title,
		"agent":        req.Agent,
		"lastSyncedAt": now,
	}
	setOnInsert := bson.M{
		"taskId":    req.TaskID,
		"createdAt": now,
	}

	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Priority != nil {
		set["priority"] = *req.Priority
	} else {
		setOnInsert["priority"] = "p2"
	}
	if req.Status != nil {
		set["status"] = *req.Status
	} else {
		setOnInsert["status"] = "up_next"
	}
	if req.DueDate != nil {
		set["dueDate"] = *req.DueDate
	}
	if req.CreatedAt != nil {
		set["taskCreatedAt"] = *req.CreatedAt
	} else {
		setOnInsert["taskCreatedAt"] = now.UnixMilli()
	}
	if req.UpdatedAt != nil {
		set["taskUpdatedAt"] = *req.UpdatedAt
	} else {
		set["taskUpdatedAt"] = now.UnixMilli()
	}
	if req.CompletedAt != nil {
		set["completedAt"] = *req.CompletedAt
	}

	return filter, bson.M{"$set": set, "$setOnInsert": setOnInsert}
}

// List returns tasks, optionally filtered by agent and status
func (s *TaskService) List(ctx context.Context, agent, status string) ([]models.Task, error) {
	filter := bson.M{}
	if agent != "" {
		filter["agent"] = agent
	}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "taskUpdatedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]models.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	return tasks, nil
}
