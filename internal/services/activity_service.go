package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleetdeck/internal/database"
	"fleetdeck/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityService handles the append-only activity feed. Activities have no
// natural key and are never upserted; every sync call inserts a new row.
type ActivityService struct {
	collection *mongo.Collection
}

// NewActivityService creates a new activity service
func NewActivityService(db *database.MongoDB) *ActivityService {
	return &ActivityService{
		collection: db.Collection(database.CollectionActivities),
	}
}

// Record inserts one activity entry
func (s *ActivityService) Record(ctx context.Context, req *models.SyncActivityRequest) (string, error) {
	now := time.Now()
	req.ApplyDefaults(now)

	result, err := s.collection.InsertOne(ctx, req.ToActivity(now))
	if err != nil {
		return "", fmt.Errorf("failed to insert activity: %w", err)
	}

	RecordUpsert("activity", "insert")
	return objectIDHex(result.InsertedID), nil
}

// ListRecent returns the newest activities, optionally filtered by agent
func (s *ActivityService) ListRecent(ctx context.Context, agent string, limit int64) ([]models.Activity, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	filter := bson.M{}
	if agent != "" {
		filter["agent"] = agent
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := make([]models.Activity, 0)
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}

	return activities, nil
}

// Search runs a full-text query over activity titles and descriptions
func (s *ActivityService) Search(ctx context.Context, query string, limit int64) ([]models.Activity, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := make([]models.Activity, 0)
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}

	return activities, nil
}

// DeleteOlderThan removes activities past the retention window. Used by the
// retention job, never by the sync path.
func (s *ActivityService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{
		"timestamp": bson.M{"$lt": cutoff.UnixMilli()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old activities: %w", err)
	}

	if result.DeletedCount > 0 {
		log.Printf("🧹 Deleted %d activities older than %s", result.DeletedCount, cutoff.Format(time.RFC3339))
	}
	return result.DeletedCount, nil
}
