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

// CostService handles the append-only LLM cost ledger
type CostService struct {
	collection *mongo.Collection
}

// NewCostService creates a new cost service
func NewCostService(db *database.MongoDB) *CostService {
	return &CostService{
		collection: db.Collection(database.CollectionCostEntries),
	}
}

// Record inserts one cost entry
func (s *CostService) Record(ctx context.Context, req *models.SyncCostRequest) (string, error) {
	now := time.Now()
	req.ApplyDefaults(now)

	result, err := s.collection.InsertOne(ctx, req.ToCostEntry(now))
	if err != nil {
		RecordFailure("cost")
		return "", fmt.Errorf("failed to insert cost entry: %w", err)
	}

	RecordUpsert("cost", "insert")
	return objectIDHex(result.InsertedID), nil
}

// ListRecent returns the newest cost entries, optionally per agent
func (s *CostService) ListRecent(ctx context.Context, agent string, limit int64) ([]models.CostEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 100
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
		return nil, fmt.Errorf("failed to list cost entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]models.CostEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cost entries: %w", err)
	}

	return entries, nil
}

// DeleteOlderThan removes cost entries past the retention window
func (s *CostService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{
		"timestamp": bson.M{"$lt": cutoff.UnixMilli()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old cost entries: %w", err)
	}
	return result.DeletedCount, nil
}
