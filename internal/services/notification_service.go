package services

import (
	"context"
	"fmt"
	"time"

	"fleetdeck/internal/database"
	"fleetdeck/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationService handles append-only dashboard notifications plus the
// single mark-read patch mutation.
type NotificationService struct {
	collection *mongo.Collection
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *database.MongoDB) *NotificationService {
	return &NotificationService{
		collection: db.Collection(database.CollectionNotifications),
	}
}

// Record inserts one notification
func (s *NotificationService) Record(ctx context.Context, req *models.SyncNotificationRequest) (string, error) {
	now := time.Now()
	req.ApplyDefaults(now)

	result, err := s.collection.InsertOne(ctx, req.ToNotification(now))
	if err != nil {
		RecordFailure("notification")
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}

	RecordUpsert("notification", "insert")
	return objectIDHex(result.InsertedID), nil
}

// MarkRead patches a notification's status to read. This is the only field
// a notification ever changes after insert.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid notification id")
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": models.NotificationRead}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

// ListRecent returns the newest notifications, optionally only unread
func (s *NotificationService) ListRecent(ctx context.Context, unreadOnly bool, limit int64) ([]models.Notification, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	filter := bson.M{}
	if unreadOnly {
		filter["status"] = models.NotificationUnread
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]models.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, nil
}

// Search runs a full-text query over notification subjects and contents
func (s *NotificationService) Search(ctx context.Context, query string, limit int64) ([]models.Notification, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]models.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, nil
}
