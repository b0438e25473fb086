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

// SyncRequestService tracks "please refresh" requests from the dashboard
// through pending → fulfilled / expired.
//
// The dashboard server cannot call the external sync producer directly; it
// can only be polled by it. The handshake is level-triggered: the poller
// asks "is anything pending", does one unit of work, then fulfills every
// pending request at once. Rapid dashboard clicks may stack multiple
// pending documents; that is accepted, the batch fulfill collapses them.
type SyncRequestService struct {
	collection *mongo.Collection
	pendingTTL time.Duration
	pubsub     *PubSubService
}

// NewSyncRequestService creates a new sync request service
func NewSyncRequestService(db *database.MongoDB, pendingTTL time.Duration) *SyncRequestService {
	return &SyncRequestService{
		collection: db.Collection(database.CollectionSyncRequests),
		pendingTTL: pendingTTL,
	}
}

// SetPubSub attaches the optional pub/sub fanout for fulfillment events
func (s *SyncRequestService) SetPubSub(pubsub *PubSubService) {
	s.pubsub = pubsub
}

// RequestSync records a new pending refresh request. Before inserting it
// sweeps pending requests older than the staleness window into expired, so
// an unanswered request is visibly abandoned rather than pending forever.
func (s *SyncRequestService) RequestSync(ctx context.Context) (string, error) {
	now := time.Now()

	if _, err := s.ExpireStale(ctx, now); err != nil {
		// The sweep failing must not block the new request; the reaper
		// job retries it every minute anyway.
		log.Printf("⚠️ Staleness sweep failed: %v", err)
	}

	result, err := s.collection.InsertOne(ctx, &models.SyncRequest{
		Status:      models.SyncPending,
		RequestedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert sync request: %w", err)
	}

	s.refreshPendingGauge(ctx)
	return objectIDHex(result.InsertedID), nil
}

// ExpireStale transitions every pending request older than the staleness
// window to expired and returns the count transitioned
func (s *SyncRequestService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	filter, update := buildExpireStale(staleCutoff(now, s.pendingTTL))

	result, err := s.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale sync requests: %w", err)
	}

	if result.ModifiedCount > 0 {
		log.Printf("⏳ Expired %d stale sync requests", result.ModifiedCount)
		s.refreshPendingGauge(ctx)
	}
	return result.ModifiedCount, nil
}

// staleCutoff computes the oldest requestedAt a pending request may carry
// before the sweep abandons it
func staleCutoff(now time.Time, ttl time.Duration) time.Time {
	return now.Add(-ttl)
}

// buildExpireStale constructs the sweep that abandons pending requests
// requested before the cutoff. Only pending documents match; fulfilled and
// expired requests are terminal.
func buildExpireStale(cutoff time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"status":      models.SyncPending,
		"requestedAt": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": models.SyncExpired}}
	return filter, update
}

// refreshPendingGauge re-reads the pending count so the gauge tracks every
// transition path, the staleness sweep included
func (s *SyncRequestService) refreshPendingGauge(ctx context.Context) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"status": models.SyncPending})
	if err != nil {
		return
	}
	SetPendingSyncGauge(float64(count))
}

// GetLastSync is the dashboard's 2-field read: whether any request is still
// pending, and when the most recent fulfillment happened
func (s *SyncRequestService) GetLastSync(ctx context.Context) (*models.LastSyncResponse, error) {
	pendingCount, err := s.collection.CountDocuments(ctx, bson.M{"status": models.SyncPending})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending sync requests: %w", err)
	}

	resp := &models.LastSyncResponse{IsPending: pendingCount > 0}

	var latest models.SyncRequest
	err = s.collection.FindOne(ctx,
		bson.M{"status": models.SyncFulfilled},
		options.FindOne().SetSort(bson.D{{Key: "fulfilledAt", Value: -1}}),
	).Decode(&latest)
	if err == nil {
		resp.LastFulfilledAt = latest.FulfilledAt
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to read last fulfilled sync: %w", err)
	}

	return resp, nil
}

// GetPending tells the external poller whether any refresh is outstanding,
// without mutating state. The poller uses this to decide whether to do its
// expensive sync work at all.
func (s *SyncRequestService) GetPending(ctx context.Context) (*models.PendingSyncResponse, error) {
	var oldest models.SyncRequest
	err := s.collection.FindOne(ctx,
		bson.M{"status": models.SyncPending},
		options.FindOne().SetSort(bson.D{{Key: "requestedAt", Value: 1}}),
	).Decode(&oldest)
	if err == mongo.ErrNoDocuments {
		return &models.PendingSyncResponse{Pending: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending sync requests: %w", err)
	}

	return &models.PendingSyncResponse{
		Pending:     true,
		RequestedAt: &oldest.RequestedAt,
	}, nil
}

// FulfillPending transitions EVERY pending request to fulfilled and returns
// the count. Fulfilling all of them at once is what collapses duplicate
// pending documents from rapid dashboard clicks into one "caught up" state.
func (s *SyncRequestService) FulfillPending(ctx context.Context) (int64, error) {
	now := time.Now()
	filter, update := buildFulfillPending(now)

	result, err := s.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to fulfill pending sync requests: %w", err)
	}

	s.refreshPendingGauge(ctx)

	if result.ModifiedCount > 0 {
		log.Printf("✅ Fulfilled %d pending sync requests", result.ModifiedCount)
		if s.pubsub != nil {
			s.pubsub.PublishSyncEvent(ctx, &SyncEvent{
				Type:      "sync_fulfilled",
				Count:     result.ModifiedCount,
				Timestamp: now.UnixMilli(),
			})
		}
	}

	return result.ModifiedCount, nil
}

// buildFulfillPending constructs the batch transition of every pending
// request to fulfilled, stamped with one shared fulfilledAt
func buildFulfillPending(now time.Time) (bson.M, bson.M) {
	filter := bson.M{"status": models.SyncPending}
	update := bson.M{"$set": bson.M{
		"status":      models.SyncFulfilled,
		"fulfilledAt": now,
	}}
	return filter, update
}
