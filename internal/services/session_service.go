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

// SessionService reconciles agent runtime sessions by sessionId.
type SessionService struct {
	collection *mongo.Collection
}

// NewSessionService creates a new session service
func NewSessionService(db *database.MongoDB) *SessionService {
	return &SessionService{
		collection: db.Collection(database.CollectionSessions),
	}
}

// Upsert patches the session matching req.SessionID or inserts a new one.
// The update is a single atomic operation against the unique sessionId
// index, so two concurrent syncs for the same session serialize into an
// insert followed by a patch rather than a duplicate pair.
func (s *SessionService) Upsert(ctx context.Context, req *models.SyncSessionRequest) (string, error) {
	filter, update := buildSessionUpsert(req, time.Now())

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var session models.Session
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session); err != nil {
		RecordFailure("session")
		return "", fmt.Errorf("failed to upsert session %s: %w", req.SessionID, err)
	}

	RecordUpsert("session", "upsert")
	return session.ID.Hex(), nil
}

// buildSessionUpsert constructs the atomic upsert for one session sync.
//
// Provided fields go into $set and therefore win on both insert and patch.
// Omitted optional fields get their defaults via $setOnInsert, so they only
// materialize when the document is first created; a later payload that
// omits a field never clobbers the stored value.
func buildSessionUpsert(req *models.SyncSessionRequest, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"sessionId": req.SessionID}

	set := bson.M{
		"agent":        req.Agent,
		"lastSyncedAt": now,
	}
	setOnInsert := bson.M{
		"sessionId": req.SessionID,
		"createdAt": now,
	}

	setOrDefault := func(field string, provided any, isNil bool, def any) {
		if isNil {
			setOnInsert[field] = def
		} else {
			set[field] = provided
		}
	}

	setOrDefault("sessionKey", deref(req.SessionKey), req.SessionKey == nil, "")
	setOrDefault("model", deref(req.Model), req.Model == nil, "unknown")
	setOrDefault("status", deref(req.Status), req.Status == nil, "completed")
	setOrDefault("startedAt", deref(req.StartedAt), req.StartedAt == nil, now.UnixMilli())
	setOrDefault("tokensIn", deref(req.TokensIn), req.TokensIn == nil, int64(0))
	setOrDefault("tokensOut", deref(req.TokensOut), req.TokensOut == nil, int64(0))
	setOrDefault("cost", deref(req.Cost), req.Cost == nil, float64(0))

	// No insert defaults for these; absent means absent.
	if req.EndedAt != nil {
		set["endedAt"] = *req.EndedAt
	}
	if req.TaskSummary != nil {
		set["taskSummary"] = *req.TaskSummary
	}
	if req.ParentSessionID != nil {
		set["parentSessionId"] = *req.ParentSessionID
	}

	return filter, bson.M{"$set": set, "$setOnInsert": setOnInsert}
}

// ListRecent returns sessions ordered by start time, optionally per agent
func (s *SessionService) ListRecent(ctx context.Context, agent string, limit int64) ([]models.Session, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	filter := bson.M{}
	if agent != "" {
		filter["agent"] = agent
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := make([]models.Session, 0)
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return sessions, nil
}

// Get returns one session by its natural key
func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func deref[T any](p *T) any {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
