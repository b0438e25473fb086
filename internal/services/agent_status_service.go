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

// AgentStatusService reconciles per-agent live status rows. Agent identity
// documents are owned by the provisioning flow, so the sync path is
// patch-only: a sync for an unknown agentId is dropped without error.
type AgentStatusService struct {
	collection *mongo.Collection
}

// NewAgentStatusService creates a new agent status service
func NewAgentStatusService(db *database.MongoDB) *AgentStatusService {
	return &AgentStatusService{
		collection: db.Collection(database.CollectionAgentStatus),
	}
}

// SyncStatus patches the agent's status row with the fields the producer
// sent. Counters on this path OVERWRITE stored values. No document with the
// given agentId means a silent no-op, never an insert and never an error.
func (s *AgentStatusService) SyncStatus(ctx context.Context, req *models.SyncAgentStatusRequest) (string, error) {
	set := buildAgentStatusSet(req, time.Now())

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var status models.AgentStatus
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"agentId": req.AgentID}, bson.M{"$set": set}, opts).Decode(&status)
	if err == mongo.ErrNoDocuments {
		// Unknown agent: provisioning hasn't created it, drop the update.
		log.Printf("⏭️  Agent status sync for unknown agent %q ignored", req.AgentID)
		return "", nil
	}
	if err != nil {
		RecordFailure("agent_status")
		return "", fmt.Errorf("failed to patch agent status %s: %w", req.AgentID, err)
	}

	RecordUpsert("agent_status", "patch")
	return status.ID.Hex(), nil
}

// buildAgentStatusSet collects only the fields present in the payload
func buildAgentStatusSet(req *models.SyncAgentStatusRequest, now time.Time) bson.M {
	set := bson.M{"lastSyncedAt": now}

	if req.Status != nil {
		set["status"] = *req.Status
	}
	if req.CurrentTask != nil {
		set["currentTask"] = *req.CurrentTask
	}
	if req.LastActive != nil {
		set["lastActive"] = *req.LastActive
	}
	if req.TokensToday != nil {
		set["tokensToday"] = *req.TokensToday
	}
	if req.TasksToday != nil {
		set["tasksToday"] = *req.TasksToday
	}
	if req.TasksTotal != nil {
		set["tasksTotal"] = *req.TasksTotal
	}
	if req.CostToday != nil {
		set["costToday"] = *req.CostToday
	}
	if req.CostWeek != nil {
		set["costWeek"] = *req.CostWeek
	}
	if req.CostMonth != nil {
		set["costMonth"] = *req.CostMonth
	}

	return set
}

// UpdateStats is the dashboard-direct mutation: deltas are ADDED to the
// stored counters. This is deliberately a different semantic from SyncStatus
// (which overwrites) and the two must not be unified: the sync producer
// owns cumulative values, the dashboard owns incremental bumps.
func (s *AgentStatusService) UpdateStats(ctx context.Context, agentID string, req *models.UpdateStatsRequest) error {
	update := bson.M{
		"$inc": bson.M{
			"tokensToday": req.TokensDelta,
			"tasksToday":  req.TasksDelta,
			"tasksTotal":  req.TasksDelta,
		},
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"agentId": agentID}, update)
	if err != nil {
		return fmt.Errorf("failed to update stats for %s: %w", agentID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("agent not found")
	}
	return nil
}

// List returns every agent's status row
func (s *AgentStatusService) List(ctx context.Context) ([]models.AgentStatus, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "agentId", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list agent status: %w", err)
	}
	defer cursor.Close(ctx)

	statuses := make([]models.AgentStatus, 0)
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("failed to decode agent status: %w", err)
	}

	return statuses, nil
}

// Provision creates the agent's identity row. This is the only code path
// that inserts into agent_status; it exists so demo seeding and operator
// tooling can register agents for sync to patch.
func (s *AgentStatusService) Provision(ctx context.Context, agentID, name string) (string, error) {
	now := time.Now()
	result, err := s.collection.InsertOne(ctx, &models.AgentStatus{
		AgentID:   agentID,
		Name:      name,
		Status:    "offline",
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to provision agent %s: %w", agentID, err)
	}
	return objectIDHex(result.InsertedID), nil
}
