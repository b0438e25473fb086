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

// TradingService reconciles the trading mirror collections for both bots.
//
// Trades, positions, daily P&L rows and strategy rollups use FULL OVERWRITE
// semantics: the producer re-sends complete rows and a re-sync replaces the
// stored document wholesale (this is what lets a late P&L correction land).
// Turn logs use the same patch semantics as sessions.
type TradingService struct {
	db          *database.MongoDB
	agentStatus *AgentStatusService
}

// NewTradingService creates a new trading mirror service
func NewTradingService(db *database.MongoDB, agentStatus *AgentStatusService) *TradingService {
	return &TradingService{
		db:          db,
		agentStatus: agentStatus,
	}
}

// collections resolves the mirror collection set for one bot
func (s *TradingService) collections(bot models.Bot) (trades, positions, dailyPnl, strategyPerf, activityLog *mongo.Collection) {
	switch bot {
	case models.BotMako:
		return s.db.Collection(database.CollectionMakoTrades),
			s.db.Collection(database.CollectionMakoPositions),
			s.db.Collection(database.CollectionMakoDailyPnl),
			s.db.Collection(database.CollectionMakoStrategyPerf),
			s.db.Collection(database.CollectionMakoActivityLog)
	default:
		return s.db.Collection(database.CollectionOracleTrades),
			s.db.Collection(database.CollectionOraclePositions),
			s.db.Collection(database.CollectionOracleDailyPnl),
			s.db.Collection(database.CollectionOracleStrategyPerf),
			s.db.Collection(database.CollectionOracleActivityLog)
	}
}

// replaceByKey performs the full-overwrite upsert shared by trades,
// positions, P&L rows and strategy rollups: one atomic ReplaceOne against
// the collection's unique natural-key index.
func replaceByKey(ctx context.Context, coll *mongo.Collection, entity string, filter bson.M, doc any) (string, error) {
	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var replaced struct {
		ID any `bson:"_id"`
	}
	if err := coll.FindOneAndReplace(ctx, filter, doc, opts).Decode(&replaced); err != nil {
		RecordFailure(entity)
		return "", fmt.Errorf("failed to upsert %s: %w", entity, err)
	}

	RecordUpsert(entity, "replace")
	return objectIDHex(replaced.ID), nil
}

// SyncTrade mirrors one trade row, keyed by tradeId
func (s *TradingService) SyncTrade(ctx context.Context, bot models.Bot, trade *models.Trade) (string, error) {
	if err := trade.Validate(); err != nil {
		return "", err
	}
	trade.ID = primitive.NilObjectID // never carry a client-supplied _id into a replace
	trade.LastSyncedAt = time.Now()

	trades, _, _, _, _ := s.collections(bot)
	return replaceByKey(ctx, trades, "trade", bson.M{"tradeId": trade.TradeID}, trade)
}

// SyncPosition mirrors one open position, keyed by positionId
func (s *TradingService) SyncPosition(ctx context.Context, bot models.Bot, position *models.Position) (string, error) {
	if err := position.Validate(); err != nil {
		return "", err
	}
	position.ID = primitive.NilObjectID
	position.LastSyncedAt = time.Now()

	_, positions, _, _, _ := s.collections(bot)
	return replaceByKey(ctx, positions, "position", bson.M{"positionId": position.PositionID}, position)
}

// SyncDailyPnl mirrors one day's P&L rollup, keyed by the calendar day
func (s *TradingService) SyncDailyPnl(ctx context.Context, bot models.Bot, pnl *models.DailyPnl) (string, error) {
	if err := pnl.Validate(); err != nil {
		return "", err
	}
	pnl.ID = primitive.NilObjectID
	pnl.LastSyncedAt = time.Now()

	_, _, dailyPnl, _, _ := s.collections(bot)
	return replaceByKey(ctx, dailyPnl, "daily_pnl", bson.M{"date": pnl.Date}, pnl)
}

// SyncStrategyPerformance mirrors one strategy rollup, keyed by name
func (s *TradingService) SyncStrategyPerformance(ctx context.Context, bot models.Bot, perf *models.StrategyPerformance) (string, error) {
	if err := perf.Validate(); err != nil {
		return "", err
	}
	perf.ID = primitive.NilObjectID
	perf.LastSyncedAt = time.Now()

	_, _, _, strategyPerf, _ := s.collections(bot)
	return replaceByKey(ctx, strategyPerf, "strategy_performance", bson.M{"strategy": perf.Strategy}, perf)
}

// SyncTurnLog upserts one LLM turn of the bot's decision loop, keyed by
// turnId, with patch semantics
func (s *TradingService) SyncTurnLog(ctx context.Context, bot models.Bot, req *models.SyncTurnLogRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	filter, update := buildTurnLogUpsert(req, time.Now())

	_, _, _, _, activityLog := s.collections(bot)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var turn models.TurnLog
	if err := activityLog.FindOneAndUpdate(ctx, filter, update, opts).Decode(&turn); err != nil {
		RecordFailure("turn_log")
		return "", fmt.Errorf("failed to upsert turn log %s: %w", req.TurnID, err)
	}

	RecordUpsert("turn_log", "upsert")
	return turn.ID.Hex(), nil
}

// buildTurnLogUpsert constructs the atomic upsert for one turn log sync
func buildTurnLogUpsert(req *models.SyncTurnLogRequest, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"turnId": req.TurnID}

	set := bson.M{"lastSyncedAt": now}
	setOnInsert := bson.M{
		"turnId":    req.TurnID,
		"createdAt": now,
	}

	if req.Prompt != nil {
		set["prompt"] = *req.Prompt
	}
	if req.ToolCalls != nil {
		set["toolCalls"] = req.ToolCalls
	}
	if req.TokensIn != nil {
		set["tokensIn"] = *req.TokensIn
	} else {
		setOnInsert["tokensIn"] = int64(0)
	}
	if req.TokensOut != nil {
		set["tokensOut"] = *req.TokensOut
	} else {
		setOnInsert["tokensOut"] = int64(0)
	}
	if req.DurationMs != nil {
		set["durationMs"] = *req.DurationMs
	}
	if req.Status != nil {
		set["status"] = *req.Status
	} else {
		setOnInsert["status"] = "completed"
	}
	if req.Timestamp != nil {
		set["timestamp"] = *req.Timestamp
	} else {
		setOnInsert["timestamp"] = now.UnixMilli()
	}

	return filter, bson.M{"$set": set, "$setOnInsert": setOnInsert}
}

// SyncStatus patches the bot's row in agent_status, with the same
// patch-only contract as any other agent
func (s *TradingService) SyncStatus(ctx context.Context, req *models.SyncAgentStatusRequest) (string, error) {
	return s.agentStatus.SyncStatus(ctx, req)
}

// ListTrades returns the newest mirrored trades for one bot
func (s *TradingService) ListTrades(ctx context.Context, bot models.Bot, limit int64) ([]models.Trade, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	trades, _, _, _, _ := s.collections(bot)
	opts := options.Find().SetSort(bson.D{{Key: "openedAt", Value: -1}}).SetLimit(limit)

	cursor, err := trades.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.Trade, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode trades: %w", err)
	}
	return out, nil
}

// ListPositions returns the open positions for one bot
func (s *TradingService) ListPositions(ctx context.Context, bot models.Bot) ([]models.Position, error) {
	_, positions, _, _, _ := s.collections(bot)

	cursor, err := positions.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.Position, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}
	return out, nil
}

// ListDailyPnl returns the newest daily P&L rollups for one bot
func (s *TradingService) ListDailyPnl(ctx context.Context, bot models.Bot, limit int64) ([]models.DailyPnl, error) {
	if limit < 1 || limit > 366 {
		limit = 30
	}

	_, _, dailyPnl, _, _ := s.collections(bot)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(limit)

	cursor, err := dailyPnl.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily pnl: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.DailyPnl, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode daily pnl: %w", err)
	}
	return out, nil
}

// ListStrategyPerformance returns every strategy rollup for one bot
func (s *TradingService) ListStrategyPerformance(ctx context.Context, bot models.Bot) ([]models.StrategyPerformance, error) {
	_, _, _, strategyPerf, _ := s.collections(bot)

	cursor, err := strategyPerf.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "totalPnl", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list strategy performance: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.StrategyPerformance, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode strategy performance: %w", err)
	}
	return out, nil
}

// ListTurnLogs returns the newest decision-loop turns for one bot
func (s *TradingService) ListTurnLogs(ctx context.Context, bot models.Bot, limit int64) ([]models.TurnLog, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	_, _, _, _, activityLog := s.collections(bot)
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)

	cursor, err := activityLog.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list turn logs: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]models.TurnLog, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode turn logs: %w", err)
	}
	return out, nil
}
