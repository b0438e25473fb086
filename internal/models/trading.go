package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bot identifies which trading bot a mirror collection belongs to
type Bot string

// The two trading bots whose state is mirrored into the dashboard
const (
	BotOracle Bot = "oracle"
	BotMako   Bot = "mako"
)

// ParseBot validates a :bot path parameter
func ParseBot(s string) (Bot, error) {
	switch Bot(s) {
	case BotOracle, BotMako:
		return Bot(s), nil
	}
	return "", fmt.Errorf("unknown bot %q", s)
}

// Trade mirrors one trade row from a bot's local database. At most one
// document exists per tradeId; a re-sync replaces the document wholesale so
// a late P&L correction on a closed trade wins.
type Trade struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TradeID      string             `bson:"tradeId" json:"tradeId"`
	Market       string             `bson:"market" json:"market"`
	Slug         string             `bson:"slug,omitempty" json:"slug,omitempty"`
	Side         string             `bson:"side" json:"side"` // buy / sell
	Direction    string             `bson:"direction,omitempty" json:"direction,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	Size         float64            `bson:"size" json:"size"`
	Pnl          float64            `bson:"pnl" json:"pnl"`
	Closed       bool               `bson:"closed" json:"closed"`
	Strategy     string             `bson:"strategy,omitempty" json:"strategy,omitempty"`
	OpenedAt     int64              `bson:"openedAt" json:"openedAt"` // unix millis
	ClosedAt     int64              `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	LastSyncedAt time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
}

// Validate checks required fields
func (t *Trade) Validate() error {
	if t.TradeID == "" {
		return fmt.Errorf("tradeId is required")
	}
	if t.Market == "" {
		return fmt.Errorf("market is required")
	}
	return nil
}

// Position mirrors one currently-open position. The producer stops sending a
// position once it closes; stale rows are not auto-deleted by the sync layer.
type Position struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PositionID     string             `bson:"positionId" json:"positionId"`
	Market         string             `bson:"market" json:"market"`
	EntryPrice     float64            `bson:"entryPrice" json:"entryPrice"`
	CurrentPrice   float64            `bson:"currentPrice" json:"currentPrice"`
	UnrealizedPnl  float64            `bson:"unrealizedPnl" json:"unrealizedPnl"`
	Size           float64            `bson:"size" json:"size"`
	Strategy       string             `bson:"strategy,omitempty" json:"strategy,omitempty"`
	TimeHeldMs     int64              `bson:"timeHeldMs,omitempty" json:"timeHeldMs,omitempty"`
	LastSyncedAt   time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
}

// Validate checks required fields
func (p *Position) Validate() error {
	if p.PositionID == "" {
		return fmt.Errorf("positionId is required")
	}
	if p.Market == "" {
		return fmt.Errorf("market is required")
	}
	return nil
}

// DailyPnl is one calendar day's P&L rollup, keyed by the day string
// (YYYY-MM-DD). Re-syncing a day overwrites the whole rollup.
type DailyPnl struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date          string             `bson:"date" json:"date"`
	RealizedPnl   float64            `bson:"realizedPnl" json:"realizedPnl"`
	UnrealizedPnl float64            `bson:"unrealizedPnl" json:"unrealizedPnl"`
	WinRate       float64            `bson:"winRate" json:"winRate"`
	TradeCount    int64              `bson:"tradeCount" json:"tradeCount"`
	WinCount      int64              `bson:"winCount" json:"winCount"`
	LossCount     int64              `bson:"lossCount" json:"lossCount"`
	LastSyncedAt  time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
}

// Validate checks required fields
func (d *DailyPnl) Validate() error {
	if d.Date == "" {
		return fmt.Errorf("date is required")
	}
	return nil
}

// StrategyPerformance is the per-strategy rollup, overwritten wholesale on
// each sync.
type StrategyPerformance struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Strategy     string             `bson:"strategy" json:"strategy"`
	TradeCount   int64              `bson:"tradeCount" json:"tradeCount"`
	TotalPnl     float64            `bson:"totalPnl" json:"totalPnl"`
	WinRate      float64            `bson:"winRate" json:"winRate"`
	LastSyncedAt time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
}

// Validate checks required fields
func (s *StrategyPerformance) Validate() error {
	if s.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	return nil
}

// TurnLog mirrors one LLM turn of a trading bot's decision loop. At most one
// document exists per turnId; later syncs patch rather than replace.
type TurnLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TurnID       string             `bson:"turnId" json:"turnId"`
	Prompt       string             `bson:"prompt,omitempty" json:"prompt,omitempty"`
	ToolCalls    []string           `bson:"toolCalls,omitempty" json:"toolCalls,omitempty"`
	TokensIn     int64              `bson:"tokensIn" json:"tokensIn"`
	TokensOut    int64              `bson:"tokensOut" json:"tokensOut"`
	DurationMs   int64              `bson:"durationMs,omitempty" json:"durationMs,omitempty"`
	Status       string             `bson:"status" json:"status"`
	Timestamp    int64              `bson:"timestamp" json:"timestamp"` // unix millis
	LastSyncedAt time.Time          `bson:"lastSyncedAt" json:"lastSyncedAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// SyncTurnLogRequest is the trading activity-log sync payload
type SyncTurnLogRequest struct {
	TurnID     string   `json:"turnId"`
	Prompt     *string  `json:"prompt,omitempty"`
	ToolCalls  []string `json:"toolCalls,omitempty"`
	TokensIn   *int64   `json:"tokensIn,omitempty"`
	TokensOut  *int64   `json:"tokensOut,omitempty"`
	DurationMs *int64   `json:"durationMs,omitempty"`
	Status     *string  `json:"status,omitempty"`
	Timestamp  *int64   `json:"timestamp,omitempty"`
}

// Validate checks required fields
func (r *SyncTurnLogRequest) Validate() error {
	if r.TurnID == "" {
		return fmt.Errorf("turnId is required")
	}
	return nil
}
