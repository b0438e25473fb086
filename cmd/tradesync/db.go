package main

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Row types mirror the trading bots' local SQLite schema. Both bots write
// the same table shapes; only the database file differs.

type tradeRow struct {
	TradeID   string  `gorm:"column:trade_id;primaryKey"`
	Market    string  `gorm:"column:market"`
	Slug      string  `gorm:"column:slug"`
	Side      string  `gorm:"column:side"`
	Direction string  `gorm:"column:direction"`
	Price     float64 `gorm:"column:price"`
	Size      float64 `gorm:"column:size"`
	Pnl       float64 `gorm:"column:pnl"`
	Closed    bool    `gorm:"column:closed"`
	Strategy  string  `gorm:"column:strategy"`
	OpenedAt  int64   `gorm:"column:opened_at"`
	ClosedAt  int64   `gorm:"column:closed_at"`
}

func (tradeRow) TableName() string { return "trades" }

type positionRow struct {
	PositionID    string  `gorm:"column:position_id;primaryKey"`
	Market        string  `gorm:"column:market"`
	EntryPrice    float64 `gorm:"column:entry_price"`
	CurrentPrice  float64 `gorm:"column:current_price"`
	UnrealizedPnl float64 `gorm:"column:unrealized_pnl"`
	Size          float64 `gorm:"column:size"`
	Strategy      string  `gorm:"column:strategy"`
	TimeHeldMs    int64   `gorm:"column:time_held_ms"`
	OpenedAt      int64   `gorm:"column:opened_at"`
}

func (positionRow) TableName() string { return "positions" }

type dailyPnlRow struct {
	Date          string  `gorm:"column:date;primaryKey"`
	RealizedPnl   float64 `gorm:"column:realized_pnl"`
	UnrealizedPnl float64 `gorm:"column:unrealized_pnl"`
	TradeCount    int64   `gorm:"column:trade_count"`
	WinCount      int64   `gorm:"column:win_count"`
	LossCount     int64   `gorm:"column:loss_count"`
}

func (dailyPnlRow) TableName() string { return "daily_pnl" }

type strategyRow struct {
	Strategy   string  `gorm:"column:strategy;primaryKey"`
	TradeCount int64   `gorm:"column:trade_count"`
	WinCount   int64   `gorm:"column:win_count"`
	TotalPnl   float64 `gorm:"column:total_pnl"`
}

func (strategyRow) TableName() string { return "strategy_performance" }

type turnLogRow struct {
	TurnID     string `gorm:"column:turn_id;primaryKey"`
	Prompt     string `gorm:"column:prompt"`
	ToolCalls  string `gorm:"column:tool_calls"` // comma-separated
	TokensIn   int64  `gorm:"column:tokens_in"`
	TokensOut  int64  `gorm:"column:tokens_out"`
	DurationMs int64  `gorm:"column:duration_ms"`
	Status     string `gorm:"column:status"`
	Timestamp  int64  `gorm:"column:timestamp"`
}

func (turnLogRow) TableName() string { return "activity_log" }

// openBotDB opens a bot's SQLite database read-only. The bot owns the file;
// this CLI must never take write locks on it.
func openBotDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?mode=ro"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}
