package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fleetdeck/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// tradesync is the trading-bot producer. It reads each bot's local SQLite
// database read-only and mirrors trades, positions, pnl rollups, strategy
// aggregates and the decision-turn log into the dashboard.
func main() {
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found: %v", err)
	}

	baseURL := envOr("FLEETDECK_URL", "http://localhost:3001")
	secret := os.Getenv("SYNC_API_SECRET")
	interval := durationOr("SYNC_INTERVAL", time.Minute)

	if secret == "" {
		log.Fatal("❌ SYNC_API_SECRET is required")
	}

	bots := map[models.Bot]string{
		models.BotOracle: envOr("ORACLE_DB_PATH", "./oracle.db"),
		models.BotMako:   envOr("MAKO_DB_PATH", "./mako.db"),
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetAuthToken(secret).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	m := &mirror{http: http}

	log.Printf("🚀 tradesync started (target: %s, every %v)", baseURL, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	m.syncAll(bots)
	for {
		select {
		case <-ticker.C:
			m.syncAll(bots)
		case <-sigChan:
			log.Println("🛑 Shutting down tradesync...")
			return
		}
	}
}

type mirror struct {
	http *resty.Client
}

// syncAll mirrors every configured bot. A missing or locked database skips
// that bot for this cycle only.
func (m *mirror) syncAll(bots map[models.Bot]string) {
	for bot, path := range bots {
		if err := m.syncBot(bot, path); err != nil {
			log.Printf("⚠️ Sync failed for %s: %v", bot, err)
		}
	}
}

func (m *mirror) syncBot(bot models.Bot, path string) error {
	db, err := openBotDB(path)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	pushed := 0
	if n, err := m.pushTrades(db, bot); err != nil {
		return err
	} else {
		pushed += n
	}
	if n, err := m.pushPositions(db, bot); err != nil {
		return err
	} else {
		pushed += n
	}
	if n, err := m.pushDailyPnl(db, bot); err != nil {
		return err
	} else {
		pushed += n
	}
	if n, err := m.pushStrategies(db, bot); err != nil {
		return err
	} else {
		pushed += n
	}
	if n, err := m.pushTurnLogs(db, bot); err != nil {
		return err
	} else {
		pushed += n
	}

	// Heartbeat so the dashboard shows the bot as online
	now := time.Now().UnixMilli()
	status := "online"
	if err := m.post(bot, "status", &models.SyncAgentStatusRequest{
		AgentID:    string(bot),
		Status:     &status,
		LastActive: &now,
	}); err != nil {
		return err
	}

	log.Printf("🔄 Mirrored %d rows for %s", pushed, bot)
	return nil
}

func (m *mirror) post(bot models.Bot, kind string, body any) error {
	path := fmt.Sprintf("/api/sync/trading/%s/%s", bot, kind)
	resp, err := m.http.R().SetBody(body).Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status(), resp.String())
	}
	return nil
}

func (m *mirror) pushTrades(db *gorm.DB, bot models.Bot) (int, error) {
	var rows []tradeRow
	if err := db.Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("read trades: %w", err)
	}
	for _, r := range rows {
		trade := models.Trade{
			TradeID:   r.TradeID,
			Market:    r.Market,
			Slug:      r.Slug,
			Side:      r.Side,
			Direction: r.Direction,
			Price:     r.Price,
			Size:      r.Size,
			Pnl:       r.Pnl,
			Closed:    r.Closed,
			Strategy:  r.Strategy,
			OpenedAt:  r.OpenedAt,
			ClosedAt:  r.ClosedAt,
		}
		if err := m.post(bot, "trade", &trade); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (m *mirror) pushPositions(db *gorm.DB, bot models.Bot) (int, error) {
	var rows []positionRow
	if err := db.Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("read positions: %w", err)
	}
	for _, r := range rows {
		position := models.Position{
			PositionID:    r.PositionID,
			Market:        r.Market,
			EntryPrice:    r.EntryPrice,
			CurrentPrice:  r.CurrentPrice,
			UnrealizedPnl: r.UnrealizedPnl,
			Size:          r.Size,
			Strategy:      r.Strategy,
			TimeHeldMs:    r.TimeHeldMs,
		}
		if err := m.post(bot, "position", &position); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (m *mirror) pushDailyPnl(db *gorm.DB, bot models.Bot) (int, error) {
	var rows []dailyPnlRow
	if err := db.Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("read daily pnl: %w", err)
	}
	for _, r := range rows {
		pnl := models.DailyPnl{
			Date:          r.Date,
			RealizedPnl:   r.RealizedPnl,
			UnrealizedPnl: r.UnrealizedPnl,
			WinRate:       winRate(r.WinCount, r.TradeCount),
			TradeCount:    r.TradeCount,
			WinCount:      r.WinCount,
			LossCount:     r.LossCount,
		}
		if err := m.post(bot, "pnl", &pnl); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (m *mirror) pushStrategies(db *gorm.DB, bot models.Bot) (int, error) {
	var rows []strategyRow
	if err := db.Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("read strategy performance: %w", err)
	}
	for _, r := range rows {
		perf := models.StrategyPerformance{
			Strategy:   r.Strategy,
			TradeCount: r.TradeCount,
			TotalPnl:   r.TotalPnl,
			WinRate:    winRate(r.WinCount, r.TradeCount),
		}
		if err := m.post(bot, "strategy", &perf); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (m *mirror) pushTurnLogs(db *gorm.DB, bot models.Bot) (int, error) {
	var rows []turnLogRow
	if err := db.Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("read activity log: %w", err)
	}
	for _, r := range rows {
		req := models.SyncTurnLogRequest{
			TurnID:     r.TurnID,
			Prompt:     &r.Prompt,
			TokensIn:   &r.TokensIn,
			TokensOut:  &r.TokensOut,
			DurationMs: &r.DurationMs,
			Timestamp:  &r.Timestamp,
		}
		if r.Status != "" {
			req.Status = &r.Status
		}
		if r.ToolCalls != "" {
			req.ToolCalls = strings.Split(r.ToolCalls, ",")
		}
		if err := m.post(bot, "activity", &req); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func winRate(wins, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
