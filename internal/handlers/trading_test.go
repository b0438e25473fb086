package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newTradingTestApp() *fiber.App {
	app := fiber.New()
	handler := &TradingHandler{}
	app.Post("/api/sync/trading/:bot/trade", handler.SyncTrade)
	app.Post("/api/sync/trading/:bot/position", handler.SyncPosition)
	app.Post("/api/sync/trading/:bot/pnl", handler.SyncDailyPnl)
	return app
}

func TestTradingHandlerRejectsUnknownBot(t *testing.T) {
	app := newTradingTestApp()

	status, errMsg := postJSON(t, app, "/api/sync/trading/binance/trade", []byte(`{"tradeId":"t-1","market":"BTC"}`))
	if status != fiber.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, fiber.StatusBadRequest)
	}
	if errMsg != `unknown bot "binance"` {
		t.Errorf("error = %q, want unknown bot", errMsg)
	}
}

func TestTradingHandlerRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		body          string
		expectedError string
	}{
		{"trade invalid json", "/api/sync/trading/oracle/trade", "not json", "Invalid request body"},
		{"trade missing tradeId", "/api/sync/trading/oracle/trade", `{"market":"BTC"}`, "tradeId is required"},
		{"trade missing market", "/api/sync/trading/mako/trade", `{"tradeId":"t-1"}`, "market is required"},
		{"position missing positionId", "/api/sync/trading/oracle/position", `{"market":"ETH"}`, "positionId is required"},
		{"pnl missing date", "/api/sync/trading/mako/pnl", `{"realizedPnl":1.5}`, "date is required"},
	}

	app := newTradingTestApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, errMsg := postJSON(t, app, tt.path, []byte(tt.body))
			if status != fiber.StatusBadRequest {
				t.Errorf("status = %d, want %d", status, fiber.StatusBadRequest)
			}
			if errMsg != tt.expectedError {
				t.Errorf("error = %q, want %q", errMsg, tt.expectedError)
			}
		})
	}
}
