package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// Validation runs before any service call, so a handler with nil services
// exercises the rejection paths safely.
func newSyncTestApp() *fiber.App {
	app := fiber.New()
	handler := &SyncHandler{}
	app.Post("/api/sync/activity", handler.SyncActivity)
	app.Post("/api/sync/session", handler.SyncSession)
	app.Post("/api/sync/agent-status", handler.SyncAgentStatus)
	app.Post("/api/sync/cron", handler.SyncCron)
	app.Post("/api/sync/task", handler.SyncTask)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body []byte) (int, string) {
	t.Helper()

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var parsed struct {
		Error string `json:"error"`
	}
	json.Unmarshal(raw, &parsed)

	return resp.StatusCode, parsed.Error
}

func TestSyncHandlerRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		body          string
		expectedError string
	}{
		{"activity invalid json", "/api/sync/activity", "not json", "Invalid request body"},
		{"activity missing agent", "/api/sync/activity", `{"action":"commit","title":"x"}`, "agent is required"},
		{"activity missing action", "/api/sync/activity", `{"agent":"scout","title":"x"}`, "action is required"},
		{"session missing sessionId", "/api/sync/session", `{"agent":"scout"}`, "sessionId is required"},
		{"session missing agent", "/api/sync/session", `{"sessionId":"sess-1"}`, "agent is required"},
		{"agent status missing agentId", "/api/sync/agent-status", `{"status":"online"}`, "agentId is required"},
		{"cron empty batch", "/api/sync/cron", `{"jobs":[]}`, "No cron jobs provided"},
		{"cron missing jobs", "/api/sync/cron", `{}`, "No cron jobs provided"},
		{"task missing taskId", "/api/sync/task", `{"title":"x","agent":"scout"}`, "taskId is required"},
		{"task missing title", "/api/sync/task", `{"taskId":"task-1","agent":"scout"}`, "title is required"},
	}

	app := newSyncTestApp()
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
