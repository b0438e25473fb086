package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fleetdeck/internal/models"
)

// snapshot is one agent runtime's exported state file. The runtime rewrites
// its file atomically on every cycle; this CLI only ever reads.
type snapshot struct {
	Agent         *models.SyncAgentStatusRequest   `json:"agent,omitempty"`
	Sessions      []models.SyncSessionRequest      `json:"sessions,omitempty"`
	Activities    []models.SyncActivityRequest     `json:"activities,omitempty"`
	CronJobs      []models.CronJobSync             `json:"cronJobs,omitempty"`
	Tasks         []models.SyncTaskRequest         `json:"tasks,omitempty"`
	Costs         []models.SyncCostRequest         `json:"costs,omitempty"`
	Notifications []models.SyncNotificationRequest `json:"notifications,omitempty"`
}

// cursor tracks what has already been pushed. Keyed entities are safe to
// re-push (the server upserts), but activities and costs are append-only
// inserts, so re-pushing them would duplicate feed rows.
type cursor struct {
	LastActivityTs     int64 `json:"lastActivityTs"`
	LastCostTs         int64 `json:"lastCostTs"`
	LastNotificationTs int64 `json:"lastNotificationTs"`
}

func loadSnapshots(dir string) ([]snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read state dir: %w", err)
	}

	var snaps []snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func cursorPath(dir string) string {
	return filepath.Join(dir, ".fleetdeck-sync-cursor.json")
}

func loadCursor(dir string) cursor {
	var cur cursor
	data, err := os.ReadFile(cursorPath(dir))
	if err != nil {
		return cur
	}
	// A corrupt cursor resets to zero and re-pushes; acceptable for feeds
	// the dashboard dedupes visually by timestamp
	_ = json.Unmarshal(data, &cur)
	return cur
}

func saveCursor(dir string, cur cursor) error {
	data, err := json.Marshal(cur)
	if err != nil {
		return err
	}
	tmp := cursorPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, cursorPath(dir))
}
