package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SYNC_PENDING_TTL", "RETENTION_DAYS", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Port = %q, want 3001", cfg.Port)
	}
	if cfg.SyncPendingTTL != 5*time.Minute {
		t.Errorf("SyncPendingTTL = %v, want 5m", cfg.SyncPendingTTL)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want 90", cfg.RetentionDays)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v, want default localhost origin", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SYNC_PENDING_TTL", "2m30s")
	t.Setenv("RETENTION_DAYS", "30")
	t.Setenv("ALLOWED_ORIGINS", "https://fleet.example.com, https://staging.example.com")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SyncPendingTTL != 2*time.Minute+30*time.Second {
		t.Errorf("SyncPendingTTL = %v, want 2m30s", cfg.SyncPendingTTL)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", cfg.RetentionDays)
	}
	want := []string{"https://fleet.example.com", "https://staging.example.com"}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != want[0] || cfg.AllowedOrigins[1] != want[1] {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SYNC_PENDING_TTL", "not a duration")
	t.Setenv("RETENTION_DAYS", "ninety")

	cfg := Load()

	if cfg.SyncPendingTTL != 5*time.Minute {
		t.Errorf("SyncPendingTTL = %v, want 5m fallback", cfg.SyncPendingTTL)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want 90 fallback", cfg.RetentionDays)
	}
}
