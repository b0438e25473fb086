package jobs

import (
	"testing"
	"time"
)

func TestRetentionCutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days int
		want time.Time
	}{
		{"ninety days", 90, time.Date(2025, 3, 17, 2, 0, 0, 0, time.UTC)},
		{"thirty days", 30, time.Date(2025, 5, 16, 2, 0, 0, 0, time.UTC)},
		{"one day", 1, time.Date(2025, 6, 14, 2, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := retentionCutoff(now, tt.days)
			if !got.Equal(tt.want) {
				t.Errorf("retentionCutoff(%d) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestRetentionCutoffNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2025, 6, 15, 2, 0, 0, 0, loc)

	got := retentionCutoff(now, 90)
	if got.Location() != time.UTC {
		t.Errorf("cutoff location = %v, want UTC", got.Location())
	}
}
