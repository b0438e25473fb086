package services

import (
	"context"
	"os"
	"testing"
	"time"

	"fleetdeck/internal/database"
	"fleetdeck/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStaleCutoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ttl  time.Duration
		want time.Time
	}{
		{"five minutes", 5 * time.Minute, time.Date(2025, 6, 1, 11, 55, 0, 0, time.UTC)},
		{"one hour", time.Hour, time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)},
		{"zero ttl", 0, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := staleCutoff(now, tt.ttl)
			if !got.Equal(tt.want) {
				t.Errorf("staleCutoff = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildExpireStale(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 11, 55, 0, 0, time.UTC)

	filter, update := buildExpireStale(cutoff)

	// Only pending documents older than the cutoff may expire; fulfilled
	// and expired requests are terminal states.
	if filter["status"] != models.SyncPending {
		t.Errorf("filter status = %v, want %v", filter["status"], models.SyncPending)
	}
	requestedAt := filter["requestedAt"].(bson.M)
	if requestedAt["$lt"] != cutoff {
		t.Errorf("filter requestedAt $lt = %v, want %v", requestedAt["$lt"], cutoff)
	}

	set := update["$set"].(bson.M)
	if set["status"] != models.SyncExpired {
		t.Errorf("update status = %v, want %v", set["status"], models.SyncExpired)
	}
	if _, ok := set["fulfilledAt"]; ok {
		t.Error("expiry must not stamp fulfilledAt")
	}
}

func TestBuildFulfillPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	filter, update := buildFulfillPending(now)

	// Every pending document matches, regardless of age: one fulfillment
	// collapses stacked requests. Expired requests stay expired.
	if len(filter) != 1 || filter["status"] != models.SyncPending {
		t.Errorf("filter = %v, want status=pending only", filter)
	}

	set := update["$set"].(bson.M)
	if set["status"] != models.SyncFulfilled {
		t.Errorf("update status = %v, want %v", set["status"], models.SyncFulfilled)
	}
	if set["fulfilledAt"] != now {
		t.Errorf("update fulfilledAt = %v, want %v", set["fulfilledAt"], now)
	}
}

// testSyncRequestService connects to a real MongoDB when MONGODB_TEST_URI is
// set and returns a service over a cleaned sync_requests collection.
func testSyncRequestService(t *testing.T, ttl time.Duration) *SyncRequestService {
	t.Helper()

	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set - skipping integration test")
	}

	db, err := database.NewMongoDB(uri)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() { db.Close(context.Background()) })

	if _, err := db.Collection(database.CollectionSyncRequests).DeleteMany(context.Background(), bson.M{}); err != nil {
		t.Fatalf("Failed to clean sync_requests: %v", err)
	}

	return NewSyncRequestService(db, ttl)
}

// swapTestGauge installs an unregistered metrics instance so gauge values
// can be asserted without touching the default Prometheus registry.
func swapTestGauge(t *testing.T) prometheus.Gauge {
	t.Helper()

	prev := globalMetrics
	t.Cleanup(func() { globalMetrics = prev })

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_sync_requests_pending"})
	globalMetrics = &Metrics{PendingSyncRequests: gauge}
	return gauge
}

func TestSyncRequestLifecycle(t *testing.T) {
	svc := testSyncRequestService(t, 5*time.Minute)
	ctx := context.Background()

	// Fresh state: nothing pending, nothing fulfilled.
	last, err := svc.GetLastSync(ctx)
	if err != nil {
		t.Fatalf("GetLastSync failed: %v", err)
	}
	if last.IsPending || last.LastFulfilledAt != nil {
		t.Errorf("fresh state = %+v, want no pending and no fulfillment", last)
	}

	// Three rapid requests stack three pending documents.
	for i := 0; i < 3; i++ {
		if _, err := svc.RequestSync(ctx); err != nil {
			t.Fatalf("RequestSync failed: %v", err)
		}
	}

	last, err = svc.GetLastSync(ctx)
	if err != nil {
		t.Fatalf("GetLastSync failed: %v", err)
	}
	if !last.IsPending {
		t.Error("isPending = false after requests, want true")
	}

	pending, err := svc.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending failed: %v", err)
	}
	if !pending.Pending || pending.RequestedAt == nil {
		t.Errorf("poller view = %+v, want pending with requestedAt", pending)
	}

	// One fulfillment collapses all three.
	count, err := svc.FulfillPending(ctx)
	if err != nil {
		t.Fatalf("FulfillPending failed: %v", err)
	}
	if count != 3 {
		t.Errorf("fulfilled = %d, want 3", count)
	}

	last, err = svc.GetLastSync(ctx)
	if err != nil {
		t.Fatalf("GetLastSync failed: %v", err)
	}
	if last.IsPending {
		t.Error("isPending = true after fulfill, want false")
	}
	if last.LastFulfilledAt == nil {
		t.Error("lastFulfilledAt missing after fulfill")
	}

	// Fulfilling again is a no-op.
	count, err = svc.FulfillPending(ctx)
	if err != nil {
		t.Fatalf("FulfillPending failed: %v", err)
	}
	if count != 0 {
		t.Errorf("second fulfill = %d, want 0", count)
	}
}

func TestExpiredRequestsDoNotCountAsPending(t *testing.T) {
	svc := testSyncRequestService(t, 5*time.Minute)
	ctx := context.Background()
	gauge := swapTestGauge(t)

	// A request the producer never answered, now past the TTL.
	_, err := svc.collection.InsertOne(ctx, &models.SyncRequest{
		Status:      models.SyncPending,
		RequestedAt: time.Now().Add(-10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("InsertOne failed: %v", err)
	}

	expired, err := svc.ExpireStale(ctx, time.Now())
	if err != nil {
		t.Fatalf("ExpireStale failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	last, err := svc.GetLastSync(ctx)
	if err != nil {
		t.Fatalf("GetLastSync failed: %v", err)
	}
	if last.IsPending {
		t.Error("isPending = true after expiry, want false")
	}

	pending, err := svc.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending failed: %v", err)
	}
	if pending.Pending {
		t.Error("poller still sees pending after expiry")
	}

	// The sweep clearing the last pending request must also clear the gauge.
	if got := testutil.ToFloat64(gauge); got != 0 {
		t.Errorf("pending gauge = %v after sweep, want 0", got)
	}

	// An expired request is terminal: a later fulfill does not touch it.
	count, err := svc.FulfillPending(ctx)
	if err != nil {
		t.Fatalf("FulfillPending failed: %v", err)
	}
	if count != 0 {
		t.Errorf("fulfill after expiry = %d, want 0", count)
	}
}
