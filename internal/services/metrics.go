package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Reconciliation metrics
	SyncUpserts  *prometheus.CounterVec
	SyncFailures *prometheus.CounterVec

	// Sync request state machine
	PendingSyncRequests prometheus.Gauge

	// WebSocket metrics
	WebSocketConnections prometheus.Gauge
	WebSocketMessages    *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		// Reconciliation writes by entity and operation ("insert", "update", "replace")
		SyncUpserts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetdeck_sync_upserts_total",
			Help: "Total number of sync reconciliation writes by entity and operation",
		}, []string{"entity", "operation"}),

		// Reconciliation failures by entity
		SyncFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetdeck_sync_failures_total",
			Help: "Total number of failed sync reconciliation writes by entity",
		}, []string{"entity"}),

		// Pending sync requests (gauge - 1 while anything is pending)
		PendingSyncRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fleetdeck_sync_requests_pending",
			Help: "Whether any sync request is currently pending",
		}),

		// WebSocket active connections (gauge - can go up and down)
		WebSocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fleetdeck_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		}),

		// WebSocket messages by type (counter - only goes up)
		WebSocketMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetdeck_websocket_messages_total",
			Help: "Total number of WebSocket messages by type",
		}, []string{"type", "direction"}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordUpsert records a reconciliation write. Safe to call before
// InitMetrics (tests exercise services without the metrics registry).
func RecordUpsert(entity, operation string) {
	if globalMetrics != nil {
		globalMetrics.SyncUpserts.WithLabelValues(entity, operation).Inc()
	}
}

// RecordFailure records a failed reconciliation write
func RecordFailure(entity string) {
	if globalMetrics != nil {
		globalMetrics.SyncFailures.WithLabelValues(entity).Inc()
	}
}

// SetPendingSyncGauge sets the pending sync request gauge
func SetPendingSyncGauge(v float64) {
	if globalMetrics != nil {
		globalMetrics.PendingSyncRequests.Set(v)
	}
}

// RecordWebSocketConnect records a new WebSocket connection
func (m *Metrics) RecordWebSocketConnect() {
	m.WebSocketConnections.Inc()
}

// RecordWebSocketDisconnect records a WebSocket disconnection
func (m *Metrics) RecordWebSocketDisconnect() {
	m.WebSocketConnections.Dec()
}

// RecordWebSocketMessage records a WebSocket message
func (m *Metrics) RecordWebSocketMessage(msgType, direction string) {
	m.WebSocketMessages.WithLabelValues(msgType, direction).Inc()
}
