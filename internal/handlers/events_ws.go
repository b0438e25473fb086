package handlers

import (
	"log"
	"sync"
	"time"

	"fleetdeck/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// eventConn is one dashboard websocket subscriber
type eventConn struct {
	id   string
	conn *websocket.Conn
	send chan *services.SyncEvent
}

// EventsHandler streams sync lifecycle events to connected dashboards. The
// stream is broadcast-only; clients never send anything but pings.
type EventsHandler struct {
	conns map[string]*eventConn
	mu    sync.RWMutex
}

// NewEventsHandler creates a new events handler. When pub/sub is available
// it subscribes for events fanned out from any server instance.
func NewEventsHandler(pubsub *services.PubSubService) *EventsHandler {
	h := &EventsHandler{
		conns: make(map[string]*eventConn),
	}
	if pubsub != nil {
		pubsub.OnSyncEvent(h.Broadcast)
	}
	return h
}

// Broadcast delivers an event to every connected subscriber. Slow clients
// get dropped events, never a blocked broadcaster.
func (h *EventsHandler) Broadcast(event *services.SyncEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ec := range h.conns {
		select {
		case ec.send <- event:
			if m := services.GetMetrics(); m != nil {
				m.RecordWebSocketMessage(event.Type, "outbound")
			}
		default:
			log.Printf("⚠️ Event dropped for slow subscriber %s", ec.id)
		}
	}
}

// Count returns the number of connected subscribers
func (h *EventsHandler) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Handle handles a new WebSocket connection
// GET /ws/events
func (h *EventsHandler) Handle(c *websocket.Conn) {
	ec := &eventConn{
		id:   uuid.New().String(),
		conn: c,
		send: make(chan *services.SyncEvent, 32),
	}

	h.mu.Lock()
	h.conns[ec.id] = ec
	h.mu.Unlock()

	if m := services.GetMetrics(); m != nil {
		m.RecordWebSocketConnect()
	}

	done := make(chan struct{})
	defer func() {
		close(done)
		h.mu.Lock()
		delete(h.conns, ec.id)
		h.mu.Unlock()
		if m := services.GetMetrics(); m != nil {
			m.RecordWebSocketDisconnect()
		}
	}()

	c.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	go h.writeLoop(ec, done)

	// Read loop exists only to notice disconnects and answer pings
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		c.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}

// writeLoop pushes events and keepalive pings to one subscriber
func (h *EventsHandler) writeLoop(ec *eventConn, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-ec.send:
			if err := ec.conn.WriteJSON(event); err != nil {
				log.Printf("❌ WebSocket write error for %s: %v", ec.id, err)
				return
			}
		case <-ticker.C:
			if err := ec.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
