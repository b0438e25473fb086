package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"fleetdeck/internal/logging"

	"github.com/redis/go-redis/v9"
)

// SyncEventChannel is the Redis channel carrying sync lifecycle events
const SyncEventChannel = "fleetdeck:sync:events"

// PubSubService fans sync lifecycle events out across server instances so
// every connected dashboard WebSocket sees fulfillments and fresh data,
// regardless of which instance processed the write.
type PubSubService struct {
	redis      *RedisService
	pubsub     *redis.PubSub
	handlers   []SyncEventHandler
	mu         sync.RWMutex
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
}

// SyncEventHandler is a callback for handling sync events
type SyncEventHandler func(event *SyncEvent)

// SyncEvent represents a sync lifecycle event sent via pub/sub
type SyncEvent struct {
	Type       string `json:"type"`             // "sync_fulfilled", "entity_synced"
	Entity     string `json:"entity,omitempty"` // entity kind for "entity_synced"
	Agent      string `json:"agent,omitempty"`
	Count      int64  `json:"count,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	InstanceID string `json:"instanceId"` // Source instance ID
}

// NewPubSubService creates a new pub/sub service
func NewPubSubService(redisService *RedisService, instanceID string) *PubSubService {
	ctx, cancel := context.WithCancel(context.Background())
	return &PubSubService{
		redis:      redisService,
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// OnSyncEvent registers a handler for incoming sync events
func (s *PubSubService) OnSyncEvent(handler SyncEventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Start begins listening for sync events published by other instances
func (s *PubSubService) Start() error {
	client := s.redis.Client()

	s.pubsub = client.Subscribe(s.ctx, SyncEventChannel)

	// Wait for subscription confirmation
	_, err := s.pubsub.Receive(s.ctx)
	if err != nil {
		return err
	}

	go s.processMessages()

	log.Printf("✅ [PUBSUB] Listening for sync events (instance: %s)", s.instanceID)
	return nil
}

// processMessages handles incoming pub/sub messages
func (s *PubSubService) processMessages() {
	ch := s.pubsub.Channel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(msg)
		}
	}
}

// handleMessage processes a single pub/sub message
func (s *PubSubService) handleMessage(msg *redis.Message) {
	var event SyncEvent
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to unmarshal sync event: %v", err)
		return
	}

	// Skip events from this instance (the local emitter already ran
	// its handlers directly, avoid double delivery)
	if event.InstanceID == s.instanceID {
		return
	}

	logging.WithEvent(event.Type, event.Entity).Debug("received sync event", "from", event.InstanceID)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handler := range s.handlers {
		go handler(&event)
	}
}

// PublishSyncEvent publishes a sync event to all instances and delivers it
// to local handlers immediately
func (s *PubSubService) PublishSyncEvent(ctx context.Context, event *SyncEvent) error {
	event.InstanceID = s.instanceID

	s.mu.RLock()
	for _, handler := range s.handlers {
		go handler(event)
	}
	s.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	logging.WithEvent(event.Type, event.Entity).Debug("publishing sync event", "count", event.Count)
	return s.redis.Client().Publish(ctx, SyncEventChannel, data).Err()
}

// Stop stops the pub/sub service
func (s *PubSubService) Stop() error {
	s.cancel()
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}
