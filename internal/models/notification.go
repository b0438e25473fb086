package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification statuses
const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// Notification is an append-only message surfaced on the dashboard.
// Immutable except for the separate mark-read mutation that patches status.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Channel   string             `bson:"channel" json:"channel"`
	Recipient string             `bson:"recipient" json:"recipient"`
	Subject   string             `bson:"subject" json:"subject"`
	Content   string             `bson:"content" json:"content"`
	Status    string             `bson:"status" json:"status"`
	Timestamp int64              `bson:"timestamp" json:"timestamp"` // unix millis
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// SyncNotificationRequest is the POST /api/sync/notification payload
type SyncNotificationRequest struct {
	Channel   string `json:"channel,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Subject   string `json:"subject"`
	Content   string `json:"content,omitempty"`
	Status    string `json:"status,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Validate checks required fields
func (r *SyncNotificationRequest) Validate() error {
	if r.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}

// ApplyDefaults fills optional fields the producer omitted
func (r *SyncNotificationRequest) ApplyDefaults(now time.Time) {
	if r.Channel == "" {
		r.Channel = "system"
	}
	if r.Recipient == "" {
		r.Recipient = "josh"
	}
	if r.Status == "" {
		r.Status = NotificationUnread
	}
	if r.Timestamp == 0 {
		r.Timestamp = now.UnixMilli()
	}
}

// ToNotification converts a defaulted request into an insertable document
func (r *SyncNotificationRequest) ToNotification(now time.Time) *Notification {
	return &Notification{
		Channel:   r.Channel,
		Recipient: r.Recipient,
		Subject:   r.Subject,
		Content:   r.Content,
		Status:    r.Status,
		Timestamp: r.Timestamp,
		CreatedAt: now,
	}
}
