package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sync request statuses
const (
	SyncPending   = "pending"
	SyncFulfilled = "fulfilled"
	SyncExpired   = "expired"
)

// SyncRequest is one "please refresh" signal from the dashboard. It is
// persisted as an ordinary document rather than an in-process flag so the
// handshake survives restarts and works across multiple server instances.
type SyncRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Status      string             `bson:"status" json:"status"`
	RequestedAt time.Time          `bson:"requestedAt" json:"requestedAt"`
	FulfilledAt *time.Time         `bson:"fulfilledAt,omitempty" json:"fulfilledAt,omitempty"`
}

// LastSyncResponse is the dashboard's 2-field view of the handshake
type LastSyncResponse struct {
	IsPending       bool       `json:"isPending"`
	LastFulfilledAt *time.Time `json:"lastFulfilledAt"`
}

// PendingSyncResponse tells the external poller whether work is outstanding
type PendingSyncResponse struct {
	Pending     bool       `json:"pending"`
	RequestedAt *time.Time `json:"requestedAt,omitempty"`
}

// FulfillResponse reports how many pending requests a fulfillment collapsed
type FulfillResponse struct {
	Fulfilled int64 `json:"fulfilled"`
}
