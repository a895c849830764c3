package domain

import "time"

// EventName identifies an event on the bus.
type EventName string

const (
	EventIdentityCreated EventName = "identity.created"
	EventIdentityUpdated EventName = "identity.updated"
	EventIdentityDeleted EventName = "identity.deleted"
	EventUserActivity    EventName = "user.activity"
	EventBulkSync        EventName = "users.bulk-sync"
)

// SyncAction is the store mutation a sync handler performed.
type SyncAction string

const (
	ActionCreated SyncAction = "created"
	ActionUpdated SyncAction = "updated"
	ActionDeleted SyncAction = "deleted"
)

// SyncOutcome is the structured result of one sync handler invocation.
type SyncOutcome struct {
	Success    bool       `json:"success"`
	ExternalID string     `json:"externalId"`
	RecordID   string     `json:"recordId,omitempty"`
	Action     SyncAction `json:"action"`
	// Found is meaningful for deletes only: whether a record existed.
	Found bool `json:"found,omitempty"`
}

// BulkSyncOutcome is the per-item result of a bulk reconciliation. Error is
// empty when Success is true.
type BulkSyncOutcome struct {
	ExternalID string `json:"externalId"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// IdentityProfile is the provider's view of an identity, as fetched from its
// read API or carried on its lifecycle events.
type IdentityProfile struct {
	ExternalID string `json:"externalId"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// UserActivity is the payload of a user.activity event.
type UserActivity struct {
	ExternalID string    `json:"externalId"`
	Activity   string    `json:"activity"`
	Timestamp  time.Time `json:"timestamp"`
}

// BulkSyncRequest is the payload of a users.bulk-sync event.
type BulkSyncRequest struct {
	ExternalIDs []string  `json:"externalIds"`
	RequestedAt time.Time `json:"requestedAt"`
}
