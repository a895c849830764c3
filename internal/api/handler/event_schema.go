package handler

import (
	"encoding/json"
	"time"
)

// eventEnvelope is the wire form of a bus delivery: a name tag plus a raw
// payload decoded per event type.
type eventEnvelope struct {
	Name string          `json:"name" validate:"required"`
	Data json.RawMessage `json:"data"`
	TS   time.Time       `json:"ts"`
}

// identityEventPayload is the payload of identity.created and
// identity.updated deliveries. Field names are fixed by the provider's
// webhook shapes.
type identityEventPayload struct {
	ExternalID string    `json:"externalId" validate:"required"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Username   string    `json:"username"`
	Email      string    `json:"email" validate:"omitempty,email"`
	ImageURL   string    `json:"imageUrl" validate:"omitempty,url"`
	Timestamp  time.Time `json:"timestamp"`
}

// identityDeletedPayload is the payload of identity.deleted deliveries.
type identityDeletedPayload struct {
	ExternalID string `json:"externalId" validate:"required"`
}

type ignoredResponse struct {
	Message string `json:"message"`
	Event   string `json:"event"`
}
