package ports

import (
	"context"
	"time"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// IdentityEventInput is the DTO passed from the inbound boundary to the sync
// handlers for identity.created and identity.updated events.
type IdentityEventInput struct {
	ExternalID string
	FirstName  string
	LastName   string
	Username   string
	Email      string
	ImageURL   string
	Timestamp  time.Time
}

// Profile returns the provider-sourced projection of the event.
func (in IdentityEventInput) Profile() domain.IdentityProfile {
	return domain.IdentityProfile{
		ExternalID: in.ExternalID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Username:   in.Username,
		Email:      in.Email,
		ImageURL:   in.ImageURL,
	}
}

// SyncService holds the three idempotent lifecycle handlers. Each performs
// exactly one store mutation and returns a structured outcome, so that
// at-least-once redelivery of the same event is safe to replay in full.
type SyncService interface {
	// HandleCreated upserts the record. Duplicate deliveries converge on the
	// same stored state.
	HandleCreated(ctx context.Context, in IdentityEventInput) (*domain.SyncOutcome, error)

	// HandleUpdated overwrites provider-sourced fields of an existing record.
	// An unknown externalId is a consistency fault and fails with
	// domain.ErrUserNotFound; it is never downgraded to a create.
	HandleUpdated(ctx context.Context, in IdentityEventInput) (*domain.SyncOutcome, error)

	// HandleDeleted removes the record if present. Absence is a no-op
	// success reported with Found=false.
	HandleDeleted(ctx context.Context, externalID string) (*domain.SyncOutcome, error)
}
