package ports

import (
	"context"
	"time"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// EventBus publishes named events to the external delivery channel.
// A nil return means the bus accepted the event for delivery, not that any
// consumer has processed it. The bus owns delivery and retry guarantees;
// publishers never retry and hold no local state.
type EventBus interface {
	PublishUserCreated(ctx context.Context, profile domain.IdentityProfile) error
	PublishUserUpdated(ctx context.Context, profile domain.IdentityProfile) error
	PublishUserDeleted(ctx context.Context, externalID string) error

	PublishUserActivity(ctx context.Context, externalID, activity string, ts time.Time) error
	PublishBulkSyncRequested(ctx context.Context, externalIDs []string, requestedAt time.Time) error

	// PublishCustom sends a caller-named event with an arbitrary payload.
	PublishCustom(ctx context.Context, name string, payload any) error
}
