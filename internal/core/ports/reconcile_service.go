package ports

import (
	"context"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// ReconcileService drives on-demand re-fetch-and-resync of identities. It
// never writes to the store itself: every resync flows through the bus and
// lands in the same updated handler the provider's own events use.
type ReconcileService interface {
	// SyncUser fetches one identity from the provider and publishes an
	// identity.updated event for it.
	SyncUser(ctx context.Context, externalID string) (*domain.IdentityProfile, error)

	// BulkSync processes every ID independently and returns one outcome per
	// input ID, in input order. Individual fetch failures are recorded and
	// never abort the batch; only a structural input fault (empty list)
	// fails the whole call, before any network I/O.
	BulkSync(ctx context.Context, externalIDs []string) ([]domain.BulkSyncOutcome, error)
}
