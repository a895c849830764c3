package ports

import (
	"context"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// IdentityProvider is the read contract against the external system that
// owns the authoritative identity records.
type IdentityProvider interface {
	// GetByID fetches the current profile. Returns domain.ErrIdentityNotFound
	// for unknown IDs; transport faults are wrapped errors.
	GetByID(ctx context.Context, externalID string) (*domain.IdentityProfile, error)
}
