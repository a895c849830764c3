package ports

import (
	"context"
	"time"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// ListUsersFilter carries query parameters for listing synced users.
type ListUsersFilter struct {
	Role   string // optional: filter by role
	Search string // optional: partial match on username or email
	Page   int    // 1-based
	Limit  int    // max rows per page (capped at 100 by service)
}

// UserRepository defines persistence operations for synced identity records.
// The store must guarantee per-externalId atomicity of upsert/delete; the
// sync pipeline relies on it instead of taking its own locks.
type UserRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*domain.SyncedUser, error)

	// UpsertByExternalID inserts or overwrites the provider-sourced fields of
	// the record keyed by profile.ExternalID, refreshing lastSyncedAt.
	// Locally-authoritative fields (role, address) are never touched.
	UpsertByExternalID(ctx context.Context, profile domain.IdentityProfile, syncedAt time.Time) (*domain.SyncedUser, error)

	// UpdateByExternalID overwrites provider-sourced fields of an existing
	// record. Returns domain.ErrUserNotFound when no record exists; it never
	// creates one.
	UpdateByExternalID(ctx context.Context, profile domain.IdentityProfile, syncedAt time.Time) (*domain.SyncedUser, error)

	// DeleteByExternalID removes the record and returns it. Returns
	// domain.ErrUserNotFound when no record exists.
	DeleteByExternalID(ctx context.Context, externalID string) (*domain.SyncedUser, error)

	// UpdateRole and UpdateAddress mutate the locally-authoritative fields.
	// Both return domain.ErrUserNotFound for unknown externalIDs.
	UpdateRole(ctx context.Context, externalID string, role domain.Role) (*domain.SyncedUser, error)
	UpdateAddress(ctx context.Context, externalID string, address domain.Address) (*domain.SyncedUser, error)

	// List returns a page of synced users matching filter and the total count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.SyncedUser, int64, error)
}
