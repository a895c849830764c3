package ports

import (
	"context"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// ListUsersResult is returned by UserService.List.
type ListUsersResult struct {
	Items      []*domain.SyncedUser
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService exposes read access and local profile edits on synced users.
// Role and address are the only fields this system is allowed to mutate;
// everything else belongs to the provider sync.
type UserService interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.SyncedUser, error)
	List(ctx context.Context, filter ListUsersFilter) (*ListUsersResult, error)
	ChangeRole(ctx context.Context, externalID string, role domain.Role) (*domain.SyncedUser, error)
	ChangeAddress(ctx context.Context, externalID string, address domain.Address) (*domain.SyncedUser, error)
}
