package ports

import (
	"context"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// AuthService authenticates operator accounts for the local API.
type AuthService interface {
	Register(ctx context.Context, username, password, email, role string) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (string, *domain.Operator, error)
}
