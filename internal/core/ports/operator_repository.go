package ports

import (
	"context"
	"time"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// OperatorRepository defines persistence for local operator accounts.
type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Operator, error)
	Create(ctx context.Context, op *domain.Operator) (*domain.Operator, error)

	// TouchLastLogin records a successful login. Returns
	// domain.ErrOperatorNotFound for unknown usernames.
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
}
