package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type userService struct {
	repo ports.UserRepository
	bus  ports.EventBus
	log  zerolog.Logger
}

// NewUserService returns the UserService implementation. Local profile edits
// emit a user.activity event so downstream consumers can observe them.
func NewUserService(repo ports.UserRepository, bus ports.EventBus, log zerolog.Logger) ports.UserService {
	return &userService{repo: repo, bus: bus, log: log}
}

func (s *userService) GetByExternalID(ctx context.Context, externalID string) (*domain.SyncedUser, error) {
	return s.repo.FindByExternalID(ctx, externalID)
}

func (s *userService) List(ctx context.Context, filter ports.ListUsersFilter) (*ports.ListUsersResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *userService) ChangeRole(ctx context.Context, externalID string, role domain.Role) (*domain.SyncedUser, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("change role: %w: %q", domain.ErrInvalidRole, role)
	}

	user, err := s.repo.UpdateRole(ctx, externalID, role)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	s.publishActivity(ctx, externalID, "role.changed")
	s.log.Info().Str("external_id", externalID).Str("role", string(role)).Msg("user role changed")
	return user, nil
}

func (s *userService) ChangeAddress(ctx context.Context, externalID string, address domain.Address) (*domain.SyncedUser, error) {
	user, err := s.repo.UpdateAddress(ctx, externalID, address)
	if err != nil {
		return nil, fmt.Errorf("change address: %w", err)
	}

	s.publishActivity(ctx, externalID, "address.changed")
	s.log.Info().Str("external_id", externalID).Msg("user address changed")
	return user, nil
}

// publishActivity is best-effort: a bus outage must not fail a local edit
// that already committed.
func (s *userService) publishActivity(ctx context.Context, externalID, activity string) {
	if err := s.bus.PublishUserActivity(ctx, externalID, activity, time.Now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("external_id", externalID).Str("activity", activity).Msg("failed to publish activity event")
	}
}
