package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
	"github.com/identity-mirror/idsync/internal/pkg/metrics"
)

// SyncOptions tunes handler behaviour.
type SyncOptions struct {
	// RejectStale drops identity.updated events whose timestamp is not newer
	// than the stored lastSyncedAt. Off by default: the provider's delivery
	// order is normally good enough, and the guard costs one extra read.
	RejectStale bool
}

type syncService struct {
	repo ports.UserRepository
	opts SyncOptions
	log  zerolog.Logger
}

// NewSyncService returns the SyncService implementation backed by repo.
func NewSyncService(repo ports.UserRepository, opts SyncOptions, log zerolog.Logger) ports.SyncService {
	return &syncService{repo: repo, opts: opts, log: log}
}

// HandleCreated upserts the provider-sourced projection of the event. The
// bus delivers at least once, so a duplicate created event must converge on
// the same record instead of failing or duplicating it.
func (s *syncService) HandleCreated(ctx context.Context, in ports.IdentityEventInput) (*domain.SyncOutcome, error) {
	start := time.Now()

	user, err := s.repo.UpsertByExternalID(ctx, in.Profile(), time.Now().UTC())
	if err != nil {
		metrics.SyncErrorsTotal.WithLabelValues("upsert_failed").Inc()
		return nil, fmt.Errorf("handle created: %w", err)
	}

	s.observe(domain.ActionCreated, start)
	s.log.Info().
		Str("external_id", in.ExternalID).
		Str("record_id", user.ID).
		Msg("identity created event synced")

	return &domain.SyncOutcome{
		Success:    true,
		ExternalID: in.ExternalID,
		RecordID:   user.ID,
		Action:     domain.ActionCreated,
	}, nil
}

// HandleUpdated overwrites provider-sourced fields of an existing record.
// An update for an externalId the store never learned about signals an
// ordering or delivery-loss problem, so it fails instead of creating.
func (s *syncService) HandleUpdated(ctx context.Context, in ports.IdentityEventInput) (*domain.SyncOutcome, error) {
	start := time.Now()

	if s.opts.RejectStale && !in.Timestamp.IsZero() {
		existing, err := s.repo.FindByExternalID(ctx, in.ExternalID)
		if err != nil {
			metrics.SyncErrorsTotal.WithLabelValues(errReason(err)).Inc()
			return nil, fmt.Errorf("handle updated: %w", err)
		}
		if !existing.LastSyncedAt.Before(in.Timestamp) {
			metrics.SyncStaleSkippedTotal.Inc()
			s.log.Debug().
				Str("external_id", in.ExternalID).
				Time("event_ts", in.Timestamp).
				Time("last_synced_at", existing.LastSyncedAt).
				Msg("stale update event skipped")
			return &domain.SyncOutcome{
				Success:    true,
				ExternalID: in.ExternalID,
				RecordID:   existing.ID,
				Action:     domain.ActionUpdated,
			}, nil
		}
	}

	user, err := s.repo.UpdateByExternalID(ctx, in.Profile(), time.Now().UTC())
	if err != nil {
		metrics.SyncErrorsTotal.WithLabelValues(errReason(err)).Inc()
		return nil, fmt.Errorf("handle updated: %w", err)
	}

	s.observe(domain.ActionUpdated, start)
	s.log.Info().
		Str("external_id", in.ExternalID).
		Str("record_id", user.ID).
		Msg("identity updated event synced")

	return &domain.SyncOutcome{
		Success:    true,
		ExternalID: in.ExternalID,
		RecordID:   user.ID,
		Action:     domain.ActionUpdated,
	}, nil
}

// HandleDeleted removes the record if present. A delete for an absent record
// is an idempotent no-op reported with Found=false, never an error.
func (s *syncService) HandleDeleted(ctx context.Context, externalID string) (*domain.SyncOutcome, error) {
	start := time.Now()

	user, err := s.repo.DeleteByExternalID(ctx, externalID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		metrics.SyncErrorsTotal.WithLabelValues("delete_failed").Inc()
		return nil, fmt.Errorf("handle deleted: %w", err)
	}

	outcome := &domain.SyncOutcome{
		Success:    true,
		ExternalID: externalID,
		Action:     domain.ActionDeleted,
	}
	if user != nil {
		outcome.RecordID = user.ID
		outcome.Found = true
	}

	s.observe(domain.ActionDeleted, start)
	s.log.Info().
		Str("external_id", externalID).
		Bool("found", outcome.Found).
		Msg("identity deleted event synced")

	return outcome, nil
}

func (s *syncService) observe(action domain.SyncAction, start time.Time) {
	metrics.SyncProcessedTotal.WithLabelValues(string(action)).Inc()
	metrics.SyncDuration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
}

func errReason(err error) string {
	if errors.Is(err, domain.ErrUserNotFound) {
		return "user_not_found"
	}
	return "store_failed"
}
