package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
	"github.com/identity-mirror/idsync/internal/pkg/metrics"
)

const defaultBulkWorkers = 4

type reconcileService struct {
	provider ports.IdentityProvider
	bus      ports.EventBus
	workers  int
	log      zerolog.Logger
}

// NewReconcileService returns a ReconcileService that fans bulk work out to
// numWorkers goroutines. If numWorkers <= 0, defaultBulkWorkers is used.
func NewReconcileService(provider ports.IdentityProvider, bus ports.EventBus, numWorkers int, log zerolog.Logger) ports.ReconcileService {
	if numWorkers <= 0 {
		numWorkers = defaultBulkWorkers
	}
	return &reconcileService{provider: provider, bus: bus, workers: numWorkers, log: log}
}

// SyncUser fetches one identity from the provider and re-emits it as an
// identity.updated event. The store write happens downstream in the updated
// handler; this path never writes directly.
func (s *reconcileService) SyncUser(ctx context.Context, externalID string) (*domain.IdentityProfile, error) {
	profile, err := s.provider.GetByID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("sync user %s: %w", externalID, err)
	}

	if err := s.bus.PublishUserUpdated(ctx, *profile); err != nil {
		return nil, fmt.Errorf("sync user %s: publish: %w", externalID, err)
	}

	s.log.Info().Str("external_id", externalID).Msg("reconciliation event published")
	return profile, nil
}

// BulkSync resyncs every ID independently. Outcomes are collected into an
// index-addressed slot array so the result order matches the input order no
// matter how the workers interleave. A failing ID is recorded and skipped,
// never fatal; only an empty input fails the call as a whole.
func (s *reconcileService) BulkSync(ctx context.Context, externalIDs []string) ([]domain.BulkSyncOutcome, error) {
	if len(externalIDs) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	type job struct {
		index int
		id    string
	}

	outcomes := make([]domain.BulkSyncOutcome, len(externalIDs))
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes[j.index] = s.syncOne(ctx, j.id)
			}
		}()
	}

	for i, id := range externalIDs {
		jobs <- job{index: i, id: id}
	}
	close(jobs)
	wg.Wait()

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	s.log.Info().
		Int("total", len(externalIDs)).
		Int("succeeded", succeeded).
		Int("failed", len(externalIDs)-succeeded).
		Msg("bulk sync completed")

	return outcomes, nil
}

func (s *reconcileService) syncOne(ctx context.Context, externalID string) domain.BulkSyncOutcome {
	if _, err := s.SyncUser(ctx, externalID); err != nil {
		metrics.BulkItemsTotal.WithLabelValues("failure").Inc()
		s.log.Warn().Err(err).Str("external_id", externalID).Msg("bulk sync item failed")
		return domain.BulkSyncOutcome{ExternalID: externalID, Success: false, Error: err.Error()}
	}
	metrics.BulkItemsTotal.WithLabelValues("success").Inc()
	return domain.BulkSyncOutcome{ExternalID: externalID, Success: true}
}
