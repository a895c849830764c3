package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubProvider struct {
	mu      sync.Mutex
	fail    map[string]error
	fetched []string
	delay   time.Duration
}

func newStubProvider() *stubProvider {
	return &stubProvider{fail: make(map[string]error)}
}

func (p *stubProvider) GetByID(_ context.Context, externalID string) (*domain.IdentityProfile, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fail[externalID]; ok {
		return nil, err
	}
	p.fetched = append(p.fetched, externalID)
	return &domain.IdentityProfile{ExternalID: externalID, Username: "u_" + externalID}, nil
}

type stubBus struct {
	mu         sync.Mutex
	publishErr error
	updated    []domain.IdentityProfile
	activities []domain.UserActivity
	custom     []string
}

func (b *stubBus) PublishUserCreated(_ context.Context, p domain.IdentityProfile) error {
	return b.record("identity.created", p)
}

func (b *stubBus) PublishUserUpdated(_ context.Context, p domain.IdentityProfile) error {
	return b.record("identity.updated", p)
}

func (b *stubBus) PublishUserDeleted(_ context.Context, externalID string) error {
	return b.record("identity.deleted", domain.IdentityProfile{ExternalID: externalID})
}

func (b *stubBus) PublishUserActivity(_ context.Context, externalID, activity string, ts time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.activities = append(b.activities, domain.UserActivity{ExternalID: externalID, Activity: activity, Timestamp: ts})
	return nil
}

func (b *stubBus) PublishBulkSyncRequested(_ context.Context, ids []string, _ time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.custom = append(b.custom, "users.bulk-sync")
	return b.publishErr
}

func (b *stubBus) PublishCustom(_ context.Context, name string, _ any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.custom = append(b.custom, name)
	return b.publishErr
}

func (b *stubBus) record(name string, p domain.IdentityProfile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	if name == "identity.updated" {
		b.updated = append(b.updated, p)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReconcileService_SyncUser_PublishesUpdate(t *testing.T) {
	provider := newStubProvider()
	bus := &stubBus{}
	svc := NewReconcileService(provider, bus, 1, zerolog.Nop())

	profile, err := svc.SyncUser(context.Background(), "ext_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ExternalID != "ext_1" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if len(bus.updated) != 1 || bus.updated[0].ExternalID != "ext_1" {
		t.Errorf("expected one identity.updated published, got %+v", bus.updated)
	}
}

func TestReconcileService_SyncUser_FetchFailure(t *testing.T) {
	provider := newStubProvider()
	provider.fail["ext_1"] = domain.ErrIdentityNotFound
	bus := &stubBus{}
	svc := NewReconcileService(provider, bus, 1, zerolog.Nop())

	_, err := svc.SyncUser(context.Background(), "ext_1")
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got: %v", err)
	}
	if len(bus.updated) != 0 {
		t.Error("no event must be published when the fetch fails")
	}
}

func TestReconcileService_BulkSync_EmptyInput(t *testing.T) {
	provider := newStubProvider()
	bus := &stubBus{}
	svc := NewReconcileService(provider, bus, 2, zerolog.Nop())

	if _, err := svc.BulkSync(context.Background(), nil); !errors.Is(err, domain.ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got: %v", err)
	}
	if len(provider.fetched) != 0 {
		t.Error("structural fault must fail before any provider call")
	}
}

func TestReconcileService_BulkSync_IsolatesFailures(t *testing.T) {
	provider := newStubProvider()
	provider.fail["B"] = errors.New("provider timeout")
	bus := &stubBus{}
	svc := NewReconcileService(provider, bus, 1, zerolog.Nop())

	outcomes, err := svc.BulkSync(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("an item failure must not fail the batch: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	if !outcomes[0].Success || outcomes[0].ExternalID != "A" {
		t.Errorf("outcome[0]: %+v", outcomes[0])
	}
	if outcomes[1].Success || outcomes[1].ExternalID != "B" || outcomes[1].Error == "" {
		t.Errorf("outcome[1]: %+v", outcomes[1])
	}
	if !outcomes[2].Success || outcomes[2].ExternalID != "C" {
		t.Errorf("outcome[2]: %+v", outcomes[2])
	}
}

func TestReconcileService_BulkSync_OrderPreservedUnderConcurrency(t *testing.T) {
	provider := newStubProvider()
	provider.delay = time.Millisecond
	bus := &stubBus{}
	svc := NewReconcileService(provider, bus, 8, zerolog.Nop())

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = "ext_" + string(rune('a'+i%26)) + string(rune('0'+i/26))
	}

	outcomes, err := svc.BulkSync(context.Background(), ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, o := range outcomes {
		if o.ExternalID != ids[i] {
			t.Fatalf("outcome %d out of order: got %s want %s", i, o.ExternalID, ids[i])
		}
	}
}

func TestReconcileService_BulkSync_DuplicatesProcessedIndependently(t *testing.T) {
	provider := newStubProvider()
	bus := &stubBus{}
	svc := NewReconcileService(provider, bus, 2, zerolog.Nop())

	outcomes, err := svc.BulkSync(context.Background(), []string{"A", "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 2 || !outcomes[0].Success || !outcomes[1].Success {
		t.Errorf("expected two independent successes, got %+v", outcomes)
	}
	if len(bus.updated) != 2 {
		t.Errorf("expected two published events, got %d", len(bus.updated))
	}
}
