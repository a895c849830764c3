package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
)

type recordingSyncService struct {
	mu      sync.Mutex
	created []string
	updated []string
	deleted []string
	fail    bool
}

func (s *recordingSyncService) HandleCreated(_ context.Context, in ports.IdentityEventInput) (*domain.SyncOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, domain.ErrUserNotFound
	}
	s.created = append(s.created, in.ExternalID)
	return &domain.SyncOutcome{Success: true, ExternalID: in.ExternalID, Action: domain.ActionCreated}, nil
}

func (s *recordingSyncService) HandleUpdated(_ context.Context, in ports.IdentityEventInput) (*domain.SyncOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, domain.ErrUserNotFound
	}
	s.updated = append(s.updated, in.ExternalID)
	return &domain.SyncOutcome{Success: true, ExternalID: in.ExternalID, Action: domain.ActionUpdated}, nil
}

func (s *recordingSyncService) HandleDeleted(_ context.Context, externalID string) (*domain.SyncOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, externalID)
	return &domain.SyncOutcome{Success: true, ExternalID: externalID, Action: domain.ActionDeleted}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatcher_RoutesByEventName(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &recordingSyncService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	d.Start(ctx)

	acked := make(chan struct{}, 3)
	ack := func() { acked <- struct{}{} }

	d.Enqueue(Delivery{Name: domain.EventIdentityCreated, Input: ports.IdentityEventInput{ExternalID: "a"}, Ack: ack})
	d.Enqueue(Delivery{Name: domain.EventIdentityUpdated, Input: ports.IdentityEventInput{ExternalID: "a"}, Ack: ack})
	d.Enqueue(Delivery{Name: domain.EventIdentityDeleted, Input: ports.IdentityEventInput{ExternalID: "b"}, Ack: ack})

	waitFor(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.created) == 1 && len(svc.updated) == 1 && len(svc.deleted) == 1
	})

	for i := 0; i < 3; i++ {
		select {
		case <-acked:
		case <-time.After(2 * time.Second):
			t.Fatal("delivery not acked")
		}
	}
}

func TestDispatcher_SameKeyStaysOrdered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &recordingSyncService{}
	d := NewDispatcher(8, svc, zerolog.Nop())
	d.Start(ctx)

	// All deliveries for one externalId land on one worker, so arrival order
	// is processing order.
	for i := 0; i < 20; i++ {
		d.Enqueue(Delivery{Name: domain.EventIdentityUpdated, Input: ports.IdentityEventInput{ExternalID: "same-key"}})
	}

	waitFor(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.updated) == 20
	})
}

func TestDispatcher_UnknownEventSkippedAndAcked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &recordingSyncService{}
	d := NewDispatcher(2, svc, zerolog.Nop())
	d.Start(ctx)

	acked := make(chan struct{}, 1)
	d.Enqueue(Delivery{
		Name:  domain.EventName("billing.invoice.paid"),
		Input: ports.IdentityEventInput{ExternalID: "x"},
		Ack:   func() { acked <- struct{}{} },
	})

	select {
	case <-acked:
	case <-time.After(2 * time.Second):
		t.Fatal("unknown delivery must be acked as a no-op")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.created)+len(svc.updated)+len(svc.deleted) != 0 {
		t.Error("unknown event must not reach any handler")
	}
}

func TestDispatcher_FailedDeliveryNotAcked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &recordingSyncService{fail: true}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start(ctx)

	acked := make(chan struct{}, 1)
	d.Enqueue(Delivery{
		Name:  domain.EventIdentityCreated,
		Input: ports.IdentityEventInput{ExternalID: "x"},
		Ack:   func() { acked <- struct{}{} },
	})

	select {
	case <-acked:
		t.Fatal("failed delivery must stay unacked for redelivery")
	case <-time.After(200 * time.Millisecond):
	}
}
