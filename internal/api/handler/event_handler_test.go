package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/identity-mirror/idsync/internal/core/domain"
	"github.com/identity-mirror/idsync/internal/core/ports"
)

type stubSyncService struct {
	created []ports.IdentityEventInput
	updated []ports.IdentityEventInput
	deleted []string

	createdErr error
	updatedErr error
}

func (s *stubSyncService) HandleCreated(_ context.Context, in ports.IdentityEventInput) (*domain.SyncOutcome, error) {
	if s.createdErr != nil {
		return nil, s.createdErr
	}
	s.created = append(s.created, in)
	return &domain.SyncOutcome{Success: true, ExternalID: in.ExternalID, Action: domain.ActionCreated}, nil
}

func (s *stubSyncService) HandleUpdated(_ context.Context, in ports.IdentityEventInput) (*domain.SyncOutcome, error) {
	if s.updatedErr != nil {
		return nil, s.updatedErr
	}
	s.updated = append(s.updated, in)
	return &domain.SyncOutcome{Success: true, ExternalID: in.ExternalID, Action: domain.ActionUpdated}, nil
}

func (s *stubSyncService) HandleDeleted(_ context.Context, externalID string) (*domain.SyncOutcome, error) {
	s.deleted = append(s.deleted, externalID)
	return &domain.SyncOutcome{Success: true, ExternalID: externalID, Action: domain.ActionDeleted, Found: true}, nil
}

func deliver(t *testing.T, svc ports.SyncService, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewEventHandler(svc)
	return rec, h.Receive(c)
}

func TestEventHandler_RoutesCreated(t *testing.T) {
	svc := &stubSyncService{}
	rec, err := deliver(t, svc, `{
		"name": "identity.created",
		"data": {"externalId": "ext_1", "firstName": "Ada", "email": "ada@example.com"}
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(svc.created) != 1 || svc.created[0].ExternalID != "ext_1" {
		t.Errorf("created handler not invoked correctly: %+v", svc.created)
	}
}

func TestEventHandler_RoutesUpdatedAndDeleted(t *testing.T) {
	svc := &stubSyncService{}

	if _, err := deliver(t, svc, `{"name": "identity.updated", "data": {"externalId": "ext_2"}}`); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if _, err := deliver(t, svc, `{"name": "identity.deleted", "data": {"externalId": "ext_3"}}`); err != nil {
		t.Fatalf("deleted: %v", err)
	}

	if len(svc.updated) != 1 || svc.updated[0].ExternalID != "ext_2" {
		t.Errorf("updated handler not invoked: %+v", svc.updated)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "ext_3" {
		t.Errorf("deleted handler not invoked: %+v", svc.deleted)
	}
}

func TestEventHandler_UnknownEventIsNoOp(t *testing.T) {
	svc := &stubSyncService{}
	rec, err := deliver(t, svc, `{"name": "billing.invoice.paid", "data": {"amount": 100}}`)
	if err != nil {
		t.Fatalf("unknown event must not error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown event, got %d", rec.Code)
	}
	if len(svc.created)+len(svc.updated)+len(svc.deleted) != 0 {
		t.Error("unknown event must not invoke any handler")
	}
}

func TestEventHandler_MissingExternalIDRejected(t *testing.T) {
	svc := &stubSyncService{}
	_, err := deliver(t, svc, `{"name": "identity.created", "data": {"firstName": "Ada"}}`)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got: %v", err)
	}
	if len(svc.created) != 0 {
		t.Error("invalid payload must not reach the handler")
	}
}

func TestEventHandler_HandlerFailurePropagates(t *testing.T) {
	svc := &stubSyncService{updatedErr: domain.ErrUserNotFound}
	_, err := deliver(t, svc, `{"name": "identity.updated", "data": {"externalId": "ext_x"}}`)
	if err == nil {
		t.Fatal("expected handler failure to propagate for bus retry")
	}
}
