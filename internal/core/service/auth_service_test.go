package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/identity-mirror/idsync/internal/core/domain"
)

type stubOperatorRepo struct {
	byUsername map[string]*domain.Operator
	createErr  error
	touchErr   error
}

func newStubOperatorRepo() *stubOperatorRepo {
	return &stubOperatorRepo{byUsername: make(map[string]*domain.Operator)}
}

func (r *stubOperatorRepo) FindByUsername(_ context.Context, username string) (*domain.Operator, error) {
	op, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrOperatorNotFound
	}
	cp := *op
	return &cp, nil
}

func (r *stubOperatorRepo) Create(_ context.Context, op *domain.Operator) (*domain.Operator, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.byUsername[op.Username]; exists {
		return nil, domain.ErrOperatorExists
	}
	cp := *op
	cp.ID = "op_" + op.Username
	r.byUsername[op.Username] = &cp
	out := cp
	return &out, nil
}

func (r *stubOperatorRepo) TouchLastLogin(_ context.Context, username string, at time.Time) error {
	if r.touchErr != nil {
		return r.touchErr
	}
	op, ok := r.byUsername[username]
	if !ok {
		return domain.ErrOperatorNotFound
	}
	op.LastLoginAt = at
	return nil
}

const testSecret = "test-secret"

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()

	op, err := svc.Register(ctx, "console-admin", "s3cret", "ops@example.com", domain.OperatorRoleAdmin)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if op.PasswordHash == "s3cret" {
		t.Fatal("password stored in clear")
	}

	token, logged, err := svc.Login(ctx, "console-admin", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.Username != "console-admin" {
		t.Errorf("unexpected operator: %+v", logged)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["username"] != "console-admin" || claims["role"] != domain.OperatorRoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims["iss"] != tokenIssuer || claims["sub"] != op.ID {
		t.Errorf("unexpected issuer/subject claims: %+v", claims)
	}

	if logged.LastLoginAt.IsZero() {
		t.Error("login must record last-login time")
	}
	if stored := repo.byUsername["console-admin"]; stored.LastLoginAt.IsZero() {
		t.Error("last-login time not persisted")
	}
}

func TestAuthService_LoginTouchFailureNonFatal(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "console-admin", "s3cret", "", domain.OperatorRoleAdmin); err != nil {
		t.Fatalf("register: %v", err)
	}
	repo.touchErr = errors.New("mongo unavailable")

	token, _, err := svc.Login(ctx, "console-admin", "s3cret")
	if err != nil {
		t.Fatalf("a failed last-login touch must not fail login: %v", err)
	}
	if token == "" {
		t.Error("expected a token despite the failed touch")
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "console-admin", "s3cret", "", domain.OperatorRoleAdmin); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(ctx, "console-admin", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestAuthService_LoginUnknownOperator(t *testing.T) {
	svc := NewAuthService(newStubOperatorRepo(), testSecret, time.Hour)

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, domain.ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got: %v", err)
	}
}

func TestAuthService_RegisterRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(newStubOperatorRepo(), testSecret, time.Hour)

	_, err := svc.Register(context.Background(), "console-admin", "s3cret", "", "superuser")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestAuthService_RegisterDuplicateUsername(t *testing.T) {
	repo := newStubOperatorRepo()
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "console-admin", "s3cret", "", domain.OperatorRoleService); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "console-admin", "other", "", domain.OperatorRoleService)
	if !errors.Is(err, domain.ErrOperatorExists) {
		t.Fatalf("expected ErrOperatorExists, got: %v", err)
	}
}
