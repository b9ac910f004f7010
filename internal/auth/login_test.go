package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/config"
	"github.com/danielcastano/abasto-backend/pkg/db/models"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/abasto-backend/pkg/errors"
	"github.com/danielcastano/abasto-backend/pkg/security"
)

type stubUserStore struct {
	user      *models.User
	marked    []uuid.UUID
	markErr   error
	findError error
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.findError != nil {
		return nil, s.findError
	}
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserStore) MarkLogin(_ context.Context, id uuid.UUID, _ time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked = append(s.marked, id)
	return nil
}

type stubAuditRecorder struct {
	events []enums.AuditEventType
}

func (s *stubAuditRecorder) Record(_ context.Context, _ uuid.UUID, eventType enums.AuditEventType, _ string) {
	s.events = append(s.events, eventType)
}

func loginFixture(t *testing.T, password string) (*stubUserStore, *stubAuditRecorder, Service) {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store := &stubUserStore{user: &models.User{
		ID:           uuid.New(),
		Email:        "clerk@example.com",
		PasswordHash: hash,
		Role:         enums.UserRoleEmployee,
		IsActive:     true,
	}}
	recorder := &stubAuditRecorder{}

	svc, err := NewService(store, config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "abasto-test",
		ExpirationMinutes: 30,
	}, recorder, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return store, recorder, svc
}

func TestLoginIssuesToken(t *testing.T) {
	store, recorder, svc := loginFixture(t, "correct horse battery staple")

	resp, err := svc.Login(context.Background(), LoginInput{
		Email:    "Clerk@Example.com",
		Password: "correct horse battery staple",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", resp.TokenType)
	}
	if resp.User.ID != store.user.ID {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
	if len(store.marked) != 1 {
		t.Fatal("expected last login to be recorded")
	}
	if len(recorder.events) != 1 || recorder.events[0] != enums.AuditUserLogin {
		t.Fatalf("expected user_login audit event, got %v", recorder.events)
	}
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	_, recorder, svc := loginFixture(t, "right password")

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "clerk@example.com",
		Password: "wrong password",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(recorder.events) != 0 {
		t.Fatal("failed logins must not be audited as logins")
	}
}

func TestLoginUnknownEmailUnauthorized(t *testing.T) {
	_, _, svc := loginFixture(t, "password")

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: "password",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginInactiveUserUnauthorized(t *testing.T) {
	store, _, svc := loginFixture(t, "password")
	store.user.IsActive = false

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "clerk@example.com",
		Password: "password",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginMarkLoginFailureDoesNotBlock(t *testing.T) {
	store, _, svc := loginFixture(t, "password")
	store.markErr = gorm.ErrInvalidDB

	resp, err := svc.Login(context.Background(), LoginInput{
		Email:    "clerk@example.com",
		Password: "password",
	})
	if err != nil {
		t.Fatalf("login must succeed despite mark failure: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
}
