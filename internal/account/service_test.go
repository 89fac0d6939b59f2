package account

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestAccount(t *testing.T, svc *Service, email, password string) Account {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	acct, err := svc.Create(context.Background(), NewAccount{
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		Profile:      Profile{FirstName: "Ana", LastName: "Cruz"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return acct
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	acct := newTestAccount(t, svc, "  Ana.Cruz@Example.com ", "s3cret")
	if acct.Email != "ana.cruz@example.com" {
		t.Fatalf("expected normalised email, got %s", acct.Email)
	}
	if acct.Status != StatusActive {
		t.Fatalf("expected active status, got %s", acct.Status)
	}

	authed, err := svc.Authenticate(context.Background(), "ANA.CRUZ@example.com", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.Role != RoleUser {
		t.Fatalf("expected user role, got %s", authed.Role)
	}
	if authed.LastLogin == nil || !authed.LastLogin.Equal(fixed) {
		t.Fatalf("expected last login %s, got %v", fixed, authed.LastLogin)
	}
}

func TestAuthenticateCollapsesFailures(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	newTestAccount(t, svc, "ana@example.com", "s3cret")

	_, errWrong := svc.Authenticate(context.Background(), "ana@example.com", "nope")
	_, errMissing := svc.Authenticate(context.Background(), "ghost@example.com", "s3cret")

	if !errors.Is(errWrong, ErrInvalidCredentials) || !errors.Is(errMissing, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for both, got %v / %v", errWrong, errMissing)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	newTestAccount(t, svc, "ana@example.com", "s3cret")

	hash, _ := HashPassword("other")
	_, err := svc.Create(context.Background(), NewAccount{Email: "ANA@example.com", PasswordHash: hash, Role: RoleUser})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	newTestAccount(t, svc, "ana@example.com", "s3cret")

	ok, err := svc.Registered(context.Background(), "Ana@Example.com")
	if err != nil || !ok {
		t.Fatalf("expected registered, got %v %v", ok, err)
	}
	ok, err = svc.Registered(context.Background(), "other@example.com")
	if err != nil || ok {
		t.Fatalf("expected not registered, got %v %v", ok, err)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	hash, _ := HashPassword("pw")
	if _, err := svc.Create(context.Background(), NewAccount{Email: "a@b.c", PasswordHash: hash, Role: "root"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
