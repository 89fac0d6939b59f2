package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so
// callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service manages account lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new account service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewAccount carries the data promoted from a verified registration.
type NewAccount struct {
	Email        string
	PasswordHash []byte
	Role         string
	Profile      Profile
}

// HashPassword hashes plaintext with bcrypt.
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password is empty")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Registered reports whether email already belongs to an account.
func (s *Service) Registered(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Create stores a new active account.
func (s *Service) Create(ctx context.Context, in NewAccount) (Account, error) {
	if !ValidRole(in.Role) {
		return Account{}, fmt.Errorf("unknown role %q", in.Role)
	}
	if len(in.PasswordHash) == 0 {
		return Account{}, errors.New("password hash is empty")
	}

	acct := Account{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Status:       StatusActive,
		Profile:      in.Profile,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Authenticate verifies credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	acct, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}

	at := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, acct.ID, at); err != nil {
		return Account{}, fmt.Errorf("update last login: %w", err)
	}
	acct.LastLogin = &at

	return acct, nil
}
