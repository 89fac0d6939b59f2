// Package otp issues and verifies short-lived email verification codes that
// carry a pending registration until the code is confirmed.
//
// Expiry is lazy and two-staged. Past its deadline an entry turns stale: its
// code always fails with ErrExpired but its pending registration survives so
// a resend can revive it. One further TTL later the entry is forgotten and
// lookups report ErrNotFound. Nothing is evicted actively except by the
// optional memory sweep.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/trn-portal/trn_portal/internal/account"
)

// CodeLength is the number of ASCII digits in every issued code.
const CodeLength = 6

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 300 * time.Second

var (
	ErrNotFound        = errors.New("otp: no pending verification")
	ErrExpired         = errors.New("otp: code expired")
	ErrMismatch        = errors.New("otp: code mismatch")
	ErrCooldown        = errors.New("otp: resend cooldown active")
	ErrTooManyAttempts = errors.New("otp: too many attempts")
	ErrConflict        = errors.New("otp: concurrent update, retry")
)

// Pending is the registration held back until its email is verified.
type Pending struct {
	Email        string          `json:"email"`
	PasswordHash []byte          `json:"password_hash"`
	Role         string          `json:"role"`
	Profile      account.Profile `json:"profile"`
}

// Registry tracks at most one live code per email.
type Registry interface {
	// Issue stores a fresh code for email, replacing any earlier entry. A
	// live entry keeps its resend cooldown and attempt count.
	Issue(ctx context.Context, email string, pending Pending) (string, error)
	// Reissue replaces the code of an existing entry and restarts its timers.
	Reissue(ctx context.Context, email string) (string, error)
	// Verify consumes the entry when code matches and has not expired.
	Verify(ctx context.Context, email, code string) (Pending, error)
	// Cancel drops any entry for email. Idempotent.
	Cancel(ctx context.Context, email string) error
}

// Options tune a registry. Zero values fall back to defaults; a zero
// ResendCooldown or MaxAttempts disables that limit.
type Options struct {
	TTL            time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	Now            func() time.Time
	Generate       func() (string, error)
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Generate == nil {
		o.Generate = GenerateCode
	}
	return o
}

// GenerateCode returns a uniformly random zero-padded 6-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

type entry struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
	Pending   Pending   `json:"pending"`
}

func (o Options) newEntry(pending Pending) (entry, error) {
	code, err := o.Generate()
	if err != nil {
		return entry{}, err
	}
	now := o.Now().UTC()
	return entry{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(o.TTL),
		Pending:   pending,
	}, nil
}

// replace builds the entry that supersedes prev for a new registration. prev
// is nil when no entry exists.
func (o Options) replace(prev *entry, pending Pending) (entry, error) {
	if prev == nil || o.forgotten(*prev) {
		return o.newEntry(pending)
	}
	next := *prev
	next.Pending = pending
	if err := o.refresh(&next); err != nil {
		return entry{}, err
	}
	return next, nil
}

// refresh rotates the code of e in place, honouring the resend cooldown.
// Attempts carry over so the limit counts guesses per email, not per code.
func (o Options) refresh(e *entry) error {
	now := o.Now().UTC()
	if o.ResendCooldown > 0 && now.Before(e.IssuedAt.Add(o.ResendCooldown)) {
		return ErrCooldown
	}
	code, err := o.Generate()
	if err != nil {
		return err
	}
	e.Code = code
	e.IssuedAt = now
	e.ExpiresAt = now.Add(o.TTL)
	return nil
}

// judge compares code against e. keep reports whether the entry survives.
// A stale entry is kept so Reissue can still find it.
func (o Options) judge(e *entry, code string) (keep bool, err error) {
	if o.Now().After(e.ExpiresAt) {
		return true, ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(e.Code)) != 1 {
		e.Attempts++
		if o.MaxAttempts > 0 && e.Attempts >= o.MaxAttempts {
			return false, ErrTooManyAttempts
		}
		return true, ErrMismatch
	}
	return false, nil
}

// forgotten reports whether e is past its retention window of one TTL
// beyond expiry.
func (o Options) forgotten(e entry) bool {
	return o.Now().After(e.ExpiresAt.Add(o.TTL))
}

func key(email string) string {
	return account.NormalizeEmail(email)
}
