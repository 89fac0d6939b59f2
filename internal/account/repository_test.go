package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockRepository(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return &PostgresRepository{db: mock}, mock
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func sampleAccount() Account {
	return Account{
		ID:           uuid.NewString(),
		Email:        "ana@example.com",
		PasswordHash: []byte("hash"),
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPostgresCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(anyArgs(12)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	if err := repo.Create(context.Background(), sampleAccount()); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestPostgresCreatePassesOtherErrors(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(anyArgs(12)...).
		WillReturnError(&pgconn.PgError{Code: "57P01"})

	err := repo.Create(context.Background(), sampleAccount())
	if err == nil || errors.Is(err, ErrExists) {
		t.Fatalf("expected raw database error, got %v", err)
	}
}

func TestPostgresCreateInserts(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), sampleAccount()); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestPostgresCreateRejectsBadID(t *testing.T) {
	repo, _ := newMockRepository(t)
	acct := sampleAccount()
	acct.ID = "not-a-uuid"
	if err := repo.Create(context.Background(), acct); err == nil {
		t.Fatalf("expected id parse error")
	}
}

func TestPostgresFindByEmailNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery("FROM accounts WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresUpdateLastLogin(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE accounts SET last_login").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := repo.UpdateLastLogin(context.Background(), id.String(), at); err != nil {
		t.Fatalf("update: %v", err)
	}

	mock.ExpectExec("UPDATE accounts SET last_login").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := repo.UpdateLastLogin(context.Background(), id.String(), at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}
}
