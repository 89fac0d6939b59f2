package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no account matches the lookup key.
	ErrNotFound = errors.New("account not found")
	// ErrExists is returned when the email is already registered.
	ErrExists = errors.New("account exists")
)

// Repository persists accounts. Emails passed in are already normalised.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	FindByEmail(ctx context.Context, email string) (Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// querier is the slice of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	id, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	p := acct.Profile
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, email, password_hash, role, status, first_name, middle_name,
        last_name, phone_number, position, province, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, acct.Email, acct.PasswordHash, acct.Role, acct.Status, p.FirstName, p.MiddleName,
		p.LastName, p.PhoneNumber, p.Position, p.Province, acct.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrExists
	}
	return err
}

// FindByEmail fetches an account by its normalised email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, email, password_hash, role, status, first_name, middle_name, last_name,
        phone_number, position, province, created_at, last_login FROM accounts WHERE email = $1`, email)
	var (
		id        uuid.UUID
		createdAt time.Time
		lastLogin *time.Time
		acct      Account
	)
	p := &acct.Profile
	if err := row.Scan(&id, &acct.Email, &acct.PasswordHash, &acct.Role, &acct.Status, &p.FirstName, &p.MiddleName,
		&p.LastName, &p.PhoneNumber, &p.Position, &p.Province, &createdAt, &lastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.ID = id.String()
	acct.CreatedAt = createdAt.UTC()
	if lastLogin != nil {
		t := lastLogin.UTC()
		acct.LastLogin = &t
	}
	return acct, nil
}

// UpdateLastLogin stamps the account's most recent successful login.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET last_login = $1 WHERE id = $2`, at.UTC(), accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
