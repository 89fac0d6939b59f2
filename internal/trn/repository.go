package trn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists TRN records.
type Repository interface {
	FindByTRN(ctx context.Context, trn string) (Record, error)
	FindByRow(ctx context.Context, row int) (Record, error)
	Update(ctx context.Context, rec Record) error
}

// querier is the slice of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores records in the trn_records table.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectRecord = `SELECT row_number, trn, status, new_trn, date_of_recapture, updated_at FROM trn_records`

// FindByTRN fetches a record by its TRN.
func (r *PostgresRepository) FindByTRN(ctx context.Context, trn string) (Record, error) {
	return scanRecord(r.db.QueryRow(ctx, selectRecord+` WHERE trn = $1`, trn))
}

// FindByRow fetches a record by its row number.
func (r *PostgresRepository) FindByRow(ctx context.Context, row int) (Record, error) {
	return scanRecord(r.db.QueryRow(ctx, selectRecord+` WHERE row_number = $1`, row))
}

// Update writes the mutable columns of rec, matched on row and TRN.
func (r *PostgresRepository) Update(ctx context.Context, rec Record) error {
	var date *time.Time
	if rec.DateOfRecapture != "" {
		d, err := time.Parse(DateLayout, rec.DateOfRecapture)
		if err != nil {
			return ErrInvalidDate
		}
		date = &d
	}
	cmd, err := r.db.Exec(ctx, `UPDATE trn_records SET status = $1, new_trn = $2, date_of_recapture = $3, updated_at = $4
        WHERE row_number = $5 AND trn = $6`, rec.Status, rec.NewTRN, date, rec.UpdatedAt, rec.RowNumber, rec.TRN)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec       Record
		date      *time.Time
		updatedAt *time.Time
	)
	if err := row.Scan(&rec.RowNumber, &rec.TRN, &rec.Status, &rec.NewTRN, &date, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if date != nil {
		rec.DateOfRecapture = date.Format(DateLayout)
	}
	if updatedAt != nil {
		t := updatedAt.UTC()
		rec.UpdatedAt = &t
	}
	return rec, nil
}

type memoryRepository struct {
	mu    sync.RWMutex
	rows  map[int]Record
	byTRN map[string]int
}

// NewMemoryRepository builds an in-memory store. Seed records without a row
// number are numbered after their position, starting at 2 to mirror a sheet
// with a header row.
func NewMemoryRepository(seed ...Record) Repository {
	r := &memoryRepository{rows: make(map[int]Record), byTRN: make(map[string]int)}
	for i, rec := range seed {
		if rec.RowNumber == 0 {
			rec.RowNumber = i + 2
		}
		r.rows[rec.RowNumber] = rec
		r.byTRN[rec.TRN] = rec.RowNumber
	}
	return r
}

func (r *memoryRepository) FindByTRN(_ context.Context, trn string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.byTRN[trn]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r.rows[row], nil
}

func (r *memoryRepository) FindByRow(_ context.Context, row int) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.rows[row]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *memoryRepository) Update(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[rec.RowNumber]
	if !ok || existing.TRN != rec.TRN {
		return ErrNotFound
	}
	r.rows[rec.RowNumber] = rec
	return nil
}
