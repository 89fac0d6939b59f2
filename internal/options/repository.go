package options

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads dropdown lists.
type Repository interface {
	List(ctx context.Context, kind string) ([]string, error)
}

// querier is the slice of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads lists from the dropdown_options table.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository builds a Postgres-backed options repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns values of kind ordered by sort then value.
func (r *PostgresRepository) List(ctx context.Context, kind string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT value FROM dropdown_options WHERE kind = $1 ORDER BY sort, value`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type memoryRepository struct {
	lists map[string][]string
}

// NewMemoryRepository builds an options store seeded with lists keyed by kind.
func NewMemoryRepository(seed map[string][]string) Repository {
	lists := make(map[string][]string, len(seed))
	for kind, values := range seed {
		lists[kind] = append([]string(nil), values...)
	}
	return &memoryRepository{lists: lists}
}

func (r *memoryRepository) List(_ context.Context, kind string) ([]string, error) {
	return append([]string(nil), r.lists[kind]...), nil
}
