package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
)

// PgxProfileRepository implements domain.ProfileRepository using pgxpool.
type PgxProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new PgxProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *PgxProfileRepository {
	return &PgxProfileRepository{pool: pool}
}

// GetByID returns the user with the given id.
// Returns (nil, nil) when no user is found.
func (r *PgxProfileRepository) GetByID(ctx context.Context, id int) (*domain.UserRow, error) {
	query := `SELECT id, name, email, entries, joined FROM users WHERE id = $1`

	var row domain.UserRow
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&row.ID, &row.Name, &row.Email, &row.Entries, &row.Joined,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// Update applies the given profile fields to the user.
// Returns false when the user does not exist.
func (r *PgxProfileRepository) Update(ctx context.Context, id int, upd domain.ProfileUpdate) (bool, error) {
	query := `UPDATE users SET name = $2, age = $3, pet = $4 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, upd.Name, upd.Age, upd.Pet)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// IncrementEntries bumps the user's detection counter by one and returns
// the new value. Returns ok=false when the user does not exist.
func (r *PgxProfileRepository) IncrementEntries(ctx context.Context, id int) (int, bool, error) {
	query := `UPDATE users SET entries = entries + 1 WHERE id = $1 RETURNING entries`

	var entries int
	err := r.pool.QueryRow(ctx, query, id).Scan(&entries)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}

	return entries, true, nil
}
