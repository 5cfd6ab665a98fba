package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
)

// PgxUserRepository implements domain.UserRepository using pgxpool.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{pool: pool}
}

// GetCredentials returns the stored credential row for the given email.
// Returns (nil, nil) when no credential is found.
func (r *PgxUserRepository) GetCredentials(ctx context.Context, email string) (*domain.CredentialRow, error) {
	query := `SELECT email, hash FROM login WHERE email = $1`

	var row domain.CredentialRow
	err := r.pool.QueryRow(ctx, query, email).Scan(&row.Email, &row.Hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// GetByEmail returns the user matching the given email.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRow, error) {
	query := `SELECT id, name, email, entries, joined FROM users WHERE email = $1`

	var row domain.UserRow
	err := r.pool.QueryRow(ctx, query, email).Scan(
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

// ExistsByEmail returns true when a user with the given email already exists.
func (r *PgxUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Create inserts the credential and user rows in a single transaction and
// returns the created user.
func (r *PgxUserRepository) Create(ctx context.Context, email, name, passwordHash string) (*domain.UserRow, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertLogin := `INSERT INTO login (email, hash) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, insertLogin, email, passwordHash); err != nil {
		return nil, fmt.Errorf("insert login: %w", err)
	}

	insertUser := `
		INSERT INTO users (email, name, joined)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		RETURNING id, name, email, entries, joined
	`

	var row domain.UserRow
	err = tx.QueryRow(ctx, insertUser, email, name).Scan(
		&row.ID, &row.Name, &row.Email, &row.Entries, &row.Joined,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &row, nil
}
