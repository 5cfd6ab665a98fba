package domain

import (
	"context"
	"time"
)

// CredentialRow holds the stored password hash for an email, as kept in the
// login table.
type CredentialRow struct {
	Email string
	Hash  string
}

// UserRow represents a user record returned from the database.
type UserRow struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Entries int       `json:"entries"`
	Joined  time.Time `json:"joined"`
}

// UserRepository defines the data-access contract for user and credential
// operations (the credential store). Implementations live in
// internal/core/repository (Core layer). The Logic layer depends on this
// interface only — never on SQL or pgx directly.
type UserRepository interface {
	// GetCredentials returns the stored credential row for the given email.
	// Returns (nil, nil) when no credential is found.
	GetCredentials(ctx context.Context, email string) (*CredentialRow, error)

	// GetByEmail returns the user matching the given email.
	// Returns (nil, nil) when no user is found.
	GetByEmail(ctx context.Context, email string) (*UserRow, error)

	// ExistsByEmail returns true when a user with the given email already exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts the credential and user rows in a single transaction and
	// returns the created user.
	Create(ctx context.Context, email, name, passwordHash string) (*UserRow, error)
}
