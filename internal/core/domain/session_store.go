package domain

import (
	"context"
	"errors"
	"time"
)

// Store-level sentinel errors. Implementations wrap transport failures with
// ErrStoreUnavailable so callers can tell "entry absent" from "store down".
var (
	// ErrSessionNotFound indicates the token has no live entry in the store.
	ErrSessionNotFound = errors.New("session entry not found")

	// ErrStoreUnavailable indicates the store could not be reached.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// SessionStore defines the contract for the token → user-id cache backing
// live sessions. Every entry carries a TTL; SetIfAbsent is the only write
// path for session entries and must be atomic against concurrent callers.
type SessionStore interface {
	// SetIfAbsent creates the entry only when the token is not already
	// present. Returns false (and writes nothing) on an existing token.
	SetIfAbsent(ctx context.Context, token, userID string, ttl time.Duration) (bool, error)

	// Get returns the user id bound to the token.
	// Returns ErrSessionNotFound when the entry is absent or expired.
	Get(ctx context.Context, token string) (string, error)

	// Exists reports whether the token has a live entry.
	Exists(ctx context.Context, token string) (bool, error)

	// Delete removes the entry. Returns true when a record was removed.
	Delete(ctx context.Context, token string) (bool, error)

	// HealthCheck round-trips a sentinel value to confirm connectivity.
	HealthCheck(ctx context.Context) error
}
