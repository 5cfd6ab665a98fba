package domain

import "context"

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	Name string
	Age  int
	Pet  string
}

// ProfileRepository defines the data-access contract for per-user profile
// data and counters (the resource service).
type ProfileRepository interface {
	// GetByID returns the user with the given id.
	// Returns (nil, nil) when no user is found.
	GetByID(ctx context.Context, id int) (*UserRow, error)

	// Update applies the given profile fields to the user.
	// Returns false when the user does not exist.
	Update(ctx context.Context, id int, upd ProfileUpdate) (bool, error)

	// IncrementEntries bumps the user's detection counter by one and returns
	// the new value. Returns ok=false when the user does not exist.
	IncrementEntries(ctx context.Context, id int) (entries int, ok bool, err error)
}
