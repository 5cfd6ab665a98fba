// Package v1 provides the business logic for API version 1: credential
// checks, session lifecycle and profile operations.
//
// Error Handling:
// This package defines sentinel errors for the auth-level failures it owns.
// Store-level failures (entry absent, store unreachable) are the sentinels of
// internal/core/domain and pass through wrapped, so callers can match either
// layer with errors.Is.
package v1

import "errors"

// Sentinel errors for authentication and profile operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrInvalidCredentials indicates the email/password pair is wrong. It
	// deliberately covers both "unknown email" and "wrong password" so
	// responses cannot be used for account enumeration.
	// HTTP Status: 400 Bad Request
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists indicates the email is already registered.
	// HTTP Status: 400 Bad Request
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidPrincipal indicates a session was requested for a principal
	// with a missing id or email.
	// HTTP Status: 500 Internal Server Error (programming error upstream)
	ErrInvalidPrincipal = errors.New("invalid principal")

	// ErrStoreCollision indicates a freshly signed token already existed in
	// the session store even after one re-issue. Session entries are written
	// by exactly one path, so a collision means store corruption.
	// HTTP Status: 500 Internal Server Error
	ErrStoreCollision = errors.New("session token collision")

	// ErrMissingToken indicates an operation requiring a token was called
	// without one.
	// HTTP Status: 400 Bad Request
	ErrMissingToken = errors.New("no token provided")

	// ErrUserNotFound indicates the requested user id does not exist.
	// HTTP Status: 404 Not Found
	ErrUserNotFound = errors.New("user not found")
)
