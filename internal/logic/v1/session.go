package v1

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
	"github.com/wuzamanfou/smart-brain-api/internal/logger"
	"github.com/wuzamanfou/smart-brain-api/internal/token"
	"github.com/wuzamanfou/smart-brain-api/middleware"
)

// Principal identifies an authenticated user for session purposes.
type Principal struct {
	ID    string
	Email string
}

// Session is the outcome of a successful session creation. Persisted is
// false when the store was unreachable: the token is signature-valid but
// will never validate against the store, and callers must surface this as a
// warning rather than a hard failure.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	Persisted bool
}

// SessionManager orchestrates the token codec and the session store to
// implement create/validate/revoke. The store client is injected at
// construction; reconnect-on-error is the store client's responsibility.
type SessionManager struct {
	codec *token.Codec
	store domain.SessionStore
	ttl   time.Duration
}

// NewSessionManager creates a SessionManager. ttl applies to store entries
// and must match the codec's signed token lifetime.
func NewSessionManager(codec *token.Codec, store domain.SessionStore, ttl time.Duration) *SessionManager {
	return &SessionManager{
		codec: codec,
		store: store,
		ttl:   ttl,
	}
}

// Create signs a token for the principal and records it in the store with
// the configured TTL.
//
// A set-if-absent conflict means the signed token already exists; the token
// is re-signed once (fresh issuedAt) before giving up with ErrStoreCollision.
// An unreachable store yields a degraded session (Persisted == false), not
// an error.
func (m *SessionManager) Create(ctx context.Context, p Principal) (*Session, error) {
	ctx, span := middleware.StartSpan(ctx, "session.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if p.ID == "" || p.Email == "" {
		span.SetAttributes(attribute.Bool("session.created", false))
		return nil, fmt.Errorf("create session: %w", ErrInvalidPrincipal)
	}

	for attempt := 0; attempt < 2; attempt++ {
		signed, expiresAt, err := m.codec.Sign(p.Email)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("create session: %w", err)
		}

		created, err := m.store.SetIfAbsent(ctx, signed, p.ID, m.ttl)
		if errors.Is(err, domain.ErrStoreUnavailable) {
			span.SetAttributes(attribute.Bool("session.persisted", false))
			logger.FromContext(ctx).Warn().
				Str("user_id", p.ID).
				Msg("Session store unreachable - session will not persist")
			return &Session{
				Token:     signed,
				UserID:    p.ID,
				ExpiresAt: expiresAt,
				Persisted: false,
			}, nil
		}
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("create session: %w", err)
		}
		if created {
			span.SetAttributes(attribute.Bool("session.persisted", true))
			return &Session{
				Token:     signed,
				UserID:    p.ID,
				ExpiresAt: expiresAt,
				Persisted: true,
			}, nil
		}

		span.AddEvent("session.token_collision")
	}

	return nil, fmt.Errorf("create session for user %s: %w", p.ID, ErrStoreCollision)
}

// Validate resolves a token to the user id of its live session entry.
//
// The token signature and signed expiry are checked first, so forged or
// stale-by-signature tokens never reach the store; store presence remains
// authoritative for revocation. Misses surface as domain.ErrSessionNotFound,
// connectivity failures as domain.ErrStoreUnavailable.
func (m *SessionManager) Validate(ctx context.Context, tok string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "session.validate", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if tok == "" {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return "", fmt.Errorf("validate session: %w", domain.ErrSessionNotFound)
	}

	if _, err := m.codec.Verify(tok); err != nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return "", fmt.Errorf("validate session: %w (%w)", domain.ErrSessionNotFound, err)
	}

	userID, err := m.store.Get(ctx, tok)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("session.valid", false))
		return "", fmt.Errorf("validate session: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("session.valid", true),
		attribute.String("user.id", userID),
	)
	return userID, nil
}

// Revoke deletes the session entry for the token. Revoking a token that has
// no entry is not an error: it reports deleted=false and succeeds, so
// sign-out stays idempotent.
func (m *SessionManager) Revoke(ctx context.Context, tok string) (bool, error) {
	ctx, span := middleware.StartSpan(ctx, "session.revoke", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if tok == "" {
		return false, fmt.Errorf("revoke session: %w", ErrMissingToken)
	}

	exists, err := m.store.Exists(ctx, tok)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("revoke session: %w", err)
	}
	if !exists {
		span.SetAttributes(attribute.Bool("session.deleted", false))
		return false, nil
	}

	deleted, err := m.store.Delete(ctx, tok)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("revoke session: %w", err)
	}

	span.SetAttributes(attribute.Bool("session.deleted", deleted))
	return deleted, nil
}
