package v1

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
	"github.com/wuzamanfou/smart-brain-api/middleware"
)

// AuthService implements registration, login, session refresh and sign-out.
// It depends on repository interfaces and the SessionManager (injected via
// constructor) and MUST NOT access the database or SQL directly.
type AuthService struct {
	users    domain.UserRepository
	sessions *SessionManager
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, sessions *SessionManager) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
	}
}

// Login verifies the email/password pair and creates a session.
// Unknown email and wrong password both come back as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if email == "" || password == "" {
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate: %w", ErrInvalidCredentials)
	}

	creds, err := s.users.GetCredentials(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	if creds == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate: %w", ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.Hash), []byte(password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate: %w", ErrInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user: %w", err)
	}
	if user == nil {
		// Credential row without a user row; do not leak the inconsistency.
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate: %w", ErrInvalidCredentials)
	}

	sess, err := s.sessions.Create(ctx, Principal{
		ID:    strconv.Itoa(user.ID),
		Email: user.Email,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", sess.UserID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")

	return sess, nil
}

// Refresh is the header-present sign-in path: an already issued token is
// validated against the store and resolved to its user id. No credential
// check happens here.
func (s *AuthService) Refresh(ctx context.Context, tok string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.refresh", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	userID, err := s.sessions.Validate(ctx, tok)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("refresh: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", userID))
	return userID, nil
}

// Register creates the credential and user records and opens a session.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.UserRow, *Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, nil, fmt.Errorf("register %q: %w", email, ErrUserExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, name, string(passwordHash))
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("insert user: %w", err)
	}

	sess, err := s.sessions.Create(ctx, Principal{
		ID:    strconv.Itoa(user.ID),
		Email: user.Email,
	})
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.String("user.id", sess.UserID),
		attribute.Bool("registration.success", true),
	)
	span.AddEvent("user.registered")

	return user, sess, nil
}

// SignOut revokes the session for the token. Reports whether an entry was
// actually deleted; a token with no entry is still a successful sign-out.
func (s *AuthService) SignOut(ctx context.Context, tok string) (bool, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	deleted, err := s.sessions.Revoke(ctx, tok)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("sign out: %w", err)
	}

	span.SetAttributes(attribute.Bool("session.deleted", deleted))
	return deleted, nil
}
