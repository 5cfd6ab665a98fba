package v1

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
)

type stubUsers struct {
	creds  map[string]string // email -> hash
	users  map[string]*domain.UserRow
	nextID int
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		creds:  map[string]string{},
		users:  map[string]*domain.UserRow{},
		nextID: 1,
	}
}

func (s *stubUsers) seed(t *testing.T, email, name, password string) *domain.UserRow {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := s.Create(context.Background(), email, name, string(hash))
	require.NoError(t, err)
	return user
}

func (s *stubUsers) GetCredentials(_ context.Context, email string) (*domain.CredentialRow, error) {
	hash, ok := s.creds[email]
	if !ok {
		return nil, nil
	}
	return &domain.CredentialRow{Email: email, Hash: hash}, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.UserRow, error) {
	return s.users[email], nil
}

func (s *stubUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := s.users[email]
	return ok, nil
}

func (s *stubUsers) Create(_ context.Context, email, name, passwordHash string) (*domain.UserRow, error) {
	row := &domain.UserRow{
		ID:     s.nextID,
		Name:   name,
		Email:  email,
		Joined: time.Now(),
	}
	s.nextID++
	s.creds[email] = passwordHash
	s.users[email] = row
	return row, nil
}

func newTestAuthService(t *testing.T) (*AuthService, *stubUsers) {
	t.Helper()
	m, _ := newTestManager(t)
	users := newStubUsers()
	return NewAuthService(users, m), users
}

func TestAuthService_LoginSuccess(t *testing.T) {
	svc, users := newTestAuthService(t)
	seeded := users.seed(t, "a@x.com", "A", "pw")

	sess, err := svc.Login(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "1", sess.UserID)
	assert.True(t, sess.Persisted)
	assert.Equal(t, 1, seeded.ID)
}

func TestAuthService_LoginGenericFailure(t *testing.T) {
	svc, users := newTestAuthService(t)
	users.seed(t, "a@x.com", "A", "pw")

	// Unknown email and wrong password must be indistinguishable.
	_, unknownErr := svc.Login(context.Background(), "b@x.com", "pw")
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)

	_, wrongErr := svc.Login(context.Background(), "a@x.com", "nope")
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)

	_, emptyErr := svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, emptyErr, ErrInvalidCredentials)
}

func TestAuthService_RegisterAndRefresh(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, sess, err := svc.Register(ctx, "a@x.com", "A", "pw")
	require.NoError(t, err)
	assert.Equal(t, "A", user.Name)
	assert.Equal(t, "a@x.com", user.Email)
	require.True(t, sess.Persisted)

	userID, err := svc.Refresh(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, userID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, users := newTestAuthService(t)
	users.seed(t, "a@x.com", "A", "pw")

	_, _, err := svc.Register(context.Background(), "a@x.com", "B", "pw2")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_SignOut(t *testing.T) {
	svc, users := newTestAuthService(t)
	users.seed(t, "a@x.com", "A", "pw")
	ctx := context.Background()

	sess, err := svc.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	deleted, err := svc.SignOut(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, deleted)

	// The token no longer refreshes once revoked.
	_, err = svc.Refresh(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Signing out again is still a success, just with nothing to delete.
	deleted, err = svc.SignOut(ctx, sess.Token)
	require.NoError(t, err)
	assert.False(t, deleted)
}
