package v1

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
	"github.com/wuzamanfou/smart-brain-api/internal/core/repository"
	"github.com/wuzamanfou/smart-brain-api/internal/token"
)

const sessionTTL = 48 * time.Hour

// stubStore lets tests force store behaviors the redis-backed store cannot
// produce on demand (collisions, partial outages).
type stubStore struct {
	setIfAbsent func(ctx context.Context, tok, userID string, ttl time.Duration) (bool, error)
	get         func(ctx context.Context, tok string) (string, error)
	exists      func(ctx context.Context, tok string) (bool, error)
	delete      func(ctx context.Context, tok string) (bool, error)
}

func (s *stubStore) SetIfAbsent(ctx context.Context, tok, userID string, ttl time.Duration) (bool, error) {
	return s.setIfAbsent(ctx, tok, userID, ttl)
}

func (s *stubStore) Get(ctx context.Context, tok string) (string, error) {
	return s.get(ctx, tok)
}

func (s *stubStore) Exists(ctx context.Context, tok string) (bool, error) {
	return s.exists(ctx, tok)
}

func (s *stubStore) Delete(ctx context.Context, tok string) (bool, error) {
	return s.delete(ctx, tok)
}

func (s *stubStore) HealthCheck(ctx context.Context) error {
	return nil
}

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec := token.NewCodec("test-secret", sessionTTL)
	return NewSessionManager(codec, repository.NewSessionStore(client), sessionTTL), mr
}

func TestSessionManager_CreateValidateRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, Principal{ID: "42", Email: "a@x.com"})
	require.NoError(t, err)
	assert.True(t, sess.Persisted)
	assert.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().Add(sessionTTL), sess.ExpiresAt, time.Minute)

	userID, err := m.Validate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "42", userID)
}

func TestSessionManager_CreateRejectsInvalidPrincipal(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, Principal{ID: "", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = m.Create(ctx, Principal{ID: "42", Email: ""})
	assert.ErrorIs(t, err, ErrInvalidPrincipal)
}

func TestSessionManager_ValidateUnknownToken(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	// Missing token.
	_, err := m.Validate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Garbage never signed by the codec.
	_, err = m.Validate(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Signature-valid token that was never stored (degraded-mode token).
	codec := token.NewCodec("test-secret", sessionTTL)
	signed, _, err := codec.Sign("a@x.com")
	require.NoError(t, err)

	_, err = m.Validate(ctx, signed)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionManager_ValidateAfterTTL(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, Principal{ID: "42", Email: "a@x.com"})
	require.NoError(t, err)

	mr.FastForward(sessionTTL + time.Second)

	_, err = m.Validate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionManager_RevokeThenValidate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, Principal{ID: "42", Email: "a@x.com"})
	require.NoError(t, err)

	deleted, err := m.Revoke(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = m.Validate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionManager_RevokeIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	deleted, err := m.Revoke(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = m.Revoke(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestSessionManager_DegradedWhenStoreDown(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	mr.Close()

	sess, err := m.Create(ctx, Principal{ID: "42", Email: "a@x.com"})
	require.NoError(t, err)
	assert.False(t, sess.Persisted)
	assert.NotEmpty(t, sess.Token)

	// The degraded token is signature-valid but validation needs the store.
	_, err = m.Validate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestSessionManager_CollisionRetriesOnce(t *testing.T) {
	codec := token.NewCodec("test-secret", sessionTTL)

	t.Run("persistent collision fails", func(t *testing.T) {
		attempts := 0
		store := &stubStore{
			setIfAbsent: func(context.Context, string, string, time.Duration) (bool, error) {
				attempts++
				return false, nil
			},
		}

		m := NewSessionManager(codec, store, sessionTTL)
		_, err := m.Create(context.Background(), Principal{ID: "42", Email: "a@x.com"})
		assert.ErrorIs(t, err, ErrStoreCollision)
		assert.Equal(t, 2, attempts)
	})

	t.Run("re-signed token wins", func(t *testing.T) {
		attempts := 0
		store := &stubStore{
			setIfAbsent: func(context.Context, string, string, time.Duration) (bool, error) {
				attempts++
				return attempts > 1, nil
			},
		}

		m := NewSessionManager(codec, store, sessionTTL)
		sess, err := m.Create(context.Background(), Principal{ID: "42", Email: "a@x.com"})
		require.NoError(t, err)
		assert.True(t, sess.Persisted)
		assert.Equal(t, 2, attempts)
	})
}

func TestSessionManager_ConcurrentCreateSingleEntry(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	const workers = 8
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := m.Create(ctx, Principal{ID: "42", Email: "a@x.com"})
			results <- err
		}()
	}

	for i := 0; i < workers; i++ {
		if err := <-results; err != nil {
			require.ErrorIs(t, err, ErrStoreCollision)
		}
	}

	// Every stored entry maps the token to the same user; losers either got
	// a fresh token or a collision error, never a silent overwrite.
	for _, key := range mr.Keys() {
		val, err := mr.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "42", val)
	}
	assert.GreaterOrEqual(t, len(mr.Keys()), 1)
}
