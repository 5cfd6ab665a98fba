package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestCodec_SignVerifyRoundTrip(t *testing.T) {
	codec := NewCodec(testSecret, 48*time.Hour)

	signed, expiresAt, err := codec.Sign("a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), expiresAt, time.Minute)

	email, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestCodec_UniquePerCall(t *testing.T) {
	// A frozen clock is the worst case: without the issue-instant guard both
	// calls would land on the same iat second and produce identical tokens.
	frozen := time.Now()
	codec := NewCodec(testSecret, 48*time.Hour, WithTimeSource(func() time.Time {
		return frozen
	}))

	first, firstExp, err := codec.Sign("a@x.com")
	require.NoError(t, err)
	second, secondExp, err := codec.Sign("a@x.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, secondExp.After(firstExp))
}

func TestCodec_VerifyFailures(t *testing.T) {
	codec := NewCodec(testSecret, 48*time.Hour)

	signed, _, err := codec.Sign("a@x.com")
	require.NoError(t, err)

	t.Run("malformed token", func(t *testing.T) {
		for _, tok := range []string{"", "garbage", "a.b", "a.b.c"} {
			_, err := codec.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(signed, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + ".eyJlbWFpbCI6ImJAeC5jb20ifQ." + parts[2]

		_, err := codec.Verify(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewCodec("another-secret", 48*time.Hour)
		_, err := other.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		later := NewCodec(testSecret, 48*time.Hour, WithTimeSource(func() time.Time {
			return time.Now().Add(49 * time.Hour)
		}))
		_, err := later.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestCodec_VerifyNeverPanics(t *testing.T) {
	codec := NewCodec(testSecret, time.Hour)

	for _, tok := range []string{"", ".", "..", "\x00\x01\x02", strings.Repeat(".", 10)} {
		_, err := codec.Verify(tok)
		require.True(t, errors.Is(err, ErrInvalidToken), "token %q", tok)
	}
}
