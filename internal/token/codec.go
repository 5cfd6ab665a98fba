// Package token signs and verifies the opaque bearer tokens handed to
// clients. Tokens are HS256 JWTs binding an email to an expiry instant;
// verification is pure (secret + wall clock), no store lookup involved.
package token

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: malformed input,
// signature mismatch and expiry. Callers must not distinguish them.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents the signed token payload.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Codec signs and verifies bearer tokens with a process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu         sync.Mutex
	lastIssued time.Time
}

// Option customizes a Codec.
type Option func(*Codec)

// WithTimeSource overrides the wall clock, for tests.
func WithTimeSource(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a token codec with the given signing secret and lifetime.
func NewCodec(secret string, ttl time.Duration, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sign produces a token bound to the given email, expiring after the
// configured lifetime. Every call claims a distinct issue instant, so two
// tokens for the same email never share a payload even within one second.
func (c *Codec) Sign(email string) (string, time.Time, error) {
	now := c.issueInstant()
	expiresAt := now.Add(c.ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
	})

	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// issueInstant returns the wall clock truncated to iat precision, pushed
// forward when a previous call already claimed the same second.
func (c *Codec) issueInstant() time.Time {
	now := c.now().Truncate(time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !now.After(c.lastIssued) {
		now = c.lastIssued.Add(time.Second)
	}
	c.lastIssued = now
	return now
}

// Verify checks signature integrity and expiry and returns the bound email.
// It never panics on malformed input; every failure maps to ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}

	return claims.Email, nil
}
