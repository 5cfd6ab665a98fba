package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
)

type stubValidator struct {
	userID string
	err    error
}

func (s *stubValidator) Validate(context.Context, string) (string, error) {
	return s.userID, s.err
}

func newGuardedRouter(v SessionValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", NewAuthMiddleware(v).RequireAuth(), func(c *gin.Context) {
		id, ok := PrincipalID(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	r := newGuardedRouter(&stubValidator{userID: "42"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	r := newGuardedRouter(&stubValidator{err: domain.ErrSessionNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("authorization", "bad-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_StoreUnavailable(t *testing.T) {
	r := newGuardedRouter(&stubValidator{err: domain.ErrStoreUnavailable})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("authorization", "some-token")
	r.ServeHTTP(w, req)

	// Store connectivity trouble must not masquerade as bad credentials.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuth_ForwardsPrincipal(t *testing.T) {
	r := newGuardedRouter(&stubValidator{userID: "42"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("authorization", "good-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"42"}`, w.Body.String())
}
