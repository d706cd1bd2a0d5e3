package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTUtilSignValidate(t *testing.T) {
	ju := NewJWTUtil("HS256", "secret", "academy_token")
	token, err := ju.Sign(&AppTokenClaims{
		UID:            "u1",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	require.NoError(t, err)

	claims, err := ju.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
	assert.True(t, claims.TimeRemaining() > 0)

	_, err = NewJWTUtil("HS256", "other", "academy_token").Validate(token)
	assert.Error(t, err, "wrong secret")

	_, err = NewJWTUtil("HS512", "secret", "academy_token").Validate(token)
	assert.Error(t, err, "algorithm mismatch")
}

func TestJWTUtilRejects(t *testing.T) {
	ju := NewJWTUtil("HS256", "secret", "academy_token")

	expired, err := ju.Sign(&AppTokenClaims{
		UID:            "u1",
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	})
	require.NoError(t, err)
	_, err = ju.Validate(expired)
	assert.Error(t, err)

	anonymous, err := ju.Sign(&AppTokenClaims{})
	require.NoError(t, err)
	_, err = ju.Validate(anonymous)
	assert.Error(t, err)
}

func TestJWTUtilExtractToken(t *testing.T) {
	ju := NewJWTUtil("HS256", "secret", "academy_token")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "academy_token", Value: "from-cookie"})
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	token, err := ju.ExtractToken(e.NewContext(req, httptest.NewRecorder()))
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", token)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer from-header")
	token, err = ju.ExtractToken(e.NewContext(req, httptest.NewRecorder()))
	require.NoError(t, err)
	assert.Equal(t, "from-header", token)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = ju.ExtractToken(e.NewContext(req, httptest.NewRecorder()))
	assert.ErrorIs(t, err, ErrTokenMissing)
}
